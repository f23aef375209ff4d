package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/motorplace/internal/errors"
)

func TestMap_KnownErrors(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want svcErr.Code
	}{
		{"gorm not found", gorm.ErrRecordNotFound, svcErr.CodeNotFound},
		{"wrapped gorm not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), svcErr.CodeNotFound},
		{"redis nil", redis.Nil, svcErr.CodeNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, svcErr.CodeAlreadyExists},
		{"deadline", context.DeadlineExceeded, svcErr.CodeDeadlineExceeded},
		{"canceled", context.Canceled, svcErr.CodeCanceled},
		{"grpc unavailable", status.Error(codes.Unavailable, "conn refused"), svcErr.CodeUnavailable},
		{"unknown", errors.New("boom"), svcErr.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svcErr.CodeOf(tc.in))
		})
	}
}

func TestMap_NilAndPassthrough(t *testing.T) {
	assert.NoError(t, svcErr.Map(nil))

	orig := svcErr.Unauthenticated("sign in first")
	assert.Same(t, orig, svcErr.Map(orig))
	assert.True(t, svcErr.IsCode(fmt.Errorf("ctx: %w", orig), svcErr.CodeUnauthenticated))
}

func TestMap_InternalKeepsDetails(t *testing.T) {
	err := svcErr.Map(errors.New("disk full"))

	var e *svcErr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "disk full", e.Details)
	assert.Equal(t, "internal error: disk full", e.Error())
}

func TestGRPCStatus_RoundTrip(t *testing.T) {
	orig := svcErr.InvalidArgumentf("invalid item snapshot", errors.New("title is required"))

	st, ok := status.FromError(orig)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	back := svcErr.Map(st.Err())

	var e *svcErr.Error
	require.ErrorAs(t, back, &e)
	assert.Equal(t, svcErr.CodeInvalidArgument, e.Code)
	assert.Equal(t, "invalid item snapshot", e.Message)
	assert.Equal(t, "title is required", e.Details)
}
