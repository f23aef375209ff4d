package wire_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/wire"
)

func TestItemsSurviveStruct(t *testing.T) {
	items := []likes.LikedItem{
		{
			UserID:  "u1",
			Key:     likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1001"},
			Data:    likes.ProductData{Title: "2023 Toyota Land Cruiser", Price: 85000, Currency: "USD", Year: 2023, Status: "active"},
			LikedAt: time.Date(2024, 3, 1, 9, 30, 0, 123000000, time.UTC),
		},
		{
			UserID:  "u1",
			Key:     likes.Key{Type: likes.ItemTypeService, ID: "svc-3001"},
			Data:    likes.ServiceData{Title: "Ceramic coating", Price: 650, Status: "active"},
			LikedAt: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
		},
	}

	values, err := wire.ItemsValue(items)
	require.NoError(t, err)
	msg, err := wire.Message(map[string]any{wire.FieldItems: values, wire.FieldTotal: int64(2)})
	require.NoError(t, err)

	f := wire.Read(msg)
	got, err := f.Items(wire.FieldItems)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.EqualValues(t, 2, f.Int(wire.FieldTotal))
}

func TestItemRejectsBadKey(t *testing.T) {
	msg, err := wire.Message(map[string]any{wire.FieldItemType: "boat", wire.FieldItemID: "b1"})
	require.NoError(t, err)

	_, err = wire.Read(msg).Item()
	assert.True(t, svcErr.IsCode(err, svcErr.CodeInvalidArgument))
}

func TestReadNilStruct(t *testing.T) {
	f := wire.Read(nil)
	assert.Empty(t, f.String(wire.FieldUserID))
	assert.False(t, f.Bool(wire.FieldExists))
	assert.Zero(t, f.Int(wire.FieldCount))

	items, err := f.Items(wire.FieldItems)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/motorplace.likes.v1.LikeStore/Count", wire.FullMethod(wire.LikeStoreService, wire.MethodCount))
}
