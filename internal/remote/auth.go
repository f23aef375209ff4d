package remote

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/motorplace/internal/wire"
)

// Account is the identity returned by a successful sign-in.
type Account struct {
	UserID   string
	Username string
	Role     string
}

// SignIn checks credentials with the Auth service.
func SignIn(ctx context.Context, conn grpc.ClientConnInterface, username, password string) (Account, error) {
	out, err := invoke(ctx, conn, DefaultTimeout, wire.FullMethod(wire.AuthService, wire.MethodSignIn), map[string]any{
		wire.FieldUsername: username,
		wire.FieldPassword: password,
	})
	if err != nil {
		return Account{}, err
	}
	f := wire.Read(out)
	return Account{
		UserID:   f.String(wire.FieldUserID),
		Username: f.String(wire.FieldUsername),
		Role:     f.String(wire.FieldRole),
	}, nil
}
