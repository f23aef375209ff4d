package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/motorplace/internal/app"
	"github.com/oggyb/motorplace/internal/server"
	"github.com/oggyb/motorplace/internal/wire"
)

// AuthServer is the server API of the Auth service.
type AuthServer interface {
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc is the hand-written descriptor of the Auth service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.AuthService,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(wire.AuthService, wire.MethodSignIn, AuthServer.SignIn),
	},
	Streams: []grpc.StreamDesc{},
}

// Handler adapts Service to AuthServer.
type Handler struct {
	svc *Service
}

func (h *Handler) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := wire.Read(in)
	acct, err := h.svc.SignIn(ctx, f.String(wire.FieldUsername), f.String(wire.FieldPassword))
	if err != nil {
		return nil, err
	}
	return wire.Message(map[string]any{
		wire.FieldUserID:   acct.UserID,
		wire.FieldUsername: acct.Username,
		wire.FieldRole:     acct.Role,
	})
}

// Registrar ties the Auth service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Auth service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, &Handler{svc: NewService(r.appCtx)})
}
