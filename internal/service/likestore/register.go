package likestore

import (
	"google.golang.org/grpc"

	"github.com/oggyb/motorplace/internal/app"
)

// Registrar ties the LikeStore service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the LikeStore service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the LikeStore implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	handler := NewHandler(NewService(r.appCtx), r.appCtx.Logger)
	s.RegisterService(&ServiceDesc, handler)
}
