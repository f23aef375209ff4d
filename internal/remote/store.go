// Package remote is the client side of the like store: a likes.Store and a
// sign-in call over gRPC, plus a connectivity signal fed by the connection.
package remote

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/wire"
)

// DefaultTimeout bounds each remote call.
const DefaultTimeout = 10 * time.Second

// Dial prepares a client connection; it connects lazily on first use.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(addr, opts...)
}

// Store is a likes.Store served by a remote LikeStore service.
type Store struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

var _ likes.Store = (*Store)(nil)

// NewStore calls the LikeStore service over conn.
func NewStore(conn grpc.ClientConnInterface) *Store {
	return &Store{conn: conn, timeout: DefaultTimeout}
}

// WithTimeout returns a copy using d per call.
func (s *Store) WithTimeout(d time.Duration) *Store {
	c := *s
	c.timeout = d
	return &c
}

func (s *Store) Exists(ctx context.Context, userID string, key likes.Key) (bool, error) {
	req := wire.KeyFields(key)
	req[wire.FieldUserID] = userID
	out, err := s.call(ctx, wire.MethodExists, req)
	if err != nil {
		return false, err
	}
	return wire.Read(out).Bool(wire.FieldExists), nil
}

func (s *Store) Insert(ctx context.Context, item likes.LikedItem) (bool, error) {
	req, err := wire.ItemFields(item)
	if err != nil {
		return false, err
	}
	out, err := s.call(ctx, wire.MethodInsert, req)
	if err != nil {
		return false, err
	}
	return wire.Read(out).Bool(wire.FieldInserted), nil
}

func (s *Store) Delete(ctx context.Context, userID string, key likes.Key) (bool, error) {
	req := wire.KeyFields(key)
	req[wire.FieldUserID] = userID
	out, err := s.call(ctx, wire.MethodDelete, req)
	if err != nil {
		return false, err
	}
	return wire.Read(out).Bool(wire.FieldDeleted), nil
}

func (s *Store) DeleteAll(ctx context.Context, userID string, t likes.ItemType) (int64, error) {
	out, err := s.call(ctx, wire.MethodDeleteAll, map[string]any{
		wire.FieldUserID:   userID,
		wire.FieldItemType: string(t),
	})
	if err != nil {
		return 0, err
	}
	return wire.Read(out).Int(wire.FieldDeleted), nil
}

func (s *Store) Count(ctx context.Context, key likes.Key) (int64, error) {
	out, err := s.call(ctx, wire.MethodCount, wire.KeyFields(key))
	if err != nil {
		return 0, err
	}
	return wire.Read(out).Int(wire.FieldCount), nil
}

func (s *Store) List(ctx context.Context, userID string, q likes.ListQuery) ([]likes.LikedItem, int64, error) {
	return s.page(ctx, wire.MethodList, map[string]any{
		wire.FieldUserID:   userID,
		wire.FieldItemType: string(q.Type),
		wire.FieldPage:     q.Page,
		wire.FieldPageSize: q.PageSize,
	})
}

func (s *Store) Search(ctx context.Context, userID string, q likes.SearchQuery) ([]likes.LikedItem, int64, error) {
	return s.page(ctx, wire.MethodSearch, map[string]any{
		wire.FieldUserID:   userID,
		wire.FieldQuery:    q.Query,
		wire.FieldPage:     q.Page,
		wire.FieldPageSize: q.PageSize,
	})
}

func (s *Store) page(ctx context.Context, method string, req map[string]any) ([]likes.LikedItem, int64, error) {
	out, err := s.call(ctx, method, req)
	if err != nil {
		return nil, 0, err
	}
	f := wire.Read(out)
	items, err := f.Items(wire.FieldItems)
	if err != nil {
		return nil, 0, svcErr.Map(err)
	}
	return items, f.Int(wire.FieldTotal), nil
}

func (s *Store) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	return invoke(ctx, s.conn, s.timeout, wire.FullMethod(wire.LikeStoreService, method), req)
}

func invoke(ctx context.Context, conn grpc.ClientConnInterface, timeout time.Duration, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := wire.Message(req)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out); err != nil {
		return nil, svcErr.Map(err)
	}
	return out, nil
}
