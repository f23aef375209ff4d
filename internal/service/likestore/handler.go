package likestore

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/server"
	"github.com/oggyb/motorplace/internal/utils/pagination"
	"github.com/oggyb/motorplace/internal/wire"
)

// Handler serves a likes.Store over gRPC. Each method decodes its Struct
// request, validates it, and maps store failures through svcErr.Map.
type Handler struct {
	store likes.Store
	log   *slog.Logger
}

// NewHandler wraps store.
func NewHandler(store likes.Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// LikeStoreServer is the server API of the LikeStore service.
type LikeStoreServer interface {
	Exists(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Count(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Search(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ LikeStoreServer = (*Handler)(nil)

// ServiceDesc is the hand-written descriptor of the LikeStore service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.LikeStoreService,
	HandlerType: (*LikeStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(wire.LikeStoreService, wire.MethodExists, LikeStoreServer.Exists),
		server.Unary(wire.LikeStoreService, wire.MethodInsert, LikeStoreServer.Insert),
		server.Unary(wire.LikeStoreService, wire.MethodDelete, LikeStoreServer.Delete),
		server.Unary(wire.LikeStoreService, wire.MethodDeleteAll, LikeStoreServer.DeleteAll),
		server.Unary(wire.LikeStoreService, wire.MethodCount, LikeStoreServer.Count),
		server.Unary(wire.LikeStoreService, wire.MethodList, LikeStoreServer.List),
		server.Unary(wire.LikeStoreService, wire.MethodSearch, LikeStoreServer.Search),
	},
	Streams: []grpc.StreamDesc{},
}

func (h *Handler) Exists(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := wire.Read(in)
	userID, key, err := userAndKey(f)
	if err != nil {
		return nil, err
	}
	ok, err := h.store.Exists(ctx, userID, key)
	if err != nil {
		return nil, h.fail("Exists", err)
	}
	return wire.Message(map[string]any{wire.FieldExists: ok})
}

func (h *Handler) Insert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	item, err := wire.Read(in).Item()
	if err != nil {
		return nil, err
	}
	if item.UserID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}
	if err := likes.ValidateItemData(item.Key.Type, item.Data); err != nil {
		return nil, err
	}
	inserted, err := h.store.Insert(ctx, item)
	if err != nil {
		return nil, h.fail("Insert", err)
	}
	return wire.Message(map[string]any{wire.FieldInserted: inserted})
}

func (h *Handler) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, key, err := userAndKey(wire.Read(in))
	if err != nil {
		return nil, err
	}
	deleted, err := h.store.Delete(ctx, userID, key)
	if err != nil {
		return nil, h.fail("Delete", err)
	}
	return wire.Message(map[string]any{wire.FieldDeleted: deleted})
}

func (h *Handler) DeleteAll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := wire.Read(in)
	userID := f.String(wire.FieldUserID)
	if userID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}
	t := likes.ItemType(f.String(wire.FieldItemType))
	if t != "" && !t.Valid() {
		return nil, svcErr.InvalidArgument("unknown item type " + string(t))
	}
	n, err := h.store.DeleteAll(ctx, userID, t)
	if err != nil {
		return nil, h.fail("DeleteAll", err)
	}
	return wire.Message(map[string]any{wire.FieldDeleted: n})
}

func (h *Handler) Count(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	key := wire.Read(in).Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}
	n, err := h.store.Count(ctx, key)
	if err != nil {
		return nil, h.fail("Count", err)
	}
	return wire.Message(map[string]any{wire.FieldCount: n})
}

func (h *Handler) List(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := wire.Read(in)
	userID := f.String(wire.FieldUserID)
	if userID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}
	q := likes.ListQuery{
		Page:     int(f.Int(wire.FieldPage)),
		PageSize: int(f.Int(wire.FieldPageSize)),
		Type:     likes.ItemType(f.String(wire.FieldItemType)),
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, svcErr.InvalidArgument("unknown item type filter " + string(q.Type))
	}
	if err := checkPage(q.Page, q.PageSize); err != nil {
		return nil, err
	}
	items, total, err := h.store.List(ctx, userID, q)
	if err != nil {
		return nil, h.fail("List", err)
	}
	return pageMessage(items, total)
}

func (h *Handler) Search(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := wire.Read(in)
	userID := f.String(wire.FieldUserID)
	if userID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}
	q := likes.SearchQuery{
		Query:    f.String(wire.FieldQuery),
		Page:     int(f.Int(wire.FieldPage)),
		PageSize: int(f.Int(wire.FieldPageSize)),
	}
	if err := checkPage(q.Page, q.PageSize); err != nil {
		return nil, err
	}
	items, total, err := h.store.Search(ctx, userID, q)
	if err != nil {
		return nil, h.fail("Search", err)
	}
	return pageMessage(items, total)
}

func (h *Handler) fail(op string, err error) error {
	mapped := svcErr.Map(err)
	if svcErr.IsCode(mapped, svcErr.CodeInternal) {
		h.log.Error(op+" failed", "err", err)
	}
	return mapped
}

func userAndKey(f wire.Fields) (string, likes.Key, error) {
	key := f.Key()
	userID := f.String(wire.FieldUserID)
	if userID == "" {
		return "", key, svcErr.InvalidArgument("user_id is required")
	}
	return userID, key, key.Validate()
}

// maxWirePageSize bounds page_size on the wire; clients normalize sizes themselves.
const maxWirePageSize = 1000

func checkPage(page, size int) error {
	if page < 1 || page > pagination.MaxPage || size < 1 || size > maxWirePageSize {
		return svcErr.InvalidArgumentf("invalid page request",
			fmt.Errorf("page must be within 1..%d and page_size within 1..%d", pagination.MaxPage, maxWirePageSize))
	}
	return nil
}

func pageMessage(items []likes.LikedItem, total int64) (*structpb.Struct, error) {
	values, err := wire.ItemsValue(items)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return wire.Message(map[string]any{wire.FieldItems: values, wire.FieldTotal: total})
}
