// Package wire describes the gRPC surface shared by the like store server and
// its clients. Messages are google.protobuf.Struct values so no generated code
// is needed; this package owns their field names and conversions.
package wire

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
)

// Service names.
const (
	LikeStoreService = "motorplace.likes.v1.LikeStore"
	AuthService      = "motorplace.auth.v1.Auth"
)

// LikeStore methods.
const (
	MethodExists    = "Exists"
	MethodInsert    = "Insert"
	MethodDelete    = "Delete"
	MethodDeleteAll = "DeleteAll"
	MethodCount     = "Count"
	MethodList      = "List"
	MethodSearch    = "Search"
)

// Auth methods.
const MethodSignIn = "SignIn"

// Field names.
const (
	FieldUserID   = "user_id"
	FieldItemType = "item_type"
	FieldItemID   = "item_id"
	FieldItemData = "item_data"
	FieldLikedAt  = "liked_at"
	FieldPage     = "page"
	FieldPageSize = "page_size"
	FieldQuery    = "query"
	FieldItems    = "items"
	FieldTotal    = "total"
	FieldExists   = "exists"
	FieldInserted = "inserted"
	FieldDeleted  = "deleted"
	FieldCount    = "count"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldRole     = "role"
)

// FullMethod is the path grpc uses for service/method.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Message builds a Struct; values must be structpb-compatible.
func Message(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, svcErr.InvalidArgumentf("unencodable message", err)
	}
	return s, nil
}

// KeyFields are the fields identifying an item.
func KeyFields(key likes.Key) map[string]any {
	return map[string]any{FieldItemType: string(key.Type), FieldItemID: key.ID}
}

// ItemFields encodes a liked item; the snapshot travels as a JSON string.
func ItemFields(it likes.LikedItem) (map[string]any, error) {
	raw, err := likes.EncodeItemData(it.Data)
	if err != nil {
		return nil, err
	}
	m := KeyFields(it.Key)
	m[FieldUserID] = it.UserID
	m[FieldItemData] = string(raw)
	m[FieldLikedAt] = it.LikedAt.UTC().Format(time.RFC3339Nano)
	return m, nil
}

// ItemsValue encodes a list of liked items.
func ItemsValue(items []likes.LikedItem) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, it := range items {
		m, err := ItemFields(it)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Fields reads typed values out of a Struct. Missing fields read as zero.
type Fields struct {
	m map[string]*structpb.Value
}

// Read wraps s; a nil Struct has no fields.
func Read(s *structpb.Struct) Fields {
	return Fields{m: s.GetFields()}
}

func (f Fields) String(name string) string { return f.m[name].GetStringValue() }

func (f Fields) Bool(name string) bool { return f.m[name].GetBoolValue() }

func (f Fields) Int(name string) int64 { return int64(f.m[name].GetNumberValue()) }

// Key reads item_type and item_id.
func (f Fields) Key() likes.Key {
	return likes.Key{Type: likes.ItemType(f.String(FieldItemType)), ID: f.String(FieldItemID)}
}

// Item decodes the fields written by ItemFields.
func (f Fields) Item() (likes.LikedItem, error) {
	key := f.Key()
	if err := key.Validate(); err != nil {
		return likes.LikedItem{}, err
	}
	data, err := likes.DecodeItemData(key.Type, []byte(f.String(FieldItemData)))
	if err != nil {
		return likes.LikedItem{}, err
	}

	var likedAt time.Time
	if raw := f.String(FieldLikedAt); raw != "" {
		if likedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return likes.LikedItem{}, svcErr.InvalidArgumentf("malformed liked_at", err)
		}
	}
	return likes.LikedItem{UserID: f.String(FieldUserID), Key: key, Data: data, LikedAt: likedAt}, nil
}

// Items decodes a list written by ItemsValue.
func (f Fields) Items(name string) ([]likes.LikedItem, error) {
	values := f.m[name].GetListValue().GetValues()
	out := make([]likes.LikedItem, 0, len(values))
	for i, v := range values {
		it, err := Read(v.GetStructValue()).Item()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, it)
	}
	return out, nil
}
