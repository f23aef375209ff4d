package likes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/motorplace/internal/errors"
)

// StatusActive is the only snapshot status that list and search return.
const StatusActive = "active"

// ItemData is the denormalized snapshot stored alongside a like. Each item type
// has its own variant; ItemType tells them apart.
type ItemData interface {
	ItemType() ItemType
	Summary() Summary
}

// Summary is the subset of a snapshot used for indexing and rendering lists.
type Summary struct {
	Title       string
	Description string
	Make        string
	Model       string
	Status      string
}

// SearchText is the lowercased haystack that search matches against.
func (s Summary) SearchText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.Title, s.Description, s.Make, s.Model} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// ProductData snapshots a vehicle, part or accessory listing.
type ProductData struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description,omitempty" validate:"max=4000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Image       string  `json:"image,omitempty" validate:"max=2048"`
	Category    string  `json:"category,omitempty" validate:"max=128"`
	Make        string  `json:"make,omitempty" validate:"max=64"`
	Model       string  `json:"model,omitempty" validate:"max=64"`
	Year        int     `json:"year,omitempty" validate:"omitempty,gte=1886,lte=2100"`
	Rating      float64 `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Status      string  `json:"status" validate:"max=32"`
}

func (ProductData) ItemType() ItemType { return ItemTypeProduct }

func (d ProductData) Summary() Summary {
	return Summary{Title: d.Title, Description: d.Description, Make: d.Make, Model: d.Model, Status: d.Status}
}

// ServiceData snapshots a partner service offer (detailing, repair, inspection).
type ServiceData struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description,omitempty" validate:"max=4000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image,omitempty" validate:"max=2048"`
	Category    string  `json:"category,omitempty" validate:"max=128"`
	Provider    string  `json:"provider,omitempty" validate:"max=255"`
	Rating      float64 `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Status      string  `json:"status" validate:"max=32"`
}

func (ServiceData) ItemType() ItemType { return ItemTypeService }

func (d ServiceData) Summary() Summary {
	return Summary{Title: d.Title, Description: d.Description, Status: d.Status}
}

// PostData snapshots a community post.
type PostData struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Image       string `json:"image,omitempty" validate:"max=2048"`
	Author      string `json:"author,omitempty" validate:"max=255"`
	Status      string `json:"status" validate:"max=32"`
}

func (PostData) ItemType() ItemType { return ItemTypePost }

func (d PostData) Summary() Summary {
	return Summary{Title: d.Title, Description: d.Description, Status: d.Status}
}

// StoreData snapshots a partner storefront; Title holds the store name.
type StoreData struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description,omitempty" validate:"max=4000"`
	Image       string  `json:"image,omitempty" validate:"max=2048"`
	Location    string  `json:"location,omitempty" validate:"max=255"`
	Rating      float64 `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Status      string  `json:"status" validate:"max=32"`
}

func (StoreData) ItemType() ItemType { return ItemTypeStore }

func (d StoreData) Summary() Summary {
	return Summary{Title: d.Title, Description: d.Description, Status: d.Status}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateItemData checks that data is a well-formed snapshot for key's type.
func ValidateItemData(t ItemType, data ItemData) error {
	if data == nil {
		return svcErr.InvalidArgument("item snapshot is required")
	}
	if data.ItemType() != t {
		return svcErr.InvalidArgument(fmt.Sprintf("snapshot of type %q given for a %q", data.ItemType(), t))
	}
	if err := itemValidator().Struct(data); err != nil {
		return svcErr.InvalidArgumentf("invalid item snapshot", err)
	}
	return nil
}

// NormalizeItemData fills defaults captured at like time: a snapshot without
// a status is considered active.
func NormalizeItemData(data ItemData) ItemData {
	switch d := data.(type) {
	case ProductData:
		d.Status = normalizeStatus(d.Status)
		d.Currency = strings.ToUpper(d.Currency)
		return d
	case *ProductData:
		return NormalizeItemData(*d)
	case ServiceData:
		d.Status = normalizeStatus(d.Status)
		return d
	case *ServiceData:
		return NormalizeItemData(*d)
	case PostData:
		d.Status = normalizeStatus(d.Status)
		return d
	case *PostData:
		return NormalizeItemData(*d)
	case StoreData:
		d.Status = normalizeStatus(d.Status)
		return d
	case *StoreData:
		return NormalizeItemData(*d)
	}
	return data
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusActive
	}
	return s
}

// EncodeItemData serializes a snapshot for storage or the wire.
func EncodeItemData(data ItemData) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item data: %w", err)
	}
	return b, nil
}

// DecodeItemData picks the variant for t and decodes raw into it.
func DecodeItemData(t ItemType, raw []byte) (ItemData, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		data ItemData
		err  error
	)
	switch t {
	case ItemTypeProduct:
		var d ProductData
		err = json.Unmarshal(raw, &d)
		data = d
	case ItemTypeService:
		var d ServiceData
		err = json.Unmarshal(raw, &d)
		data = d
	case ItemTypePost:
		var d PostData
		err = json.Unmarshal(raw, &d)
		data = d
	case ItemTypeStore:
		var d StoreData
		err = json.Unmarshal(raw, &d)
		data = d
	default:
		return nil, svcErr.InvalidArgument(fmt.Sprintf("unknown item type %q", t))
	}
	if err != nil {
		return nil, svcErr.InvalidArgumentf("malformed item snapshot", err)
	}
	return data, nil
}
