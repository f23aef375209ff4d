package likes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
)

func TestParseItemType(t *testing.T) {
	got, err := likes.ParseItemType(" Product ")
	require.NoError(t, err)
	assert.Equal(t, likes.ItemTypeProduct, got)

	_, err = likes.ParseItemType("vehicle")
	assert.True(t, svcErr.IsCode(err, svcErr.CodeInvalidArgument))
}

func TestKeyValidate(t *testing.T) {
	assert.NoError(t, likes.Key{Type: likes.ItemTypeService, ID: "s1"}.Validate())
	assert.Error(t, likes.Key{Type: likes.ItemTypeService}.Validate())
	assert.Error(t, likes.Key{Type: "garage", ID: "g1"}.Validate())
	assert.Equal(t, "store:st9", likes.Key{Type: likes.ItemTypeStore, ID: "st9"}.String())
}

func TestSummarySearchText(t *testing.T) {
	s := landCruiser().Summary()
	assert.Equal(t, "2023 toyota land cruiser\none owner, full service history\ntoyota\nland cruiser", s.SearchText())

	// services carry no make/model
	svc := likes.ServiceData{Title: "Brake Service", Description: "Pads and rotors"}.Summary()
	assert.Equal(t, "brake service\npads and rotors", svc.SearchText())
}

func TestNormalizeItemData(t *testing.T) {
	data := landCruiser()
	got := likes.NormalizeItemData(&data)

	p, ok := got.(likes.ProductData)
	require.True(t, ok)
	assert.Equal(t, likes.StatusActive, p.Status)
	assert.Equal(t, "USD", p.Currency)

	post := likes.NormalizeItemData(likes.PostData{Title: "Track day", Status: " Archived "})
	assert.Equal(t, "archived", post.Summary().Status)
}

func TestValidateItemData(t *testing.T) {
	assert.NoError(t, likes.ValidateItemData(likes.ItemTypeProduct, landCruiser()))

	bad := landCruiser()
	bad.Year = 1700
	assert.True(t, svcErr.IsCode(likes.ValidateItemData(likes.ItemTypeProduct, bad), svcErr.CodeInvalidArgument))

	bad = landCruiser()
	bad.Rating = 7
	assert.Error(t, likes.ValidateItemData(likes.ItemTypeProduct, bad))

	assert.Error(t, likes.ValidateItemData(likes.ItemTypeStore, likes.PostData{Title: "x"}))
	assert.Error(t, likes.ValidateItemData(likes.ItemTypeStore, nil))
}

func TestItemDataEncodeDecode(t *testing.T) {
	in := likes.StoreData{Title: "Northside Motors", Location: "Leeds", Rating: 4.5, Status: "active"}
	raw, err := likes.EncodeItemData(in)
	require.NoError(t, err)

	out, err := likes.DecodeItemData(likes.ItemTypeStore, raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = likes.DecodeItemData("boat", raw)
	assert.Error(t, err)

	_, err = likes.DecodeItemData(likes.ItemTypeStore, []byte("{not json"))
	assert.True(t, svcErr.IsCode(err, svcErr.CodeInvalidArgument))

	empty, err := likes.DecodeItemData(likes.ItemTypePost, nil)
	require.NoError(t, err)
	assert.Equal(t, likes.PostData{}, empty)
}
