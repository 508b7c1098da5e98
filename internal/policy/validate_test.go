// internal/policy/validate_test.go
package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft(id string) Draft {
	return Draft{
		ID:               id,
		Picture:          "https://cdn.example.com/pic-" + id + ".jpg",
		DealTypes:        []string{"electronics"},
		StoreID:          "f2a1c9d4-0000-0000-0000-000000000001",
		ExpireAtInput:    "2099-12-31",
		ShortDescription: "50% off widget " + id,
		OriginalPrice:    100,
		DiscountPrice:    50,
		PurchaseLink:     "https://shop.example.com/widget-" + id,
		Description:      "<p>A very good widget.</p>",
	}
}

func TestValidateDraftValid(t *testing.T) {
	e := NewEngine(Options{})
	errs := e.ValidateDraft(validDraft("1"), DraftDupState{}, time.Now())
	assert.Empty(t, errs)
}

func TestValidateDraftCollectsAllErrors(t *testing.T) {
	e := NewEngine(Options{})
	errs := e.ValidateDraft(Draft{ID: "1"}, DraftDupState{}, time.Now())

	// No short-circuiting: every applicable rule reports.
	for _, field := range []string{
		FieldPicture, FieldDealType, FieldStore, FieldExpireAt,
		FieldShortDescription, FieldOriginalPrice, FieldPurchaseLink,
		FieldDescription,
	} {
		assert.Contains(t, errs, field)
	}
}

func TestValidateDraftDiscountRules(t *testing.T) {
	e := NewEngine(Options{})
	now := time.Now()

	d := validDraft("1")
	d.DiscountPrice = 0
	assert.Empty(t, e.ValidateDraft(d, DraftDupState{}, now), "zero discount means no discount display")

	d.DiscountPrice = d.OriginalPrice
	errs := e.ValidateDraft(d, DraftDupState{}, now)
	assert.Equal(t, "Discount Price must be less than Original Price", errs[FieldDiscountPrice])

	d.DiscountPrice = d.OriginalPrice + 10
	errs = e.ValidateDraft(d, DraftDupState{}, now)
	assert.Contains(t, errs, FieldDiscountPrice)

	d.DiscountPrice = -1
	errs = e.ValidateDraft(d, DraftDupState{}, now)
	assert.Contains(t, errs, FieldDiscountPrice)
}

func TestValidateDraftPurchaseLink(t *testing.T) {
	e := NewEngine(Options{})
	now := time.Now()

	d := validDraft("1")
	d.PurchaseLink = "shop.example.com/no-scheme"
	assert.Empty(t, e.ValidateDraft(d, DraftDupState{}, now), "implicit https:// prefix")

	d.PurchaseLink = "not a url at all"
	errs := e.ValidateDraft(d, DraftDupState{}, now)
	assert.Equal(t, "Purchase link is not a valid URL", errs[FieldPurchaseLink])
}

func TestValidateDraftDescriptionMarkupOnly(t *testing.T) {
	e := NewEngine(Options{})

	d := validDraft("1")
	d.Description = "<p>&nbsp;</p><br/>"
	errs := e.ValidateDraft(d, DraftDupState{}, time.Now())
	assert.Equal(t, "Description is required", errs[FieldDescription])
}

func TestValidateDraftDuplicateStateSupersedesRequired(t *testing.T) {
	e := NewEngine(Options{})
	now := time.Now()

	d := validDraft("1")
	d.ShortDescription = ""
	d.PurchaseLink = ""

	errs := e.ValidateDraft(d, DraftDupState{
		ShortDescription: DupTaken,
		PurchaseLink:     DupChecking,
	}, now)
	assert.Equal(t, "Short description already exists", errs[FieldShortDescription])
	assert.Equal(t, "Checking purchase link availability", errs[FieldPurchaseLink])
}

func TestValidateBatchIntraBatchCollision(t *testing.T) {
	e := NewEngine(Options{})

	a := validDraft("a")
	b := validDraft("b")
	b.PurchaseLink = a.PurchaseLink

	res := e.ValidateBatch([]Draft{a, b}, nil, time.Now())
	assert.True(t, res.Blocked, "a shared purchase link rejects the whole batch")
	require.Len(t, res.Collisions.PurchaseLinks, 1)
	assert.Equal(t, a.PurchaseLink, res.Collisions.PurchaseLinks[0])
	assert.Empty(t, res.Collisions.ShortDescriptions)
}

func TestValidateBatchShortDescriptionCaseNormalized(t *testing.T) {
	e := NewEngine(Options{})

	a := validDraft("a")
	b := validDraft("b")
	b.ShortDescription = "  " + a.ShortDescription // same after trimming
	c := validDraft("c")

	res := e.ValidateBatch([]Draft{a, b, c}, nil, time.Now())
	assert.True(t, res.Blocked)
	assert.Len(t, res.Collisions.ShortDescriptions, 1)
}

func TestValidateBatchDealTypePolicy(t *testing.T) {
	now := time.Now()
	d := validDraft("1")
	d.DealTypes = nil

	// Advisory: the error is recorded but does not block.
	advisory := NewEngine(Options{DealTypeBlocking: false})
	res := advisory.ValidateBatch([]Draft{d}, nil, now)
	assert.Contains(t, res.Errors["1"], FieldDealType)
	assert.False(t, res.Blocked)

	// Blocking: the same error stops submission.
	blocking := NewEngine(Options{DealTypeBlocking: true})
	res = blocking.ValidateBatch([]Draft{d}, nil, now)
	assert.Contains(t, res.Errors["1"], FieldDealType)
	assert.True(t, res.Blocked)
}

func TestValidateBatchCheckingBlocks(t *testing.T) {
	e := NewEngine(Options{})
	d := validDraft("1")

	res := e.ValidateBatch([]Draft{d}, map[string]DraftDupState{
		"1": {PurchaseLink: DupChecking},
	}, time.Now())
	assert.True(t, res.Blocked, "an in-flight duplicate check is non-submittable")
}

func TestNormalizeShortDescription(t *testing.T) {
	caseInsensitive := NewEngine(Options{ShortDescriptionCaseInsensitive: true})
	assert.Equal(t, "big sale", caseInsensitive.NormalizeShortDescription("  Big Sale "))

	caseSensitive := NewEngine(Options{ShortDescriptionCaseInsensitive: false})
	assert.Equal(t, "Big Sale", caseSensitive.NormalizeShortDescription("  Big Sale "))
}

func TestNormalizePurchaseLink(t *testing.T) {
	got, err := NormalizePurchaseLink("shop.example.com/item?id=1")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/item?id=1", got)

	got, err = NormalizePurchaseLink("http://shop.example.com/item")
	require.NoError(t, err)
	assert.Equal(t, "http://shop.example.com/item", got)

	_, err = NormalizePurchaseLink("nothing")
	assert.Error(t, err)
}
