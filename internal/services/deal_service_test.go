// internal/services/deal_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/policy"
)

func newTestService(opts policy.Options) *DealService {
	return NewDealService(nil, policy.NewEngine(opts))
}

func TestIsUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "idx_deals_purchase_link"}

	got, ok := isUniqueViolation(fmt.Errorf("insert failed: %w", pqErr))
	assert.True(t, ok)
	assert.Equal(t, pqErr, got)

	_, ok = isUniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)

	_, ok = isUniqueViolation(errors.New("plain error"))
	assert.False(t, ok)
}

func TestTranslateCommitError(t *testing.T) {
	svc := newTestService(policy.Options{})
	links := []string{"https://shop.example.com/a"}
	descs := []string{"Half-price blender"}

	t.Run("purchase link constraint maps to link duplicates", func(t *testing.T) {
		err := svc.translateCommitError(
			&pq.Error{Code: "23505", Constraint: "idx_deals_purchase_link"},
			links, descs,
		)

		var dupErr *DuplicateError
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, links, dupErr.Duplicates.PurchaseLinks)
		assert.Empty(t, dupErr.Duplicates.ShortDescriptions)
	})

	t.Run("short description constraint maps to description duplicates", func(t *testing.T) {
		err := svc.translateCommitError(
			&pq.Error{Code: "23505", Constraint: "uniq_deals_short_description_ci"},
			links, descs,
		)

		var dupErr *DuplicateError
		assert.ErrorAs(t, err, &dupErr)
		assert.Empty(t, dupErr.Duplicates.PurchaseLinks)
		assert.Equal(t, descs, dupErr.Duplicates.ShortDescriptions)
	})

	t.Run("duplicate error passes through unchanged", func(t *testing.T) {
		original := &DuplicateError{Message: "dup"}
		err := svc.translateCommitError(original, links, descs)
		assert.Same(t, original, err.(*DuplicateError))
	})

	t.Run("validation error passes through unchanged", func(t *testing.T) {
		original := &BatchValidationError{}
		err := svc.translateCommitError(original, links, descs)
		assert.Same(t, original, err.(*BatchValidationError))
	})

	t.Run("other errors get wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := svc.translateCommitError(cause, links, descs)
		assert.ErrorIs(t, err, cause)

		var dupErr *DuplicateError
		assert.False(t, errors.As(err, &dupErr))
	})
}

func TestToDraftCarriesAllFields(t *testing.T) {
	svc := newTestService(policy.Options{})
	hours := 12.0

	in := DealDraftInput{
		Picture:              "https://cdn.example.com/p.jpg",
		DealTypes:            []string{"online"},
		StoreID:              uuid.NewString(),
		ExpireAt:             "2026-12-31",
		ShortDescription:     "Cordless drill 40% off",
		OriginalPrice:        199,
		DiscountPrice:        119,
		PurchaseLink:         "https://shop.example.com/drill",
		Description:          "Solid deal on a drill.",
		Tags:                 []string{"tools"},
		FlashDeal:            true,
		FlashDealExpireHours: &hours,
		Coupon:               true,
		Coupons:              []CouponInput{{Code: "DRILL40", Comment: "stacks"}},
		Clearance:            true,
		DisableExpireAt:      true,
		HotTrend:             true,
		HolidayDeals:         true,
		SeasonalDeals:        true,
	}

	d := svc.toDraft(in, "3")

	assert.Equal(t, "3", d.ID)
	assert.Equal(t, in.Picture, d.Picture)
	assert.Equal(t, in.DealTypes, d.DealTypes)
	assert.Equal(t, in.StoreID, d.StoreID)
	assert.Equal(t, in.ExpireAt, d.ExpireAtInput)
	assert.Equal(t, in.ShortDescription, d.ShortDescription)
	assert.Equal(t, in.OriginalPrice, d.OriginalPrice)
	assert.Equal(t, in.DiscountPrice, d.DiscountPrice)
	assert.Equal(t, in.PurchaseLink, d.PurchaseLink)
	assert.Equal(t, in.Description, d.Description)
	assert.Equal(t, in.Tags, d.Tags)
	assert.True(t, d.FlashDeal)
	assert.Equal(t, &hours, d.FlashDealExpireHours)
	assert.True(t, d.Coupon)
	assert.Equal(t, []policy.CouponDraft{{Code: "DRILL40", Comment: "stacks"}}, d.Coupons)
	assert.True(t, d.Clearance)
	assert.True(t, d.DisableExpireAt)
	assert.True(t, d.HotTrend)
	assert.True(t, d.HolidayDeals)
	assert.True(t, d.SeasonalDeals)
}

func TestUpdateRequestHasChanges(t *testing.T) {
	empty := &UpdateDealRequest{}
	assert.False(t, empty.hasChanges())

	pic := "https://cdn.example.com/new.jpg"
	assert.True(t, (&UpdateDealRequest{Picture: &pic}).hasChanges())

	flash := false
	assert.True(t, (&UpdateDealRequest{FlashDeal: &flash}).hasChanges())

	noCoupons := []CouponInput{}
	assert.True(t, (&UpdateDealRequest{Coupons: &noCoupons}).hasChanges())
}

func TestMergeDraftOverlaysOnlyProvidedFields(t *testing.T) {
	svc := newTestService(policy.Options{})

	expireAt := time.Date(2026, 10, 1, 23, 59, 59, 0, time.UTC)
	deal := &models.Deal{
		AuthorID:         uuid.New(),
		StoreID:          uuid.New(),
		Picture:          "https://cdn.example.com/old.jpg",
		DealTypes:        pq.StringArray{"online"},
		ShortDescription: "Old headline",
		OriginalPrice:    100,
		DiscountPrice:    60,
		PurchaseLink:     "https://shop.example.com/old",
		Description:      "Old body",
		ExpireAt:         &expireAt,
	}

	newPrice := 50.0
	req := &UpdateDealRequest{DiscountPrice: &newPrice}

	merged := svc.mergeDraft(deal, req)

	assert.Equal(t, newPrice, merged.DiscountPrice)
	assert.Equal(t, deal.OriginalPrice, merged.OriginalPrice)
	assert.Equal(t, deal.ShortDescription, merged.ShortDescription)
	assert.Equal(t, deal.PurchaseLink, merged.PurchaseLink)
	assert.Equal(t, deal.StoreID.String(), merged.StoreID)
	assert.Equal(t, expireAt.Format(time.RFC3339), merged.ExpireAtInput)
}

func TestMergeDraftReplacesFlags(t *testing.T) {
	svc := newTestService(policy.Options{})

	deal := &models.Deal{FlashDeal: true}
	off := false
	merged := svc.mergeDraft(deal, &UpdateDealRequest{FlashDeal: &off})
	assert.False(t, merged.FlashDeal)
}

func TestEngineBlocksRespectsAdvisoryDealType(t *testing.T) {
	advisory := newTestService(policy.Options{DealTypeBlocking: false})
	blocking := newTestService(policy.Options{DealTypeBlocking: true})

	dealTypeOnly := policy.FieldErrors{
		policy.FieldDealType: "At least one deal type is required",
	}
	assert.False(t, advisory.engineBlocks(dealTypeOnly))
	assert.True(t, blocking.engineBlocks(dealTypeOnly))

	withOther := policy.FieldErrors{
		policy.FieldDealType: "At least one deal type is required",
		policy.FieldPicture:  "Picture is required",
	}
	assert.True(t, advisory.engineBlocks(withOther))
	assert.True(t, blocking.engineBlocks(withOther))

	assert.False(t, advisory.engineBlocks(policy.FieldErrors{}))
}
