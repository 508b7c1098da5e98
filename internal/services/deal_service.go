// internal/services/deal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/policy"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

type DealService struct {
	db     *gorm.DB
	engine *policy.Engine
}

func NewDealService(db *gorm.DB, engine *policy.Engine) *DealService {
	return &DealService{
		db:     db,
		engine: engine,
	}
}

type CouponInput struct {
	Code    string `json:"code" validate:"required,coupon_code"`
	Comment string `json:"comment"`
}

// DealDraftInput is one submitted draft. Derived fields (percentage off,
// resolved expire_at) are intentionally absent: the server recomputes
// them from raw flags and never trusts client-held state.
type DealDraftInput struct {
	Picture              string        `json:"picture"`
	DealTypes            []string      `json:"deal_types"`
	StoreID              string        `json:"store_id"`
	ExpireAt             string        `json:"expire_at"`
	ShortDescription     string        `json:"short_description"`
	OriginalPrice        float64       `json:"original_price"`
	DiscountPrice        float64       `json:"discount_price"`
	PurchaseLink         string        `json:"purchase_link"`
	Description          string        `json:"description"`
	Tags                 []string      `json:"tags"`
	FlashDeal            bool          `json:"flash_deal"`
	FlashDealExpireHours *float64      `json:"flash_deal_expire_hours"`
	Coupon               bool          `json:"coupon"`
	Coupons              []CouponInput `json:"coupons" validate:"omitempty,dive"`
	Clearance            bool          `json:"clearance"`
	DisableExpireAt      bool          `json:"disable_expire_at"`
	HotTrend             bool          `json:"hot_trend"`
	HolidayDeals         bool          `json:"holiday_deals"`
	SeasonalDeals        bool          `json:"seasonal_deals"`
}

// UpdateDealRequest is a partial update; nil pointers mean "unchanged".
// A nil Coupons leaves the existing set untouched; an empty non-nil slice
// removes all coupons.
type UpdateDealRequest struct {
	Picture              *string            `json:"picture"`
	DealTypes            []string           `json:"deal_types"`
	StoreID              *string            `json:"store_id"`
	ExpireAt             *string            `json:"expire_at"`
	ShortDescription     *string            `json:"short_description"`
	OriginalPrice        *float64           `json:"original_price"`
	DiscountPrice        *float64           `json:"discount_price"`
	PurchaseLink         *string            `json:"purchase_link"`
	Description          *string            `json:"description"`
	Tags                 []string           `json:"tags"`
	FlashDeal            *bool              `json:"flash_deal"`
	FlashDealExpireHours *float64           `json:"flash_deal_expire_hours"`
	Coupon               *bool              `json:"coupon"`
	Coupons              *[]CouponInput     `json:"coupons"`
	Clearance            *bool              `json:"clearance"`
	DisableExpireAt      *bool              `json:"disable_expire_at"`
	HotTrend             *bool              `json:"hot_trend"`
	HolidayDeals         *bool              `json:"holiday_deals"`
	SeasonalDeals        *bool              `json:"seasonal_deals"`
	Status               *models.DealStatus `json:"status"`
}

func (r *UpdateDealRequest) hasChanges() bool {
	return r.Picture != nil || r.DealTypes != nil || r.StoreID != nil ||
		r.ExpireAt != nil || r.ShortDescription != nil || r.OriginalPrice != nil ||
		r.DiscountPrice != nil || r.PurchaseLink != nil || r.Description != nil ||
		r.Tags != nil || r.FlashDeal != nil || r.FlashDealExpireHours != nil ||
		r.Coupon != nil || r.Coupons != nil || r.Clearance != nil ||
		r.DisableExpireAt != nil || r.HotTrend != nil || r.HolidayDeals != nil ||
		r.SeasonalDeals != nil || r.Status != nil
}

type DealSearchParams struct {
	utils.PaginationParams
	StoreID       *uuid.UUID         `json:"store_id,omitempty"`
	AuthorID      *uuid.UUID         `json:"author_id,omitempty"`
	Status        *models.DealStatus `json:"status,omitempty"`
	AnyStatus     bool               `json:"any_status,omitempty"`
	DealType      string             `json:"deal_type,omitempty"`
	Tag           string             `json:"tag,omitempty"`
	FlashOnly     bool               `json:"flash_only,omitempty"`
	HotTrend      bool               `json:"hot_trend,omitempty"`
	HolidayDeals  bool               `json:"holiday_deals,omitempty"`
	SeasonalDeals bool               `json:"seasonal_deals,omitempty"`
	IncludeDead   bool               `json:"include_dead,omitempty"`
}

// BatchCreateDeals is the authoritative commit path: it re-runs the full
// rule engine against the raw drafts, then persists every deal and its
// coupons inside one transaction. The batch either commits entirely or is
// rejected entirely.
func (s *DealService) BatchCreateDeals(authorID uuid.UUID, inputs []DealDraftInput) ([]models.Deal, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	for i := range inputs {
		if err := utils.ValidateStruct(&inputs[i]); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	drafts := make([]policy.Draft, len(inputs))
	for i, in := range inputs {
		drafts[i] = s.toDraft(in, strconv.Itoa(i))
	}

	now := time.Now().UTC()

	// Intra-batch collisions reject the whole batch before any storage
	// lookup happens.
	if collisions := s.engine.BatchCollisions(drafts); !collisions.Empty() {
		return nil, &DuplicateError{
			Message:    "duplicate purchase links or short descriptions within the batch",
			Duplicates: collisions,
		}
	}

	// Per-draft rules, all errors collected.
	result := s.engine.ValidateBatch(drafts, nil, now)
	if result.Blocked {
		return nil, &BatchValidationError{Errors: result.Errors}
	}

	// One lookup for all uniqueness-bearing values against persisted
	// deals. This is a fast-path hint; the unique indexes are the true
	// guard.
	links := make([]string, 0, len(drafts))
	descs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		link, _ := policy.NormalizePurchaseLink(d.PurchaseLink)
		links = append(links, link)
		descs = append(descs, d.ShortDescription)
	}
	conflicts, err := s.FindConflicts(links, descs, nil)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	if !conflicts.Empty() {
		return nil, &DuplicateError{
			Message:    "deals with the same purchase link or short description already exist",
			Duplicates: *conflicts,
		}
	}

	deals := make([]models.Deal, 0, len(drafts))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, d := range drafts {
			exp, ferr := policy.ResolveExpiration(d.ExpirationInput(), now)
			if ferr != nil {
				// Already caught by ValidateBatch; kept as a guard.
				return &BatchValidationError{Errors: map[string]policy.FieldErrors{
					d.ID: {ferr.Field: ferr.Message},
				}}
			}

			deal, err := s.buildDeal(tx, authorID, inputs[i], d, exp)
			if err != nil {
				return err
			}

			// Coupons ride the same insert; gorm persists the children
			// inside this transaction, so a failure after the coupon
			// rows never leaves orphans.
			if err := tx.Create(deal).Error; err != nil {
				return err
			}
			deals = append(deals, *deal)
		}
		return nil
	})

	if err != nil {
		return nil, s.translateCommitError(err, links, descs)
	}

	logrus.WithFields(logrus.Fields{
		"author_id": authorID,
		"count":     len(deals),
	}).Info("Deal batch committed")

	return deals, nil
}

// UpdateDeal applies a partial update. The duplicate check excludes the
// record being updated, and an unchanged flash-deal duration does not
// restart the countdown.
func (s *DealService) UpdateDeal(id uuid.UUID, userID uuid.UUID, isAdmin bool, req *UpdateDealRequest) (*models.Deal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.hasChanges() {
		return nil, ErrEmptyUpdate
	}

	var deal models.Deal
	if err := s.db.Preload("Coupons").First(&deal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !isAdmin && deal.AuthorID != userID {
		return nil, ErrNotDealOwner
	}

	merged := s.mergeDraft(&deal, req)
	now := time.Now().UTC()

	if fieldErrs := s.engine.ValidateDraft(merged, policy.DraftDupState{}, now); s.engineBlocks(fieldErrs) {
		return nil, &BatchValidationError{Errors: map[string]policy.FieldErrors{
			deal.ID.String(): fieldErrs,
		}}
	}

	// Only re-check uniqueness for values that actually changed.
	var links, descs []string
	normalizedLink, _ := policy.NormalizePurchaseLink(merged.PurchaseLink)
	if normalizedLink != deal.PurchaseLink {
		links = append(links, normalizedLink)
	}
	if s.engine.NormalizeShortDescription(merged.ShortDescription) != s.engine.NormalizeShortDescription(deal.ShortDescription) {
		descs = append(descs, merged.ShortDescription)
	}
	if len(links) > 0 || len(descs) > 0 {
		conflicts, err := s.FindConflicts(links, descs, &deal.ID)
		if err != nil {
			return nil, fmt.Errorf("duplicate lookup failed: %w", err)
		}
		if !conflicts.Empty() {
			return nil, &DuplicateError{
				Message:    "a deal with the same purchase link or short description already exists",
				Duplicates: *conflicts,
			}
		}
	}

	prior := policy.PriorExpiration{
		FlashDeal:            deal.FlashDeal,
		FlashDealExpireHours: deal.FlashDealExpireHours,
		ExpireAt:             deal.ExpireAt,
	}
	exp, ferr := policy.ResolveExpirationForUpdate(merged.ExpirationInput(), prior, now)
	if ferr != nil {
		return nil, &BatchValidationError{Errors: map[string]policy.FieldErrors{
			deal.ID.String(): {ferr.Field: ferr.Message},
		}}
	}

	updates := s.buildUpdates(&deal, req, merged, exp, isAdmin)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&deal).Updates(updates).Error; err != nil {
			return err
		}
		if req.Coupons != nil {
			if err := s.replaceCoupons(tx, deal.ID, *req.Coupons); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.translateCommitError(err, links, descs)
	}

	// Reload with relationships
	if err := s.db.Preload("Store").Preload("Coupons").First(&deal, id).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &deal, nil
}

// FindConflicts performs the single round-trip lookup behind both the
// batch pre-check and the dashboard's debounced duplicate probe.
func (s *DealService) FindConflicts(links, descs []string, excludeID *uuid.UUID) (*policy.CollisionReport, error) {
	report := &policy.CollisionReport{}
	if len(links) == 0 && len(descs) == 0 {
		return report, nil
	}

	query := s.db.Model(&models.Deal{})
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var matched []models.Deal
	cond := s.db
	if len(links) > 0 {
		cond = cond.Where("purchase_link IN ?", links)
	}
	if len(descs) > 0 {
		if s.engine.Options().ShortDescriptionCaseInsensitive {
			lowered := make([]string, len(descs))
			for i, d := range descs {
				lowered[i] = strings.ToLower(strings.TrimSpace(d))
			}
			cond = cond.Or("LOWER(short_description) IN ?", lowered)
		} else {
			cond = cond.Or("short_description IN ?", descs)
		}
	}
	if err := query.Where(cond).Find(&matched).Error; err != nil {
		return nil, err
	}

	for _, deal := range matched {
		for _, link := range links {
			if deal.PurchaseLink == link {
				report.PurchaseLinks = append(report.PurchaseLinks, link)
			}
		}
		for _, desc := range descs {
			if s.engine.NormalizeShortDescription(deal.ShortDescription) == s.engine.NormalizeShortDescription(desc) {
				report.ShortDescriptions = append(report.ShortDescriptions, desc)
			}
		}
	}
	return report, nil
}

// CheckAvailability satisfies policy.LookupFunc so a Detector can probe
// this service directly; it also backs the check-duplicates endpoint.
func (s *DealService) CheckAvailability(_ context.Context, purchaseLink, shortDescription string) (policy.LookupResult, error) {
	return s.CheckAvailabilityExcluding(purchaseLink, shortDescription, nil)
}

func (s *DealService) CheckAvailabilityExcluding(purchaseLink, shortDescription string, excludeID *uuid.UUID) (policy.LookupResult, error) {
	var links, descs []string
	if strings.TrimSpace(purchaseLink) != "" {
		if normalized, err := policy.NormalizePurchaseLink(purchaseLink); err == nil {
			links = append(links, normalized)
		}
	}
	if strings.TrimSpace(shortDescription) != "" {
		descs = append(descs, shortDescription)
	}

	report, err := s.FindConflicts(links, descs, excludeID)
	if err != nil {
		return policy.LookupResult{}, err
	}
	return policy.LookupResult{
		PurchaseLinkTaken:     len(report.PurchaseLinks) > 0,
		ShortDescriptionTaken: len(report.ShortDescriptions) > 0,
	}, nil
}

func (s *DealService) GetDeal(idOrSlug string) (*models.Deal, error) {
	var deal models.Deal
	query := s.db.Preload("Store").Preload("Coupons").Preload("Author")

	if id, err := uuid.Parse(idOrSlug); err == nil {
		err = query.First(&deal, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return &deal, err
	}

	err := query.Where("slug = ?", idOrSlug).First(&deal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	return &deal, err
}

func (s *DealService) SearchDeals(params DealSearchParams) ([]models.Deal, int64, error) {
	query := s.db.Model(&models.Deal{}).Preload("Store").Preload("Coupons")

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	} else if !params.AnyStatus {
		query = query.Where("status = ?", models.DealStatusPublished)
	}

	if !params.IncludeDead {
		query = query.Where("expire_at IS NULL OR expire_at > ?", time.Now().UTC())
	}

	if params.StoreID != nil {
		query = query.Where("store_id = ?", *params.StoreID)
	}
	if params.AuthorID != nil {
		query = query.Where("author_id = ?", *params.AuthorID)
	}
	if params.DealType != "" {
		query = query.Where("? = ANY(deal_types)", params.DealType)
	}
	if params.Tag != "" {
		query = query.Where("? = ANY(tags)", params.Tag)
	}
	if params.FlashOnly {
		query = query.Where("flash_deal = ?", true)
	}
	if params.HotTrend {
		query = query.Where("hot_trend = ?", true)
	}
	if params.HolidayDeals {
		query = query.Where("holiday_deals = ?", true)
	}
	if params.SeasonalDeals {
		query = query.Where("seasonal_deals = ?", true)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(short_description) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "expire_at", "original_price", "discount_price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var deals []models.Deal
	if err := query.Find(&deals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deals: %w", err)
	}
	return deals, total, nil
}

func (s *DealService) DeleteDeal(id uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	var deal models.Deal
	if err := s.db.First(&deal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDealNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !isAdmin && deal.AuthorID != userID {
		return ErrNotDealOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&models.Coupon{}).Error; err != nil {
			return err
		}
		return tx.Delete(&deal).Error
	})
}

// SetDealStatus is the moderation action: pending deals become published
// or rejected.
func (s *DealService) SetDealStatus(id uuid.UUID, status models.DealStatus) (*models.Deal, error) {
	var deal models.Deal
	if err := s.db.First(&deal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&deal).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update deal status: %w", err)
	}
	return &deal, nil
}

func (s *DealService) GetDashboardStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	for _, status := range []models.DealStatus{models.DealStatusPending, models.DealStatusPublished, models.DealStatusRejected} {
		var count int64
		if err := s.db.Model(&models.Deal{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count deals: %w", err)
		}
		stats[string(status)+"_deals"] = count
	}

	var flashCount int64
	s.db.Model(&models.Deal{}).
		Where("flash_deal = ? AND status = ? AND expire_at > ?", true, models.DealStatusPublished, time.Now().UTC()).
		Count(&flashCount)
	stats["live_flash_deals"] = flashCount

	var couponCount int64
	s.db.Model(&models.Coupon{}).Count(&couponCount)
	stats["coupons"] = couponCount

	return stats, nil
}

// Helper methods

func (s *DealService) toDraft(in DealDraftInput, id string) policy.Draft {
	coupons := make([]policy.CouponDraft, len(in.Coupons))
	for i, c := range in.Coupons {
		coupons[i] = policy.CouponDraft{Code: c.Code, Comment: c.Comment}
	}
	return policy.Draft{
		ID:                   id,
		Picture:              in.Picture,
		DealTypes:            in.DealTypes,
		StoreID:              in.StoreID,
		ExpireAtInput:        in.ExpireAt,
		ShortDescription:     in.ShortDescription,
		OriginalPrice:        in.OriginalPrice,
		DiscountPrice:        in.DiscountPrice,
		PurchaseLink:         in.PurchaseLink,
		Description:          in.Description,
		Tags:                 in.Tags,
		FlashDeal:            in.FlashDeal,
		FlashDealExpireHours: in.FlashDealExpireHours,
		Coupon:               in.Coupon,
		Coupons:              coupons,
		Clearance:            in.Clearance,
		DisableExpireAt:      in.DisableExpireAt,
		HotTrend:             in.HotTrend,
		HolidayDeals:         in.HolidayDeals,
		SeasonalDeals:        in.SeasonalDeals,
	}
}

func (s *DealService) buildDeal(tx *gorm.DB, authorID uuid.UUID, in DealDraftInput, d policy.Draft, exp policy.Expiration) (*models.Deal, error) {
	storeID, err := uuid.Parse(d.StoreID)
	if err != nil {
		return nil, &BatchValidationError{Errors: map[string]policy.FieldErrors{
			d.ID: {policy.FieldStore: "Store is invalid"},
		}}
	}

	var store models.Store
	if err := tx.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BatchValidationError{Errors: map[string]policy.FieldErrors{
				d.ID: {policy.FieldStore: "Store does not exist"},
			}}
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	link, err := policy.NormalizePurchaseLink(d.PurchaseLink)
	if err != nil {
		return nil, &BatchValidationError{Errors: map[string]policy.FieldErrors{
			d.ID: {policy.FieldPurchaseLink: "Purchase link is not a valid URL"},
		}}
	}

	pct, _ := policy.DerivePercentageOff(d.OriginalPrice, d.DiscountPrice)

	slug, err := s.uniqueSlug(tx, d.ShortDescription)
	if err != nil {
		return nil, err
	}

	deal := &models.Deal{
		AuthorID:             authorID,
		StoreID:              storeID,
		Slug:                 slug,
		Picture:              d.Picture,
		DealTypes:            d.DealTypes,
		ShortDescription:     strings.TrimSpace(d.ShortDescription),
		OriginalPrice:        d.OriginalPrice,
		DiscountPrice:        d.DiscountPrice,
		PercentageOff:        pct,
		PurchaseLink:         link,
		Description:          d.Description,
		Tags:                 d.Tags,
		FlashDeal:            d.FlashDeal,
		FlashDealExpireHours: d.FlashDealExpireHours,
		Coupon:               d.Coupon,
		Clearance:            d.Clearance,
		DisableExpireAt:      d.DisableExpireAt,
		HotTrend:             d.HotTrend,
		HolidayDeals:         d.HolidayDeals,
		SeasonalDeals:        d.SeasonalDeals,
		ExpireAt:             exp.ExpireAt,
		Status:               models.DealStatusPending,
	}

	if exp.Mode != policy.ModeFlash {
		deal.FlashDealExpireHours = nil
	}

	for _, c := range in.Coupons {
		deal.Coupons = append(deal.Coupons, models.Coupon{Code: c.Code, Comment: c.Comment})
	}

	return deal, nil
}

// mergeDraft overlays the patch onto the stored deal so the whole merged
// record passes through the same rule engine as a fresh draft.
func (s *DealService) mergeDraft(deal *models.Deal, req *UpdateDealRequest) policy.Draft {
	d := policy.Draft{
		ID:                   deal.ID.String(),
		Picture:              deal.Picture,
		DealTypes:            deal.DealTypes,
		StoreID:              deal.StoreID.String(),
		ShortDescription:     deal.ShortDescription,
		OriginalPrice:        deal.OriginalPrice,
		DiscountPrice:        deal.DiscountPrice,
		PurchaseLink:         deal.PurchaseLink,
		Description:          deal.Description,
		Tags:                 deal.Tags,
		FlashDeal:            deal.FlashDeal,
		FlashDealExpireHours: deal.FlashDealExpireHours,
		Coupon:               deal.Coupon,
		Clearance:            deal.Clearance,
		DisableExpireAt:      deal.DisableExpireAt,
		HotTrend:             deal.HotTrend,
		HolidayDeals:         deal.HolidayDeals,
		SeasonalDeals:        deal.SeasonalDeals,
	}
	if deal.ExpireAt != nil {
		d.ExpireAtInput = deal.ExpireAt.UTC().Format(time.RFC3339)
	}

	if req.Picture != nil {
		d.Picture = *req.Picture
	}
	if req.DealTypes != nil {
		d.DealTypes = req.DealTypes
	}
	if req.StoreID != nil {
		d.StoreID = *req.StoreID
	}
	if req.ExpireAt != nil {
		d.ExpireAtInput = *req.ExpireAt
	}
	if req.ShortDescription != nil {
		d.ShortDescription = *req.ShortDescription
	}
	if req.OriginalPrice != nil {
		d.OriginalPrice = *req.OriginalPrice
	}
	if req.DiscountPrice != nil {
		d.DiscountPrice = *req.DiscountPrice
	}
	if req.PurchaseLink != nil {
		d.PurchaseLink = *req.PurchaseLink
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Tags != nil {
		d.Tags = req.Tags
	}
	if req.FlashDeal != nil {
		d.FlashDeal = *req.FlashDeal
	}
	if req.FlashDealExpireHours != nil {
		d.FlashDealExpireHours = req.FlashDealExpireHours
	}
	if req.Coupon != nil {
		d.Coupon = *req.Coupon
	}
	if req.Clearance != nil {
		d.Clearance = *req.Clearance
	}
	if req.DisableExpireAt != nil {
		d.DisableExpireAt = *req.DisableExpireAt
	}
	if req.HotTrend != nil {
		d.HotTrend = *req.HotTrend
	}
	if req.HolidayDeals != nil {
		d.HolidayDeals = *req.HolidayDeals
	}
	if req.SeasonalDeals != nil {
		d.SeasonalDeals = *req.SeasonalDeals
	}
	return d
}

func (s *DealService) buildUpdates(deal *models.Deal, req *UpdateDealRequest, merged policy.Draft, exp policy.Expiration, isAdmin bool) map[string]interface{} {
	updates := make(map[string]interface{})

	if req.Picture != nil {
		updates["picture"] = merged.Picture
	}
	if req.DealTypes != nil {
		updates["deal_types"] = pq.StringArray(merged.DealTypes)
	}
	if req.StoreID != nil {
		if storeID, err := uuid.Parse(merged.StoreID); err == nil {
			updates["store_id"] = storeID
		}
	}
	if req.ShortDescription != nil {
		updates["short_description"] = strings.TrimSpace(merged.ShortDescription)
	}
	if req.PurchaseLink != nil {
		if link, err := policy.NormalizePurchaseLink(merged.PurchaseLink); err == nil {
			updates["purchase_link"] = link
		}
	}
	if req.Description != nil {
		updates["description"] = merged.Description
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(merged.Tags)
	}
	if req.OriginalPrice != nil || req.DiscountPrice != nil {
		updates["original_price"] = merged.OriginalPrice
		updates["discount_price"] = merged.DiscountPrice
		if pct, ok := policy.DerivePercentageOff(merged.OriginalPrice, merged.DiscountPrice); ok {
			updates["percentage_off"] = pct
		}
	}

	updates["flash_deal"] = merged.FlashDeal
	updates["coupon"] = merged.Coupon
	updates["clearance"] = merged.Clearance
	updates["disable_expire_at"] = merged.DisableExpireAt
	updates["hot_trend"] = merged.HotTrend
	updates["holiday_deals"] = merged.HolidayDeals
	updates["seasonal_deals"] = merged.SeasonalDeals

	updates["expire_at"] = exp.ExpireAt
	if exp.Mode == policy.ModeFlash {
		updates["flash_deal_expire_hours"] = merged.FlashDealExpireHours
	} else {
		updates["flash_deal_expire_hours"] = nil
	}

	if isAdmin && req.Status != nil {
		updates["status"] = *req.Status
	}

	return updates
}

// replaceCoupons implements delete-then-insert semantics: an empty slice
// means "no coupons", never "leave untouched".
func (s *DealService) replaceCoupons(tx *gorm.DB, dealID uuid.UUID, coupons []CouponInput) error {
	if err := tx.Where("deal_id = ?", dealID).Delete(&models.Coupon{}).Error; err != nil {
		return err
	}
	for _, c := range coupons {
		coupon := models.Coupon{DealID: dealID, Code: c.Code, Comment: c.Comment}
		if err := tx.Create(&coupon).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *DealService) uniqueSlug(tx *gorm.DB, shortDescription string) (string, error) {
	base := utils.Slugify(shortDescription)
	if base == "" {
		base = "deal"
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&models.Deal{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// translateCommitError turns a storage-level unique violation into the
// same duplicate report shape as the pre-check, so two concurrent
// submissions racing past the lookup still surface as duplicates rather
// than internal errors.
func (s *DealService) translateCommitError(err error, links, descs []string) error {
	var dupErr *DuplicateError
	if errors.As(err, &dupErr) {
		return err
	}
	var batchErr *BatchValidationError
	if errors.As(err, &batchErr) {
		return err
	}

	if pqErr, ok := isUniqueViolation(err); ok {
		report := policy.CollisionReport{}
		switch {
		case strings.Contains(pqErr.Constraint, "purchase_link"):
			report.PurchaseLinks = links
		case strings.Contains(pqErr.Constraint, "short_description"):
			report.ShortDescriptions = descs
		default:
			report.PurchaseLinks = links
			report.ShortDescriptions = descs
		}
		return &DuplicateError{
			Message:    "a deal with the same purchase link or short description was just created",
			Duplicates: report,
		}
	}

	return fmt.Errorf("failed to persist deals: %w", err)
}

// engineBlocks applies the same advisory-vs-blocking distinction the
// batch path uses.
func (s *DealService) engineBlocks(errs policy.FieldErrors) bool {
	for field := range errs {
		if field == policy.FieldDealType && !s.engine.Options().DealTypeBlocking {
			continue
		}
		return true
	}
	return false
}
