// internal/policy/validate.go
package policy

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Options control the two rule ambiguities that are deliberately kept
// configurable rather than silently resolved one way.
type Options struct {
	// DealTypeBlocking decides whether an empty deal type list blocks
	// submission or is recorded for display only.
	DealTypeBlocking bool
	// ShortDescriptionCaseInsensitive selects the comparison strategy for
	// short description uniqueness against persisted deals. Intra-batch
	// comparison is always case-normalized.
	ShortDescriptionCaseInsensitive bool
}

type CouponDraft struct {
	Code    string `json:"code"`
	Comment string `json:"comment"`
}

// Draft is one deal submission as the engine sees it: raw field values
// plus raw expiration flags. Derived fields (percentage off, resolved
// expire_at) are never inputs here.
type Draft struct {
	ID                   string
	Picture              string
	DealTypes            []string
	StoreID              string
	ExpireAtInput        string
	ShortDescription     string
	OriginalPrice        float64
	DiscountPrice        float64
	PurchaseLink         string
	Description          string
	Tags                 []string
	FlashDeal            bool
	FlashDealExpireHours *float64
	Coupon               bool
	Coupons              []CouponDraft
	Clearance            bool
	DisableExpireAt      bool
	HotTrend             bool
	HolidayDeals         bool
	SeasonalDeals        bool
}

func (d Draft) ExpirationInput() ExpirationInput {
	return ExpirationInput{
		FlashDeal:            d.FlashDeal,
		FlashDealExpireHours: d.FlashDealExpireHours,
		Coupon:               d.Coupon,
		Clearance:            d.Clearance,
		DisableExpireAt:      d.DisableExpireAt,
		ExpireAtInput:        d.ExpireAtInput,
	}
}

// BatchResult is the outcome of validating a whole batch together.
type BatchResult struct {
	// Errors maps draft ID to its field errors.
	Errors map[string]FieldErrors
	// Collisions lists values shared between two or more drafts.
	Collisions CollisionReport
	// Blocked is true when anything prevents submission: a blocking field
	// error, an in-flight duplicate check, or an intra-batch collision.
	Blocked bool
}

// CollisionReport names the values that collided within one batch or
// against persisted deals.
type CollisionReport struct {
	PurchaseLinks     []string `json:"purchase_link"`
	ShortDescriptions []string `json:"short_description"`
}

func (r CollisionReport) Empty() bool {
	return len(r.PurchaseLinks) == 0 && len(r.ShortDescriptions) == 0
}

// Engine is the single rule module shared by every caller: the dashboard's
// optimistic pre-check and the server's authoritative re-check run the
// same code.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

// ValidateDraft collects every applicable error for one draft. dup carries
// the current duplicate-detector state for the draft; a taken or in-flight
// check supersedes the generic "required" message for that field.
func (e *Engine) ValidateDraft(d Draft, dup DraftDupState, now time.Time) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(d.Picture) == "" {
		errs[FieldPicture] = "Picture is required"
	}

	if len(d.DealTypes) == 0 {
		errs[FieldDealType] = "At least one deal type is required"
	}

	if strings.TrimSpace(d.StoreID) == "" {
		errs[FieldStore] = "Store is required"
	}

	if _, ferr := ResolveExpiration(d.ExpirationInput(), now); ferr != nil {
		errs[ferr.Field] = ferr.Message
	}

	switch dup.ShortDescription {
	case DupTaken:
		errs[FieldShortDescription] = "Short description already exists"
	case DupChecking:
		errs[FieldShortDescription] = "Checking short description availability"
	default:
		if strings.TrimSpace(d.ShortDescription) == "" {
			errs[FieldShortDescription] = "Short description is required"
		}
	}

	if d.OriginalPrice <= 0 {
		errs[FieldOriginalPrice] = "Original Price must be greater than 0"
	}

	if d.DiscountPrice < 0 {
		errs[FieldDiscountPrice] = "Discount Price must be a positive number"
	} else if d.OriginalPrice > 0 && d.DiscountPrice != 0 && d.DiscountPrice >= d.OriginalPrice {
		errs[FieldDiscountPrice] = "Discount Price must be less than Original Price"
	}

	switch dup.PurchaseLink {
	case DupTaken:
		errs[FieldPurchaseLink] = "Purchase link already exists"
	case DupChecking:
		errs[FieldPurchaseLink] = "Checking purchase link availability"
	default:
		if strings.TrimSpace(d.PurchaseLink) == "" {
			errs[FieldPurchaseLink] = "Purchase link is required"
		} else if _, err := NormalizePurchaseLink(d.PurchaseLink); err != nil {
			errs[FieldPurchaseLink] = "Purchase link is not a valid URL"
		}
	}

	if strings.TrimSpace(StripMarkup(d.Description)) == "" {
		errs[FieldDescription] = "Description is required"
	}

	return errs
}

// ValidateBatch validates every draft plus the batch-level collision rule.
// Any collision blocks the whole submission, not just the offending drafts.
func (e *Engine) ValidateBatch(drafts []Draft, dup map[string]DraftDupState, now time.Time) BatchResult {
	res := BatchResult{Errors: make(map[string]FieldErrors)}

	for _, d := range drafts {
		fieldErrs := e.ValidateDraft(d, dup[d.ID], now)
		if len(fieldErrs) == 0 {
			continue
		}
		res.Errors[d.ID] = fieldErrs
		if e.hasBlockingError(fieldErrs) {
			res.Blocked = true
		}
	}

	res.Collisions = e.BatchCollisions(drafts)
	if !res.Collisions.Empty() {
		res.Blocked = true
	}

	return res
}

// BatchCollisions compares all drafts pairwise for a shared purchase link
// or case-normalized short description.
func (e *Engine) BatchCollisions(drafts []Draft) CollisionReport {
	var report CollisionReport

	seenLinks := make(map[string]string, len(drafts))
	seenDescs := make(map[string]string, len(drafts))
	dupLinks := make(map[string]bool)
	dupDescs := make(map[string]bool)

	for _, d := range drafts {
		if link := normalizeForComparison(d.PurchaseLink); link != "" {
			if first, ok := seenLinks[link]; ok && !dupLinks[link] {
				report.PurchaseLinks = append(report.PurchaseLinks, first)
				dupLinks[link] = true
			} else {
				seenLinks[link] = d.PurchaseLink
			}
		}
		if desc := normalizeForComparison(d.ShortDescription); desc != "" {
			if first, ok := seenDescs[desc]; ok && !dupDescs[desc] {
				report.ShortDescriptions = append(report.ShortDescriptions, first)
				dupDescs[desc] = true
			} else {
				seenDescs[desc] = d.ShortDescription
			}
		}
	}

	return report
}

// hasBlockingError reports whether the error map contains anything beyond
// advisory entries. The deal type error only blocks when configured to.
func (e *Engine) hasBlockingError(errs FieldErrors) bool {
	for field := range errs {
		if field == FieldDealType && !e.opts.DealTypeBlocking {
			continue
		}
		return true
	}
	return false
}

// NormalizeShortDescription applies the configured comparison strategy for
// lookups against persisted deals.
func (e *Engine) NormalizeShortDescription(s string) string {
	s = strings.TrimSpace(s)
	if e.opts.ShortDescriptionCaseInsensitive {
		s = strings.ToLower(s)
	}
	return s
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizePurchaseLink prefixes https:// when no scheme is present and
// verifies the result parses as a URL with a host.
func NormalizePurchaseLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !schemePattern.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" || !strings.Contains(u.Host, ".") {
		return "", &FieldError{
			Field:   FieldPurchaseLink,
			Code:    CodeInvalidURL,
			Message: "Purchase link is not a valid URL",
		}
	}
	return u.String(), nil
}

var markupPattern = regexp.MustCompile(`<[^>]*>|&nbsp;`)

// StripMarkup removes HTML tags so a description that is only markup
// counts as empty.
func StripMarkup(s string) string {
	return markupPattern.ReplaceAllString(s, " ")
}

func normalizeForComparison(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
