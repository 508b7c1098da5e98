// internal/policy/expiration.go
package policy

import (
	"strings"
	"time"
)

// ExpirationMode tags how a deal expires. Exactly one mode is active for
// any flag combination.
type ExpirationMode string

const (
	// ModeFlash: expiry is a fixed duration from now.
	ModeFlash ExpirationMode = "flash"
	// ModeDisabled: the deal intentionally has no expiration.
	ModeDisabled ExpirationMode = "disabled"
	// ModeDated: expiry is a calendar date.
	ModeDated ExpirationMode = "dated"
)

type Expiration struct {
	Mode     ExpirationMode `json:"mode"`
	ExpireAt *time.Time     `json:"expire_at"`
}

// ExpirationInput carries the raw flags a draft holds. A client-computed
// expire_at is never part of this input; the resolver always recomputes it.
type ExpirationInput struct {
	FlashDeal            bool
	FlashDealExpireHours *float64
	Coupon               bool
	Clearance            bool
	DisableExpireAt      bool
	ExpireAtInput        string
}

// PriorExpiration captures the stored state of a deal being updated, used
// for the flash-deal idempotence rule.
type PriorExpiration struct {
	FlashDeal            bool
	FlashDealExpireHours *float64
	ExpireAt             *time.Time
}

// ResolveExpiration picks the expiration mode from raw flags.
//
// Precedence: flash wins over everything; coupon/clearance force disabled
// mode even when the disable checkbox itself is unchecked; a dated expiry
// applies only when no flag is set.
func ResolveExpiration(in ExpirationInput, now time.Time) (Expiration, *FieldError) {
	switch {
	case in.FlashDeal:
		if in.FlashDealExpireHours == nil || *in.FlashDealExpireHours <= 0 {
			return Expiration{}, &FieldError{
				Field:   FieldFlashHours,
				Code:    CodeFlashHoursRequired,
				Message: "Flash deal expire hours must be a positive number",
			}
		}
		at := now.Add(time.Duration(*in.FlashDealExpireHours * float64(time.Hour)))
		return Expiration{Mode: ModeFlash, ExpireAt: &at}, nil

	case in.Coupon || in.Clearance || in.DisableExpireAt:
		return Expiration{Mode: ModeDisabled}, nil

	default:
		raw := strings.TrimSpace(in.ExpireAtInput)
		if raw == "" {
			return Expiration{}, &FieldError{
				Field:   FieldExpireAt,
				Code:    CodeExpireDateRequired,
				Message: "Expiration date is required",
			}
		}

		at, err := parseExpireDate(raw)
		if err != nil {
			return Expiration{}, &FieldError{
				Field:   FieldExpireAt,
				Code:    CodeExpireDateInvalid,
				Message: "Expiration date is not a valid date",
			}
		}
		if beforeToday(at, now) {
			return Expiration{}, &FieldError{
				Field:   FieldExpireAt,
				Code:    CodeExpireDatePast,
				Message: "Expiration date must be today or later",
			}
		}
		return Expiration{Mode: ModeDated, ExpireAt: &at}, nil
	}
}

// ResolveExpirationForUpdate applies the idempotence exception: an update
// that keeps flash_deal set with unchanged hours must not restart the
// countdown. Any genuine change of the duration, or any mode change, falls
// through to a fresh resolution.
func ResolveExpirationForUpdate(in ExpirationInput, prior PriorExpiration, now time.Time) (Expiration, *FieldError) {
	if in.FlashDeal && prior.FlashDeal && hoursEqual(in.FlashDealExpireHours, prior.FlashDealExpireHours) {
		if in.FlashDealExpireHours == nil || *in.FlashDealExpireHours <= 0 {
			return Expiration{}, &FieldError{
				Field:   FieldFlashHours,
				Code:    CodeFlashHoursRequired,
				Message: "Flash deal expire hours must be a positive number",
			}
		}
		return Expiration{Mode: ModeFlash, ExpireAt: prior.ExpireAt}, nil
	}
	return ResolveExpiration(in, now)
}

func hoursEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// parseExpireDate accepts a bare calendar date, normalized to end of day
// UTC, or a full timestamp when the input already carries a time component.
func parseExpireDate(raw string) (time.Time, error) {
	if strings.Contains(raw, "T") {
		return time.Parse(time.RFC3339, raw)
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(23*time.Hour + 59*time.Minute + 59*time.Second), nil
}

// beforeToday compares dates only; time of day is ignored so that an
// expiry later today is still acceptable.
func beforeToday(t, now time.Time) bool {
	ty, tm, td := t.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).
		Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}
