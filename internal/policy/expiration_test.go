// internal/policy/expiration_test.go
package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoursPtr(h float64) *float64 {
	return &h
}

func TestResolveExpirationFlash(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	exp, ferr := ResolveExpiration(ExpirationInput{
		FlashDeal:            true,
		FlashDealExpireHours: hoursPtr(24),
	}, now)
	require.Nil(t, ferr)
	assert.Equal(t, ModeFlash, exp.Mode)
	require.NotNil(t, exp.ExpireAt)
	assert.Equal(t, now.Add(24*time.Hour), *exp.ExpireAt)
}

func TestResolveExpirationFlashWinsOverDisableFlags(t *testing.T) {
	now := time.Now()

	for _, in := range []ExpirationInput{
		{FlashDeal: true, FlashDealExpireHours: hoursPtr(6), Coupon: true},
		{FlashDeal: true, FlashDealExpireHours: hoursPtr(6), Clearance: true},
		{FlashDeal: true, FlashDealExpireHours: hoursPtr(6), DisableExpireAt: true},
		{FlashDeal: true, FlashDealExpireHours: hoursPtr(6), Coupon: true, Clearance: true, DisableExpireAt: true},
	} {
		exp, ferr := ResolveExpiration(in, now)
		require.Nil(t, ferr)
		assert.Equal(t, ModeFlash, exp.Mode)
		assert.NotNil(t, exp.ExpireAt)
	}
}

func TestResolveExpirationFlashHoursRequired(t *testing.T) {
	now := time.Now()

	for _, hours := range []*float64{nil, hoursPtr(0), hoursPtr(-5)} {
		_, ferr := ResolveExpiration(ExpirationInput{
			FlashDeal:            true,
			FlashDealExpireHours: hours,
		}, now)
		require.NotNil(t, ferr)
		assert.Equal(t, CodeFlashHoursRequired, ferr.Code)
		assert.Equal(t, FieldFlashHours, ferr.Field)
	}
}

func TestResolveExpirationCouponForcesDisabled(t *testing.T) {
	// Coupon forces disabled mode even though the disable checkbox is
	// unchecked and a future date was typed.
	exp, ferr := ResolveExpiration(ExpirationInput{
		Coupon:          true,
		DisableExpireAt: false,
		ExpireAtInput:   "2099-01-01",
	}, time.Now())
	require.Nil(t, ferr)
	assert.Equal(t, ModeDisabled, exp.Mode)
	assert.Nil(t, exp.ExpireAt)
}

func TestResolveExpirationClearanceForcesDisabled(t *testing.T) {
	exp, ferr := ResolveExpiration(ExpirationInput{Clearance: true}, time.Now())
	require.Nil(t, ferr)
	assert.Equal(t, ModeDisabled, exp.Mode)
	assert.Nil(t, exp.ExpireAt)
}

func TestResolveExpirationExactlyOneMode(t *testing.T) {
	now := time.Now()
	bools := []bool{false, true}

	for _, flash := range bools {
		for _, coupon := range bools {
			for _, clearance := range bools {
				for _, disable := range bools {
					exp, ferr := ResolveExpiration(ExpirationInput{
						FlashDeal:            flash,
						FlashDealExpireHours: hoursPtr(12),
						Coupon:               coupon,
						Clearance:            clearance,
						DisableExpireAt:      disable,
						ExpireAtInput:        "2099-06-01",
					}, now)
					require.Nil(t, ferr)

					switch {
					case flash:
						assert.Equal(t, ModeFlash, exp.Mode)
					case coupon || clearance || disable:
						assert.Equal(t, ModeDisabled, exp.Mode)
					default:
						assert.Equal(t, ModeDated, exp.Mode)
					}
				}
			}
		}
	}
}

func TestResolveExpirationDated(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	exp, ferr := ResolveExpiration(ExpirationInput{ExpireAtInput: "2026-04-01"}, now)
	require.Nil(t, ferr)
	assert.Equal(t, ModeDated, exp.Mode)
	require.NotNil(t, exp.ExpireAt)
	// Bare dates normalize to end of day UTC.
	assert.Equal(t, time.Date(2026, 4, 1, 23, 59, 59, 0, time.UTC), *exp.ExpireAt)
}

func TestResolveExpirationDatedKeepsExplicitTime(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	exp, ferr := ResolveExpiration(ExpirationInput{ExpireAtInput: "2026-04-01T08:30:00Z"}, now)
	require.Nil(t, ferr)
	require.NotNil(t, exp.ExpireAt)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC), *exp.ExpireAt)
}

func TestResolveExpirationDatedToday(t *testing.T) {
	// Late in the day, an expiry dated today must still pass the
	// date-only comparison.
	now := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)

	exp, ferr := ResolveExpiration(ExpirationInput{ExpireAtInput: "2026-03-15"}, now)
	require.Nil(t, ferr)
	assert.Equal(t, ModeDated, exp.Mode)
}

func TestResolveExpirationDatedErrors(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	_, ferr := ResolveExpiration(ExpirationInput{}, now)
	require.NotNil(t, ferr)
	assert.Equal(t, CodeExpireDateRequired, ferr.Code)

	_, ferr = ResolveExpiration(ExpirationInput{ExpireAtInput: "not-a-date"}, now)
	require.NotNil(t, ferr)
	assert.Equal(t, CodeExpireDateInvalid, ferr.Code)

	_, ferr = ResolveExpiration(ExpirationInput{ExpireAtInput: "2026-03-14"}, now)
	require.NotNil(t, ferr)
	assert.Equal(t, CodeExpireDatePast, ferr.Code)
}

func TestResolveExpirationForUpdateIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	stored := now.Add(-2 * time.Hour).Add(24 * time.Hour)

	prior := PriorExpiration{
		FlashDeal:            true,
		FlashDealExpireHours: hoursPtr(24),
		ExpireAt:             &stored,
	}

	// Same hours: the countdown must not restart.
	exp, ferr := ResolveExpirationForUpdate(ExpirationInput{
		FlashDeal:            true,
		FlashDealExpireHours: hoursPtr(24),
	}, prior, now)
	require.Nil(t, ferr)
	assert.Equal(t, ModeFlash, exp.Mode)
	require.NotNil(t, exp.ExpireAt)
	assert.Equal(t, stored, *exp.ExpireAt)

	// Changed hours: the countdown restarts from now.
	exp, ferr = ResolveExpirationForUpdate(ExpirationInput{
		FlashDeal:            true,
		FlashDealExpireHours: hoursPtr(48),
	}, prior, now)
	require.Nil(t, ferr)
	require.NotNil(t, exp.ExpireAt)
	assert.Equal(t, now.Add(48*time.Hour), *exp.ExpireAt)

	// Flash newly enabled: fresh countdown even though hours match.
	exp, ferr = ResolveExpirationForUpdate(ExpirationInput{
		FlashDeal:            true,
		FlashDealExpireHours: hoursPtr(24),
	}, PriorExpiration{FlashDeal: false}, now)
	require.Nil(t, ferr)
	require.NotNil(t, exp.ExpireAt)
	assert.Equal(t, now.Add(24*time.Hour), *exp.ExpireAt)
}
