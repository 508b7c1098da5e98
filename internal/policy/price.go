// internal/policy/price.go
package policy

import (
	"math"
	"strconv"
)

// DerivePercentageOff computes the display discount from the two prices.
// The second return value is false when original is not positive; in that
// case the caller must keep whatever value it already holds instead of
// overwriting it.
func DerivePercentageOff(original, discount float64) (string, bool) {
	if original <= 0 {
		return "", false
	}
	if discount == 0 || discount >= original {
		return "0%", true
	}

	pct := math.Floor((original-discount)/original*100 + 0.5)
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%", true
}
