// Package amount converts user-entered money strings to integer minor units
// (cents) and back. Parsing is exact: an input is either represented without
// loss or rejected.
package amount

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// pattern accepts digits with an optional '.' or ',' separator followed by
// at most two fractional digits. "12," is allowed and means 12.
var pattern = regexp.MustCompile(`^[0-9]+([.,][0-9]{0,2})?$`)

var hundred = decimal.NewFromInt(100)

// Parse converts input into minor units.
// Empty (or whitespace-only) input returns (nil, nil), meaning "unset".
// Anything that is not a non-negative decimal with at most two fractional
// digits, or that does not fit an int64, returns an error wrapping
// domain.ErrValidation.
func Parse(input string) (*int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}
	if !pattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a valid amount", domain.ErrValidation, input)
	}

	s = strings.TrimSuffix(strings.Replace(s, ",", ".", 1), ".")
	value, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid amount", domain.ErrValidation, input)
	}

	cents := value.Mul(hundred).Round(0)

	// Reject anything that does not survive the trip back to major units.
	if !cents.Div(hundred).Equal(value) {
		return nil, fmt.Errorf("%w: %q has more precision than minor units allow", domain.ErrValidation, input)
	}
	if !cents.BigInt().IsInt64() {
		return nil, fmt.Errorf("%w: %q is out of range", domain.ErrValidation, input)
	}

	v := cents.IntPart()
	return &v, nil
}

// MustParse is Parse for inputs known to be valid, such as test fixtures.
// It panics on invalid or empty input.
func MustParse(input string) int64 {
	v, err := Parse(input)
	if err != nil {
		panic(err)
	}
	if v == nil {
		panic("amount: MustParse called with empty input")
	}
	return *v
}

// Format renders minor units for display.
// Whole amounts are rendered without a fractional part ("12"); everything
// else gets exactly two fractional digits after a comma ("12,50").
// No thousands separator is used.
func Format(minor int64) string {
	sign := ""
	abs := uint64(minor)
	if minor < 0 {
		sign = "-"
		abs = uint64(-(minor + 1)) + 1
	}
	major, frac := abs/100, abs%100
	if frac == 0 {
		return sign + strconv.FormatUint(major, 10)
	}
	return fmt.Sprintf("%s%d,%02d", sign, major, frac)
}

// FormatOptional renders an optional amount, returning "" when unset.
func FormatOptional(minor *int64) string {
	if minor == nil {
		return ""
	}
	return Format(*minor)
}

// Codec bundles parsing and formatting with the configured currency suffix.
// Build one at startup and pass it to the components that display prices.
type Codec struct {
	currency string
}

// NewCodec returns a Codec that appends currency to formatted prices.
func NewCodec(currency string) *Codec {
	return &Codec{currency: currency}
}

// Parse delegates to the package-level Parse.
func (c *Codec) Parse(input string) (*int64, error) {
	return Parse(input)
}

// Format delegates to the package-level Format.
func (c *Codec) Format(minor int64) string {
	return Format(minor)
}

// FormatPrice renders minor units followed by the currency suffix,
// e.g. "49 €" or "12,50 €".
func (c *Codec) FormatPrice(minor int64) string {
	if c.currency == "" {
		return Format(minor)
	}
	return Format(minor) + " " + c.currency
}
