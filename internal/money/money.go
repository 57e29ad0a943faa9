// Package money converts between the decimal price strings accepted on the
// API surface and the integer cent amounts stored and summed internally.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCents parses a non-negative decimal amount such as "150" or "49.99"
// into cents. More than two fractional digits is rejected rather than
// rounded.
func ParseCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("money: amount %q is negative", raw)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q", raw)
	}

	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		frac += "0"
		fallthrough
	case 2:
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("money: invalid amount %q", raw)
		}
	default:
		return 0, fmt.Errorf("money: amount %q has sub-cent precision", raw)
	}

	return units*100 + cents, nil
}

// FormatCents renders cents as a plain decimal string with two fractional
// digits, e.g. 4999 -> "49.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
