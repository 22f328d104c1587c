package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinCardDigits = 13
	MaxCardDigits = 19
)

// Luhn reports whether the digit string passes the mod 10 checksum.
func Luhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// NormalizeCardNumber strips the spaces and hyphens users type between digit groups.
func NormalizeCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ParseExpiry parses "MM/YY" and returns the first instant after the card stops being valid.
func ParseExpiry(expiry string) (time.Time, error) {
	month, year, ok := strings.Cut(strings.TrimSpace(expiry), "/")
	if !ok || len(month) != 2 || len(year) != 2 {
		return time.Time{}, fmt.Errorf("expiry %q is not in MM/YY format", expiry)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("expiry month %q is invalid", month)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry year %q is invalid", year)
	}
	return time.Date(2000+y, time.Month(m)+1, 1, 0, 0, 0, 0, time.UTC), nil
}
