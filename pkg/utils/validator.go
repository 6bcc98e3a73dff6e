package utils

import (
	"fmt"
	"regexp"
	"time"
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateCurrencyCode validates an ISO 4217 style currency code
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid currency code: %q", code)
	}
	return nil
}

// ValidateVATRate validates a VAT percentage
func ValidateVATRate(rate float64) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("vat rate must be between 0 and 100: %.2f", rate)
	}
	return nil
}

// ParseDay parses an optional calendar day in layout in loc. An empty value yields nil.
func ParseDay(value, layout string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: expected %s", value, layout)
	}
	return &t, nil
}
