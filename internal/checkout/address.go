package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"herbal_store/internal/domain"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9]\d{5}$`)
)

// ValidationErrors maps a shipping-address field to its problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "invalid shipping address: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error { return domain.ErrInvalidInput }

// ValidateShippingAddress checks every field and reports all failures at once.
func ValidateShippingAddress(addr domain.ShippingAddress) error {
	errs := ValidationErrors{}
	minLen := func(field, value string, n int) {
		if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
			errs[field] = fmt.Sprintf("must be at least %d characters", n)
		}
	}

	minLen("name", addr.Name, 2)
	if !phonePattern.MatchString(strings.TrimSpace(addr.Phone)) {
		errs["phone"] = "must be a 10-digit mobile number starting with 6-9"
	}
	minLen("address", addr.Address, 10)
	minLen("city", addr.City, 2)
	minLen("state", addr.State, 2)
	if !pincodePattern.MatchString(strings.TrimSpace(addr.Pincode)) {
		errs["pincode"] = "must be a 6-digit postal code not starting with 0"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
