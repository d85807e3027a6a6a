package validation

import (
	"math"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLen(field, value string, n int, v Violations) {
	if len(value) < n {
		v[field] = "too_short"
	}
}

// Email performs a shallow shape check; real verification belongs to the
// mail layer, not this one.
func Email(field, value string, v Violations) {
	at := strings.Index(value, "@")
	if at < 1 || at == len(value)-1 || strings.ContainsAny(value, " \t") {
		v[field] = "invalid_email"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// Price enforces the fixed-point bound used for monetary fields: at most
// five significant digits with two of them after the decimal point, so the
// largest representable value is 999.99.
func Price(field string, val float64, v Violations) {
	if val < 0 || val > 999.99 {
		v[field] = "out_of_range"
		return
	}
	cents := val * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		v[field] = "too_many_decimals"
	}
}
