package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	// digits with optional leading + and common separators
	rePhone = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Phone accepts 7 to 15 digits with optional separators.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !rePhone.MatchString(s) {
		return "", false
	}
	digits := 0
	for _, r := range s {
		if '0' <= r && r <= '9' {
			digits++
		}
	}
	return s, digits >= 7 && digits <= 15
}

// ID validates a simple resource identifier (category/product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Price parses a non-negative finite amount.
func Price(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !NonNegative(f) {
		return 0, false
	}
	return f, true
}

// NonNegative reports whether f is a usable amount.
func NonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// OneOf returns s trimmed when it matches one of allowed exactly.
func OneOf(s string, allowed []string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	return "", false
}

// Int parses an integer, falling back to def.
func Int(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
