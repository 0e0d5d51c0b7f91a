package validate

import (
	"regexp"
	"strings"
)

var (
	reZIP    = regexp.MustCompile(`^[0-9]{5}$`)
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCoupon = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)
	reStatus = regexp.MustCompile(`^[A-Z_]{3,20}$`)
)

func Zip(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 5 {
		return "", false
	}
	return s, reZIP.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (products, orders, returns).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// CouponCode accepts lowercase input and normalizes it to upper case.
func CouponCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCoupon.MatchString(s)
}

// Status validates the shape of a status token before the state machines see
// it. The machines still decide whether the value is a real state.
func Status(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reStatus.MatchString(s)
}

// Qty clamps a line quantity into [1, 50].
func Qty(n int) int {
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

// Money rejects negative or absurd amounts from request payloads.
func Money(v float64) bool {
	return v >= 0 && v < 1_000_000
}
