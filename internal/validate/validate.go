package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	rePlate = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-.]{1,15}$`)
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^[0-9+][0-9 \-()]{5,19}$`)
)

// Plate validates a license plate; the plate is the car's natural key.
func Plate(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, rePlate.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true // optional at intake
	}
	if len(s) > 60 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePhone.MatchString(s)
}

// Name validates a displayable name (owner, vehicle type, category).
func Name(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > max {
		return "", false
	}
	return s, true
}

// FreeText trims and caps optional free-form input. The cap is in bytes but
// never cuts through a multi-byte rune.
func FreeText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// Qty parses a line quantity. Non-numeric or out-of-range input is rejected
// rather than coerced.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 1000 {
		return 0, false
	}
	return n, true
}

// Money parses a non-negative amount. Non-numeric input is rejected rather
// than silently treated as zero.
func Money(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// ID parses a positive integer entity id from a route param or form field.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// MonthYear parses the dashboard filter, falling back to the given defaults
// on absent or malformed input.
func MonthYear(monthStr, yearStr string, defMonth, defYear int) (int, int) {
	month, year := defMonth, defYear
	if m, err := strconv.Atoi(strings.TrimSpace(monthStr)); err == nil && m >= 1 && m <= 12 {
		month = m
	}
	if y, err := strconv.Atoi(strings.TrimSpace(yearStr)); err == nil && y >= 2000 && y <= 2100 {
		year = y
	}
	return month, year
}

// Password enforces a basic length window for login input.
func Password(s string) bool {
	return len(s) >= 8 && len(s) <= 64
}
