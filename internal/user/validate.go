package user

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrInvalidInput = errors.New("invalid input")

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minNameLength = 2

// Rashis are the twelve signs accepted in a profile.
var Rashis = []string{
	"mesha", "vrishabha", "mithuna", "karka", "simha", "kanya",
	"tula", "vrishchika", "dhanu", "makara", "kumbha", "meena",
}

var genders = map[string]bool{"male": true, "female": true, "other": true}

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) { f[field] = msg }

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// NormalizePhone strips formatting and an Indian country/trunk prefix and
// returns the 10-digit subscriber number.
func NormalizePhone(s string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		case r == '+' && b.Len() == 0:
		default:
			return "", false
		}
	}
	d := b.String()
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}
	if len(d) != 10 {
		return "", false
	}
	return d, true
}

// ValidName requires at least two non-blank characters.
func ValidName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= minNameLength
}

// ValidRashi reports whether s names one of the twelve rashis.
func ValidRashi(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Rashis {
		if r == s {
			return true
		}
	}
	return false
}

// ParseDOB parses a YYYY-MM-DD birth date that is not in the future.
func ParseDOB(s string, now time.Time) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil || d.After(now) || d.Year() < 1900 {
		return time.Time{}, false
	}
	return d, true
}
