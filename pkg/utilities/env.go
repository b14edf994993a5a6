package utilities

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOr returns the trimmed value of k or d when it is unset or blank.
func EnvOr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// EnvInt returns a positive integer from k or d.
func EnvInt(k string, d int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil && v > 0 {
		return v
	}
	return d
}

// EnvDuration parses k with time.ParseDuration; invalid or non-positive values yield d.
func EnvDuration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil && v > 0 {
		return v
	}
	return d
}

// EnvBool reports whether k is "1" or "true".
func EnvBool(k string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	return v == "1" || v == "true"
}

// EnvList splits a comma-separated value, dropping blanks.
func EnvList(k string, d []string) []string {
	raw := os.Getenv(k)
	if strings.TrimSpace(raw) == "" {
		return d
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
