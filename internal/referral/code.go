package referral

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// CodeLength is the number of characters in a referral code.
const CodeLength = 8

// codeAlphabet drops I, O, 0 and 1; 32 symbols keep byte%32 uniform.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCode returns a random referral code drawn from KSUID entropy.
func NewCode() string {
	payload := utilities.RandomPayload()
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[int(payload[i])%len(codeAlphabet)]
	}
	return string(b)
}

// NormalizeCode trims and upper-cases user input. It reports false when the
// result cannot be a referral code.
func NormalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != CodeLength {
		return "", false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return "", false
		}
	}
	return code, true
}
