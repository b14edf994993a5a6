package otp

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type Config struct {
	Length            int
	TTL               time.Duration
	ResendCooldown    time.Duration
	MaxSends          int
	MaxVerifyAttempts int
	// Lockout is the fixed temporary lockout applied when a phone exhausts
	// its sends or verify attempts. Sends are also counted over this window.
	Lockout time.Duration
	// DevEcho returns the code in the send response; never enable in production.
	DevEcho bool
}

func ConfigFromEnv() Config {
	return Config{
		Length:            utilities.EnvInt("OTP_LENGTH", 6),
		TTL:               utilities.EnvDuration("OTP_TTL", 5*time.Minute),
		ResendCooldown:    utilities.EnvDuration("OTP_RESEND_COOLDOWN", 30*time.Second),
		MaxSends:          utilities.EnvInt("OTP_MAX_SENDS", 5),
		MaxVerifyAttempts: utilities.EnvInt("OTP_MAX_VERIFY_ATTEMPTS", 5),
		Lockout:           utilities.EnvDuration("OTP_LOCKOUT", 30*time.Minute),
		DevEcho:           utilities.EnvBool("OTP_DEV_ECHO"),
	}
}
