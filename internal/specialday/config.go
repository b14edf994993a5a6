package specialday

import "github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"

type Config struct {
	// ReminderCron is a five-field cron spec evaluated in UTC.
	ReminderCron string
	Seed         bool
}

func ConfigFromEnv() Config {
	return Config{
		ReminderCron: utilities.EnvOr("REMINDER_CRON", "0 6 * * *"),
		Seed:         !utilities.EnvBool("SPECIAL_PUJAS_NO_SEED"),
	}
}
