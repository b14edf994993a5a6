package router

import "github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"

type Config struct {
	Prefix         string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// AdminToken guards the write endpoints for settings and special pujas.
	// Empty disables them.
	AdminToken string
}

func ConfigFromEnv() Config {
	return Config{
		Prefix:         utilities.EnvOr("API_PREFIX", "/puja-api"),
		CORSOrigins:    utilities.EnvList("CORS_ORIGINS", []string{"*"}),
		RateLimitRPS:   float64(utilities.EnvInt("RATE_LIMIT_RPS", 10)),
		RateLimitBurst: utilities.EnvInt("RATE_LIMIT_BURST", 20),
		AdminToken:     utilities.EnvOr("ADMIN_TOKEN", ""),
	}
}
