package router

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/booking"
	"github.com/ovaphlow/pitchfork/service-puja/internal/i18n"
	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/otp"
	"github.com/ovaphlow/pitchfork/service-puja/internal/referral"
	"github.com/ovaphlow/pitchfork/service-puja/internal/search"
	"github.com/ovaphlow/pitchfork/service-puja/internal/setting"
	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/metrics"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
// Server errors are logged at warn level.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// Permissions policy (formerly Feature-Policy) - tighten common features
			// allow none for camera, microphone, geolocation by default
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// Basic Content-Security-Policy - block mixed content and restrict sources to self by default
			// Keep this conservative; callers may opt to override with more specific policy downstream.
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS - instruct browsers to use HTTPS for future requests. Only set if request is over TLS.
			if r.TLS != nil {
				// 30 days by default
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows browser clients from origins. A "*" entry allows any origin.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Requested-With"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	})
}

// RequireAdminToken guards operator endpoints with a shared secret sent in X-Admin-Token.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				utilities.WriteError(w, http.StatusForbidden, "admin api disabled")
				return
			}
			got := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				utilities.WriteError(w, http.StatusUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handlers bundles every feature handler mounted by RegisterRoutes.
type Handlers struct {
	Auth       oidc.AccessTokenParser
	OIDC       *oidc.Handler
	User       *user.Handler
	OTP        *otp.Handler
	Mudra      *mudra.Handler
	Referral   *referral.Handler
	SpecialDay *specialday.Handler
	Reminders  *subscriber.Handler
	Setting    *setting.Handler
	Booking    *booking.Handler
	Search     *search.Handler
	I18n       *i18n.Handler
	// Ping reports database health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Every route lives under cfg.Prefix.
func RegisterRoutes(logger *zap.SugaredLogger, cfg Config, h Handlers, limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()
	p := cfg.Prefix

	authed := oidc.RequireAuth(h.Auth)
	optional := oidc.OptionalAuth(h.Auth)
	admin := RequireAdminToken(cfg.AdminToken)
	public := func(pattern string, fn http.HandlerFunc) { mux.HandleFunc(pattern, fn) }
	private := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, authed(fn)) }
	operator := func(pattern string, fn http.HandlerFunc) { mux.Handle(pattern, admin(fn)) }
	route := func(method, path string) string { return method + " " + p + path }

	// health
	public(route("GET", "/health"), func(w http.ResponseWriter, r *http.Request) {
		if h.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.Ping(ctx); err != nil {
				logger.Warnw("health check failed", "err", err)
				utilities.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle(route("GET", "/metrics"), metrics.Handler())

	// sessions
	public(route("GET", "/.well-known/openid-configuration"), h.OIDC.Discovery)
	public(route("GET", "/.well-known/jwks.json"), h.OIDC.JWKS)
	public(route("POST", "/auth/otp/send"), h.OTP.Send)
	public(route("POST", "/auth/otp/verify"), h.OTP.Verify)
	public(route("POST", "/auth/signup"), h.User.Signup)
	public(route("POST", "/auth/token/refresh"), h.OIDC.Refresh)
	mux.Handle(route("POST", "/auth/logout"), optional(http.HandlerFunc(h.OIDC.Logout)))

	// profile
	public(route("GET", "/rashis"), h.User.Rashis)
	private(route("GET", "/me"), h.User.Me)
	private(route("PUT", "/me"), h.User.UpdateMe)
	operator(route("DELETE", "/users/{id}"), h.User.Deactivate)

	// mudras
	public(route("GET", "/mudras/activities"), h.Mudra.Activities)
	private(route("GET", "/me/mudras"), h.Mudra.Summary)
	private(route("GET", "/me/mudras/history"), h.Mudra.History)
	private(route("POST", "/me/mudras"), h.Mudra.Claim)

	// referrals
	public(route("GET", "/referrals/verify"), h.Referral.Verify)
	private(route("GET", "/me/referral"), h.Referral.Stats)
	private(route("POST", "/me/referral"), h.Referral.Apply)

	// special days and reminders
	public(route("GET", "/special-pujas"), h.SpecialDay.List)
	public(route("GET", "/special-pujas/upcoming"), h.SpecialDay.Upcoming)
	operator(route("POST", "/special-pujas"), h.SpecialDay.Create)
	private(route("GET", "/me/reminders/today"), h.Reminders.Today)
	private(route("POST", "/me/reminders/seen"), h.Reminders.MarkSeen)
	private(route("PUT", "/me/reminders/subscription"), h.Reminders.UpdateSubscription)

	// settings
	public(route("GET", "/settings"), h.Setting.List)
	public(route("GET", "/settings/{id}"), h.Setting.Get)
	public(route("GET", "/temple-config"), h.Setting.TempleConfig)
	public(route("GET", "/flags"), h.Setting.Flags)
	operator(route("POST", "/settings"), h.Setting.Create)
	operator(route("PUT", "/settings/{id}"), h.Setting.Update)
	operator(route("DELETE", "/settings/{id}"), h.Setting.Delete)

	// bookings
	public(route("GET", "/providers"), h.Booking.Providers)
	private(route("GET", "/me/bookings"), h.Booking.List)
	private(route("POST", "/me/bookings"), h.Booking.Create)

	// search and translations
	public(route("GET", "/search/suggestions"), h.Search.Suggestions)
	public(route("GET", "/i18n"), h.I18n.Languages)
	public(route("GET", "/i18n/{lang}"), h.I18n.Dictionary)

	// outermost first: metrics, logging, CORS, security headers, rate limit
	var handler http.Handler = mux
	if limiter != nil {
		handler = limiter.Handler(handler)
	}
	handler = SecurityHeadersMiddleware()(handler)
	handler = CORSMiddleware(cfg.CORSOrigins)(handler)
	handler = LoggingMiddleware(logger)(handler)
	return metrics.InstrumentHandler(handler)
}
