package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-puja/internal/booking"
	"github.com/ovaphlow/pitchfork/service-puja/internal/i18n"
	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra"
	"github.com/ovaphlow/pitchfork/service-puja/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-puja/internal/otp"
	"github.com/ovaphlow/pitchfork/service-puja/internal/referral"
	"github.com/ovaphlow/pitchfork/service-puja/internal/router"
	"github.com/ovaphlow/pitchfork/service-puja/internal/search"
	"github.com/ovaphlow/pitchfork/service-puja/internal/setting"
	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday"
	"github.com/ovaphlow/pitchfork/service-puja/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-puja/internal/user"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/database"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/scheduler"
	"github.com/ovaphlow/pitchfork/service-puja/pkg/utilities"
)

type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

func main() {
	// best-effort: without a .env file the real environment and defaults apply
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-puja")

	db, err := database.Open(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// services
	oidcSvc, err := oidc.NewOIDCService(db, oidc.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("oidc init: %v", err)
	}
	mudraSvc := mudra.NewService(db)
	userSvc := user.NewUserService(db, mudraSvc, referral.NewCode, sugar)
	referralSvc := referral.NewService(db, userSvc, mudraSvc, sugar)

	var sender otp.Sender = otp.LogSender{Logger: sugar}
	if tw := otp.NewTwilioFromEnv(); tw != nil {
		sender = tw
	} else {
		sugar.Warn("TWILIO_ACCOUNT_SID not set; OTP messages are only logged, with the code at debug level")
	}
	otpSvc := otp.NewService(db, otp.ConfigFromEnv(), sender, userSvc, oidcSvc, sugar)

	subSvc := subscriber.NewService(db, nil, mudraSvc, sugar)
	daySvc := specialday.NewService(db, subSvc, specialday.LogNotifier{Logger: sugar}, sugar)
	subSvc.SetCalendar(daySvc)

	settingSvc := setting.NewService(db)
	bookingSvc := booking.NewService(db, mudraSvc, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dayCfg := specialday.ConfigFromEnv()
	if err := prepare(ctx, sugar, dayCfg.Seed, []tableEnsurer{
		userSvc.Repo(), mudraSvc.Repo(), oidcSvc.Repo(), otpSvc.Repo(), referralSvc.Repo(),
		subSvc.Repo(), daySvc.Repo(), settingSvc.Repo(), bookingSvc.Repo(),
	}, daySvc, settingSvc, bookingSvc); err != nil {
		sugar.Fatalf("prepare schema: %v", err)
	}

	// background jobs
	jobs := scheduler.New(5*time.Minute, sugar)
	if err := jobs.Add(dayCfg.ReminderCron, "special-day-reminders", daySvc.RunReminders); err != nil {
		sugar.Fatalf("reminder schedule %q: %v", dayCfg.ReminderCron, err)
	}
	if err := jobs.Add("@hourly", "refresh-session-purge", func(ctx context.Context) (int, error) {
		n, err := oidcSvc.Repo().DeleteExpired(ctx, time.Now().UTC())
		return int(n), err
	}); err != nil {
		sugar.Fatalf("purge schedule: %v", err)
	}
	if dayCfg.Seed {
		if err := jobs.Add("@daily", "special-puja-rollover", func(ctx context.Context) (int, error) {
			n, err := daySvc.Repo().Seed(ctx, specialday.Defaults(time.Now()))
			return int(n), err
		}); err != nil {
			sugar.Fatalf("rollover schedule: %v", err)
		}
	}
	jobs.Start()

	routerCfg := router.ConfigFromEnv()
	limiter := router.NewRateLimiter(routerCfg.RateLimitRPS, routerCfg.RateLimitBurst, sugar)
	limiter.StartCleanup(ctx, time.Minute)

	handler := router.RegisterRoutes(sugar, routerCfg, router.Handlers{
		Auth:       oidcSvc,
		OIDC:       oidc.NewHandler(oidcSvc, sugar),
		User:       user.NewHandler(userSvc, oidcSvc, referralSvc, sugar),
		OTP:        otp.NewHandler(otpSvc, sugar),
		Mudra:      mudra.NewHandler(mudraSvc, sugar),
		Referral:   referral.NewHandler(referralSvc, sugar),
		SpecialDay: specialday.NewHandler(daySvc, sugar),
		Reminders:  subscriber.NewHandler(subSvc, sugar),
		Setting:    setting.NewHandler(settingSvc, sugar),
		Booking:    booking.NewHandler(bookingSvc, sugar),
		Search:     search.NewHandler(nil),
		I18n:       i18n.NewHandler(),
		Ping:       db.PingContext,
	}, limiter)

	srv := &http.Server{
		Addr:              utilities.EnvOr("HTTP_ADDR", "0.0.0.0:8431"),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running; press Ctrl+C to stop", "addr", srv.Addr, "prefix", routerCfg.Prefix)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	jobs.Stop(doneCtx)

	sugar.Info("goodbye")
}

// prepare creates missing tables and, when seed is set, inserts the default catalogue rows.
func prepare(ctx context.Context, logger *zap.SugaredLogger, seed bool, tables []tableEnsurer,
	days *specialday.Service, settings *setting.Service, bookings *booking.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, t := range tables {
		if err := t.EnsureTable(ctx); err != nil {
			return err
		}
	}
	n, err := settings.EnsureDefaults(ctx, setting.Defaults())
	if err != nil {
		return fmt.Errorf("setting defaults: %w", err)
	}
	logger.Infow("settings ready", "inserted", n)

	if !seed {
		return nil
	}
	pujas, err := days.Repo().Seed(ctx, specialday.Defaults(time.Now()))
	if err != nil {
		return fmt.Errorf("seed special pujas: %w", err)
	}
	providers, err := bookings.Repo().SeedProviders(ctx, booking.DefaultProviders())
	if err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	logger.Infow("seed data ready", "special_pujas", pujas, "providers", providers)
	return nil
}

