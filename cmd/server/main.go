package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"practice-scheduler/internal/api"
	"practice-scheduler/internal/config"
	"practice-scheduler/internal/handler"
	"practice-scheduler/internal/logger"
	"practice-scheduler/internal/middleware"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/notify"
	"practice-scheduler/internal/reminder"
	"practice-scheduler/internal/store"
)

const migrationsURL = "file://db/migrations"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.WithModule("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	if err := store.MigrateUp(cfg.DatabaseURL, migrationsURL); err != nil {
		return err
	}
	log.Info("migrations applied")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()
	st := store.New(pool, cfg.StoreTimeout)
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	log.Info("connected to postgres")

	mailer, err := newMailer(cfg.Mail)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Mail.Timezone)
	if err != nil {
		return fmt.Errorf("mail timezone: %w", err)
	}
	sender := notify.NewSender(mailer, cfg.Mail.From, loc, cfg.Mail.Timeout)

	sweeper := reminder.New(st, sender, cfg.PublicBaseURL, reminder.WithSchedule(cfg.Reminder.Schedule))

	policy := model.LatestWins
	if cfg.Actions.Policy == config.PolicyStrict {
		policy = model.Strict
	}
	h := handler.New(st, sender, sweeper, handler.Options{
		JWTSecret:  cfg.JWTSecret,
		BaseURL:    cfg.PublicBaseURL,
		TokenBytes: cfg.Actions.TokenBytes,
		TokenTTL:   cfg.Actions.TokenTTL,
		Policy:     policy,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(h, api.Options{
			JWTSecret:  cfg.JWTSecret,
			TriggerKey: cfg.Reminder.TriggerKey,
			Limiter:    limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if cfg.Reminder.Enabled {
		if err := sweeper.Start(); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			<-sweeper.Stop().Done()
			return nil
		})
	} else {
		log.Info("reminder schedule disabled")
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newMailer(cfg config.MailConfig) (notify.Mailer, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP:
		return notify.NewSMTPMailer(notify.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			UseTLS:   cfg.SMTPUseTLS,
			Timeout:  cfg.Timeout,
		})
	default:
		return notify.NewResendMailer(notify.ResendSettings{
			APIKey:   cfg.ResendAPIKey,
			Endpoint: cfg.ResendEndpoint,
			Timeout:  cfg.Timeout,
		})
	}
}
