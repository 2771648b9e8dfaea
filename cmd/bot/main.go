package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/handler"
	"github.com/noah-isme/datecheck-bot/internal/notifier"
	"github.com/noah-isme/datecheck-bot/internal/repository"
	"github.com/noah-isme/datecheck-bot/internal/service"
	"github.com/noah-isme/datecheck-bot/internal/telegram"
	"github.com/noah-isme/datecheck-bot/pkg/config"
	"github.com/noah-isme/datecheck-bot/pkg/jobs"
	"github.com/noah-isme/datecheck-bot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logr.Fatal("startup aborted", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("bot stopped with error", zap.Error(err))
	}
	logr.Info("bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()

	ledger, err := repository.NewLedger(ctx, cfg.Ledger, logr)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer ledger.Close() //nolint:errcheck

	bot, err := telegram.New(cfg.Telegram, logr)
	if err != nil {
		return err
	}
	if err := checkAdminChat(ctx, bot, cfg.Telegram, logr); err != nil {
		return err
	}

	location, err := cfg.Notify.Location()
	if err != nil {
		return fmt.Errorf("notify timezone: %w", err)
	}
	replies := service.NewReplyService(cfg.Contacts, location)

	sinks := []service.NotificationSink{notifier.NewAdminChatSink(bot)}
	if cfg.Notify.Email.Enabled {
		sinks = append(sinks, notifier.NewEmailSink(cfg.Notify.Email))
	}
	notifications := service.NewNotificationService(sinks, replies, metrics, logr, jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
	})
	// Workers outlive the signal so Stop can drain queued notifications.
	notifications.Start(context.WithoutCancel(ctx))

	availability := service.NewAvailabilityService(ledger, cfg.Ledger.Timeout, metrics, logr)
	bots := handler.NewBotHandler(availability, bot, notifications, replies, metrics, logr)

	var srv *http.Server
	if cfg.HTTP.LivenessEnabled {
		var api *handler.AvailabilityHandler
		if cfg.HTTP.CheckEnabled {
			api = handler.NewAvailabilityHandler(availability, metrics)
		}
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler.NewRouter(cfg, metrics, api, logr),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logr.Info("liveness server starting", zap.String("addr", srv.Addr), zap.Bool("availability_api", api != nil))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logr.Error("liveness server failed", zap.Error(err))
			}
		}()
	}

	logr.Info("bot starting",
		zap.String("env", cfg.Env),
		zap.String("ledger", ledger.Name()),
		zap.Int("notification_sinks", len(sinks)),
	)
	bot.Run(ctx, bots)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Warn("liveness server shutdown", zap.Error(err))
		}
	}
	notifications.Stop(shutdownCtx)
	return nil
}

// checkAdminChat applies ADMIN_CHAT_CHECK: strict aborts startup, warn only logs.
func checkAdminChat(ctx context.Context, bot *telegram.Client, cfg config.TelegramConfig, logr *zap.Logger) error {
	if cfg.AdminChatCheck == config.AdminChatCheckOff {
		return nil
	}
	err := bot.VerifyAdminChat(ctx)
	if err == nil {
		logr.Info("admin chat verified", zap.Int64("admin_chat_id", cfg.AdminChatID))
		return nil
	}
	if cfg.AdminChatCheck == config.AdminChatCheckStrict {
		return fmt.Errorf("admin chat check: %w", err)
	}
	logr.Warn("admin chat check failed, notifications may not be delivered", zap.Error(err))
	return nil
}
