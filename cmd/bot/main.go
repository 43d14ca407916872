package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/credential"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/pager"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/remote"
	"github.com/napryag/clinic_booking_bot/pkg/domain/booking/wizard"
	"github.com/napryag/clinic_booking_bot/pkg/domain/bot/receiver"
	"github.com/napryag/clinic_booking_bot/pkg/domain/bot/receiver/config"
	"github.com/napryag/clinic_booking_bot/pkg/domain/bot/sender"
	"github.com/napryag/clinic_booking_bot/pkg/observability/metrics"
	"github.com/napryag/clinic_booking_bot/pkg/observability/ops"
	"github.com/napryag/clinic_booking_bot/pkg/repository/session"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to app.yml")
	flag.Parse()

	// 1) Logger
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// 2) Config
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Err(errs.New("failed to load config").Wrap(err)).Msg("config init")
		return
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	// 3) Context, cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4) Session storage
	store, checks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.SessionBackend).Msg("session store init")
		return
	}
	defer closeStore()

	// 5) Metrics + ops server
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewBookingMetrics(reg)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           ops.NewRouter(ops.Config{Gatherer: reg, Checks: checks, Logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("ops server failed")
		}
	}()

	// 6) Telegram
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("create bot api")
		return
	}
	bot.Debug = false
	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	var notifier receiver.BookingNotifier
	if cfg.NotifyChannelID != "" {
		notifier = sender.New(sender.ProcessorConfig{ChannelID: cfg.NotifyChannelID}, logger, bot)
	}

	// 7) Booking wizard, one per Telegram user
	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger, m)
	checker := credential.New(nil)
	settler := pager.SettlerFor(cfg.SettleDelay)

	registry := receiver.NewRegistry(func(userID int64) *wizard.Flow {
		userStore := session.Scoped(store, strconv.FormatInt(userID, 10))
		return wizard.New(remote.NewFacade(client, userStore), userStore, wizard.Options{
			PageSize: cfg.PageSize,
			Settler:  settler,
			Checker:  checker,
			Metrics:  m,
			Logger:   logger.With().Int64("user_id", userID).Logger(),
		})
	})
	handler := receiver.NewHandler(bot, registry, notifier, m, logger)
	if cfg.SettleDelay > 0 {
		handler.RerenderOnSettle()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10
	updates := bot.GetUpdatesChan(u)

	// Stop long polling so the updates channel closes and Run returns
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down bot")
		bot.StopReceivingUpdates()
	}()

	receiver.NewDispatcher(cfg.WorkerCount, handler, logger).Run(ctx, updates)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ops server shutdown")
	}
	logger.Info().Msg("bot stopped")
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, map[string]ops.Check, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store := session.NewRedis(client, cfg.SessionTTL)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("session store: redis")
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("redis close")
			}
		}
		return store, map[string]ops.Check{"redis": store.Ping}, closeFn, nil

	case config.BackendPostgres:
		store, err := session.NewPostgres(ctx, cfg.PostgreAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		logger.Info().Msg("session store: postgres")
		return store, map[string]ops.Check{"postgres": store.Ping}, store.Close, nil

	default:
		logger.Info().Msg("session store: memory")
		return session.NewMemory(), nil, func() {}, nil
	}
}
