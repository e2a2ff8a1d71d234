package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cli/browser"

	"VitalSentinel/internal/alert"
	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/config"
	"VitalSentinel/internal/logging"
	"VitalSentinel/internal/notifier"
	"VitalSentinel/internal/publisher"
	"VitalSentinel/internal/recorder"
	"VitalSentinel/internal/scheduler"
	"VitalSentinel/internal/server"
)

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := config.LoadDotEnv(".env"); err != nil {
		fatal(boot, "load .env", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(boot, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(boot, "config validation", err)
	}

	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format, "vitalsentinel")
	slog.SetDefault(log)
	log.Info("VitalSentinel starting", "config", cfgPath)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.API.Mock {
		mock := collector.NewMockFetcher()
		mock.Seed(cfg.API.UserID, 90)
		fetcher = mock
	} else {
		api := collector.NewAPIFetcher(cfg.API.BaseURL, cfg.API.Token, cfg.Proxy)
		api.Log = log
		fetcher = api
	}
	log.Info("data source ready", "fetcher", fetcher.Name())

	col := collector.NewCollector(fetcher, log)

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", "err", err)
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	// Init publishers
	var sinks publisher.Multi
	if cfg.MQTT.Broker != "" {
		mp := publisher.NewMQTTPublisher(publisher.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, log)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mp.Connect(connectCtx); err != nil {
			log.Warn("mqtt connect failed, retrying in background", "broker", cfg.MQTT.Broker, "err", err)
		}
		cancel()
		sinks = append(sinks, mp)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := publisher.NewKafkaPublisher(publisher.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, log)
		if err != nil {
			log.Warn("kafka publisher disabled", "err", err)
		} else {
			sinks = append(sinks, kp)
		}
	}
	var pub publisher.Publisher
	if len(sinks) > 0 {
		pub = sinks
		defer sinks.Close()
	}

	// Init alert state
	am, err := alert.NewManager(cfg.Watch.StateFile, log)
	if err != nil {
		fatal(log, "init alert manager", err)
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var msg scheduler.Messenger
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		msg = tn
	} else {
		log.Info("telegram not configured, notifications disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, am, msg, pub, rec, scheduler.Watch{
		UserID:      cfg.API.UserID,
		Metrics:     cfg.WatchedMetrics(),
		Range:       cfg.WatchRange(),
		MinSeverity: cfg.AlertSeverity(),
	}, log)
	if err := sched.RegisterAll(cfg.Watch.CheckCron, cfg.Watch.DigestCron); err != nil {
		fatal(log, "register cron tasks", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	// Hot reload of the watch settings
	go func() {
		err := config.Watch(ctx, cfgPath, func(next *config.Config) {
			sched.UpdateWatch(scheduler.Watch{
				UserID:      next.API.UserID,
				Metrics:     next.WatchedMetrics(),
				Range:       next.WatchRange(),
				MinSeverity: next.AlertSeverity(),
			})
		})
		if err != nil {
			log.Warn("config watch disabled", "path", cfgPath, "err", err)
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running check now")
		go sched.RunCheck(ctx)
	}

	// HTTP server
	srv := server.New(col, rec, cfg.API.UserID, log)
	srv.DefaultRange = cfg.WatchRange()
	srv.CORSOrigins = cfg.Server.CORSOrigins
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	if cfg.Server.OpenBrowser {
		url := "http://localhost" + cfg.Server.Addr
		if !strings.HasPrefix(cfg.Server.Addr, ":") {
			url = "http://" + cfg.Server.Addr
		}
		if err := browser.OpenURL(url); err != nil {
			log.Warn("open browser failed", "url", url, "err", err)
		}
	}

	log.Info("VitalSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	log.Info("VitalSentinel stopped")
}
