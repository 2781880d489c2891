package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"notify_printer/internal/config"
	"notify_printer/internal/filter"
	"notify_printer/internal/manager"
	"notify_printer/internal/poller"
	"notify_printer/internal/provider/feed"
	"notify_printer/internal/provider/github"
	"notify_printer/internal/sink"
	"notify_printer/internal/sink/printer"
	"notify_printer/internal/sink/telegram"
	"notify_printer/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "fetch and deliver all current notifications, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	seen, err := newSeenStore(cfg, log)
	if err != nil {
		log.Error("open seen store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = seen.Close() }()

	m := manager.New(seen, log)
	m.SetFetchTimeout(cfg.FetchTimeout)

	m.AddProvider(github.New(cfg.GitHubToken, http.DefaultClient, log))
	for i, url := range cfg.FeedURLs {
		name := fmt.Sprintf("Feed %d", i+1)
		m.AddProvider(feed.New(name, url, http.DefaultClient, log))
	}

	out, err := buildSink(cfg, log)
	if err != nil {
		log.Error("build sink", "error", err)
		os.Exit(1)
	}

	rules, err := filter.ParseRules(cfg.Filters)
	if err != nil {
		log.Error("parse filters", "error", err)
		os.Exit(1)
	}

	p := poller.New(m, out, log)
	p.SetTickInterval(cfg.PollInterval)
	p.SetPrimeOnStart(cfg.PrimeOnStart)
	p.SetRules(rules)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := p.RunOnce(ctx); err != nil {
			log.Error("one-shot delivery", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("starting notification poller", "interval", cfg.PollInterval, "sinks", cfg.Sinks)
	p.Run(ctx)
	log.Info("poller stopped")
}

func newSeenStore(cfg *config.Config, log *slog.Logger) (storage.SeenStore, error) {
	if cfg.DatabasePath == "" {
		log.Info("using in-memory seen store")
		return storage.NewMemory(), nil
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	log.Info("using sqlite seen store", "path", cfg.DatabasePath)
	return storage.NewSQLite(cfg.DatabasePath)
}

func buildSink(cfg *config.Config, log *slog.Logger) (sink.Sink, error) {
	var sinks []sink.Sink
	for _, name := range cfg.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, sink.NewLog(log))
		case "printer":
			device := printer.NewTCPDevice(cfg.PrinterAddr)
			sinks = append(sinks, printer.New(device, log))
		case "telegram":
			tg, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, log)
			if err != nil {
				return nil, fmt.Errorf("create telegram sink: %w", err)
			}
			sinks = append(sinks, tg)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sink.NewMulti(log, sinks...), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
