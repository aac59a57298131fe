package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"eventdash/internal/config"
	"eventdash/internal/engine"
	"eventdash/internal/events"
	"eventdash/internal/ics"
	appLog "eventdash/internal/log"
	"eventdash/internal/metrics"
	"eventdash/internal/notify"
	"eventdash/internal/seed"
	"eventdash/internal/watch"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("eventdash starting", "version", version)
	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"scan_schedule", conf.ScanSchedule,
		"warning_days", conf.WarningDays,
		"seed_file", conf.SeedFile,
		"ics_import_count", len(conf.ICSImport),
		"ics_export", conf.ICSExport,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags.once); err != nil {
		appLog.Error("eventdash failed", err)
		os.Exit(1)
	}
	appLog.Info("eventdash exiting")
}

func run(ctx context.Context, conf *config.Config, once bool) error {
	loc := conf.Location()
	hub := watch.NewHub()
	evStore := events.NewStore(events.WithHub(hub))
	notes := notify.NewStore(hub)

	if conf.SeedFile != "" {
		if _, err := seed.LoadFile(conf.SeedFile, evStore, loc); err != nil {
			return err
		}
	}
	importCalendars(conf, evStore)

	reg := prometheus.NewRegistry()
	eng, err := engine.New(evStore, notes,
		engine.WithThreshold(conf.WarningDays),
		engine.WithSchedule(conf.ScanSchedule),
		engine.WithLocation(loc),
		engine.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	feed, unsubscribe := hub.Subscribe()
	alerts := newAlertLog(notes)
	done := make(chan struct{})
	go func() {
		defer close(done)
		alerts.follow(feed)
	}()

	if once {
		eng.Scan(ctx)
	} else {
		if err := eng.Start(ctx); err != nil {
			unsubscribe()
			<-done
			return err
		}
		<-ctx.Done()
		eng.Stop()
	}

	unsubscribe()
	<-done
	alerts.flush()

	summary := events.Summarize(evStore.List())
	appLog.Info("event summary",
		"total", summary.Total,
		"approved", summary.Approved,
		"pending", summary.Pending,
		"rejected", summary.Rejected,
		"expired", summary.Expired,
		"attendees", summary.TotalAttendees,
		"unread_notifications", notes.UnreadCount(),
	)

	if conf.ICSExport != "" {
		if err := ics.ExportFile(conf.ICSExport, evStore.List(), time.Now()); err != nil {
			appLog.Error("ics export failed", err, "path", conf.ICSExport)
		}
	}

	if snapshot, err := metrics.Dump(reg); err != nil {
		appLog.Warn("metrics snapshot failed", "error", err.Error())
	} else {
		appLog.Info("metrics", "snapshot", snapshot)
	}
	return nil
}

func importCalendars(conf *config.Config, dst ics.Importer) {
	if len(conf.ICSImport) == 0 {
		return
	}
	now := time.Now()
	cfg := ics.ExpandConfig{
		RangeStart:          now,
		RangeEnd:            now.AddDate(0, 0, conf.ICSHorizonDays),
		DefaultMaxAttendees: conf.DefaultMaxAttendees,
	}
	for _, path := range conf.ICSImport {
		if _, err := ics.ImportFile(path, dst, cfg); err != nil {
			// One bad calendar should not keep the others out.
			appLog.Error("ics import failed", err, "path", path)
		}
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/eventdash/config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Run a single expiry scan and exit")

	flag.Parse()

	return cfg
}
