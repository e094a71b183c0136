package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/smartmon/internal/check"
	"codeberg.org/mutker/smartmon/internal/collector"
	"codeberg.org/mutker/smartmon/internal/config"
	"codeberg.org/mutker/smartmon/internal/logger"
	"codeberg.org/mutker/smartmon/internal/pid"
	"codeberg.org/mutker/smartmon/internal/smart"
	"codeberg.org/mutker/smartmon/internal/store"
)

var (
	cfg  *config.Config
	coll *collector.Collector
	db   *store.DB

	// memStores back the per-service slots when no database is
	// configured; rate checks then re-prime on every start.
	memStores = map[string]*store.Memory{}
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	coll, err = collector.New(cfg.Smartctl, cfg.Input)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize collector")
	}

	if cfg.Database != "" {
		db, err = store.Open(cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open value store")
		}
	}
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

type services struct {
	temperature []check.TemperatureService
	attributes  []check.AttributeService
}

func loop(ctx context.Context) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// The first cycle runs discovery; the baselines captured here stay
	// frozen until the daemon is restarted.
	section, err := coll.Collect(ctx)
	if err != nil {
		return err
	}

	discovery := check.DiscoveryParams{ItemType: check.ItemType(cfg.ItemType)}
	svcs := services{
		temperature: check.DiscoverTemperature(discovery, section),
		attributes:  check.DiscoverAttributes(discovery, section),
	}
	logger.Info().
		Int("temperature_services", len(svcs.temperature)).
		Int("attribute_services", len(svcs.attributes)).
		Int("failed_scans", section.Failures).
		Msg("Discovery complete")

	runChecks(svcs, section, time.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			section, err := coll.Collect(ctx)
			if err != nil {
				return err
			}
			runChecks(svcs, section, time.Now())
		}
	}
}

func runChecks(svcs services, section *smart.Section, now time.Time) {
	levels := check.Levels{Warn: cfg.TempWarn, Crit: cfg.TempCrit}

	for _, svc := range svcs.temperature {
		service := "Temperature SMART " + svc.Item
		params := check.TemperatureParams{Key: svc.Key, Levels: levels}
		logReport(service, check.Temperature(svc.Item, params, section, itemStore(service)))
	}

	for _, svc := range svcs.attributes {
		service := "SMART " + svc.Item + " Stats"
		rep, err := check.Attributes(svc.Item, svc.Params, section, itemStore(service), now)
		if err != nil {
			logger.Error().Err(err).Str("service", service).Msg("check failed")
			continue
		}
		logReport(service, rep)
	}
}

// itemStore returns the persistent slot for a service, or a per-run
// in-memory one when no database is configured.
func itemStore(service string) store.ItemStore {
	if db != nil {
		return db.Item(service)
	}

	s, ok := memStores[service]
	if !ok {
		s = store.NewMemory()
		memStores[service] = s
	}

	return s
}

func logReport(service string, rep *check.Report) {
	for _, res := range rep.Results {
		var event *logger.LogEvent
		switch res.State {
		case check.StateCrit:
			event = logger.Error()
		case check.StateWarn, check.StateUnknown:
			event = logger.Warn()
		default:
			if cfg.Monitor {
				event = logger.Info()
			} else {
				event = logger.Debug()
			}
		}
		event.Str("service", service).Str("state", res.State.String()).Msg(res.Summary)
	}

	for _, m := range rep.Metrics {
		logger.Debug().
			Str("service", service).
			Str("metric", m.Name).
			Float64("value", m.Value).
			Send()
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close value store")
		}
	}
	if err := pid.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}
