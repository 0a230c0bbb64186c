package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"DealerRing/internal/bridge"
	"DealerRing/internal/config"
	"DealerRing/internal/core"
	"DealerRing/internal/event"
	"DealerRing/internal/export"
	"DealerRing/internal/observability"
)

// Config holds the runner's own knobs. Everything about the market
// itself lives in the scenario file; environment variables only
// override run mechanics.
type Config struct {
	ScenarioPath string
	CSVPath      string
	MetricsAddr  string
	Seed         int64
	SeedSet      bool
}

func loadConfig() Config {
	cfg := Config{
		ScenarioPath: envOrDefault("DRING_SCENARIO", "scenario.yaml"),
		CSVPath:      envOrDefault("DRING_CSV_OUT", ""),
		MetricsAddr:  envOrDefault("DRING_METRICS_ADDR", ""),
	}
	if v := os.Getenv("DRING_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
			cfg.SeedSet = true
		}
	}

	flag.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "scenario YAML path")
	flag.StringVar(&cfg.CSVPath, "csv", cfg.CSVPath, "write event log CSV to this path")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (empty: disabled)")
	seedFlag := flag.Int64("seed", 0, "override the scenario seed")
	flag.Parse()
	if flagPassed("seed") {
		cfg.Seed = *seedFlag
		cfg.SeedSet = true
	}
	return cfg
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

func main() {
	log := observability.NewLogger("dealerring")
	cfg := loadConfig()

	scenario, err := config.LoadScenario(cfg.ScenarioPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ScenarioPath).Msg("load scenario")
	}
	if cfg.SeedSet {
		scenario.Ring.Seed = cfg.Seed
	}

	world, err := bridge.BuildWorld(scenario)
	if err != nil {
		log.Fatal().Err(err).Msg("build world")
	}
	log.Info().
		Int("tickets", world.Book.Len()).
		Int("traders", len(world.Traders)).
		Strs("buckets", world.Buckets.Names()).
		Int64("seed", scenario.Ring.Seed).
		Msg("world built")

	metrics := observability.NewMetrics()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	eventLog := event.NewLog()
	engine := core.NewEngine(world, scenario.Ring, eventLog, metrics, log)

	start := time.Now()
	engine.Run()
	log.Info().
		Int("days", world.Day).
		Int("events", eventLog.Len()).
		Int("live_tickets", world.Book.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")

	for _, h := range bridge.HoldingsReport(world) {
		log.Info().
			Str("holder", h.Holder.String()).
			Str("cash", h.Cash.String()).
			Int("tickets", h.Tickets).
			Msg("final holding")
	}

	if cfg.CSVPath != "" {
		if err := writeCSV(cfg.CSVPath, eventLog); err != nil {
			log.Fatal().Err(err).Str("path", cfg.CSVPath).Msg("export csv")
		}
		log.Info().Str("path", cfg.CSVPath).Msg("event log exported")
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Shutdown(ctx)
	}
}

func writeCSV(path string, log *event.Log) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, log); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
