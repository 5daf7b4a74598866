package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"holiday-pipeline/src/config"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	envFile := flag.String("env", ".env", "path to .env file")
	provider := flag.String("provider", "", "override provider (calendarific|nager)")
	country := flag.String("country", "", "collect a single country (ISO alpha-2)")
	countries := flag.String("countries", "", "comma-separated countries for a batch run (default: config)")
	year := flag.Int("year", 0, "year for a single or batch run")
	years := flag.String("years", "", "comma-separated years for a full run (default: config, else current and next)")
	all := flag.Bool("all", false, "collect every configured country for every year")
	noCache := flag.Bool("no-cache", false, "bypass the collector cache for a single country")
	stats := flag.Bool("stats", false, "print statistics over persisted files and exit")
	serve := flag.Bool("serve", false, "run the API server (stays up after any collection)")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath, *envFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *provider != "" {
		cfg.Provider.Name = strings.ToLower(*provider)
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Error in config: %v\n", err)
			os.Exit(1)
		}
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Setup Components
	networkManager := setupNetwork(cfg.MConfig)
	sources, err := setupDataSources(cfg.MConfig, appLogger, networkManager)
	if err != nil {
		appLogger.Critical("Failed to init data source: %v", err)
	}
	active, err := sources.Active()
	if err != nil {
		appLogger.Critical("No data source: %v", err)
	}

	m := metrics.NewMetrics()
	c, err := setupCollector(ctx, cfg.MConfig, active, m)
	if err != nil {
		appLogger.Critical("Failed to init collector: %v", err)
	}

	if *serve {
		srv := startServer(cfg.MConfig, c, m, appLogger)
		defer srv.Stop()
	}

	switch {
	case *stats:
		s, err := c.GetDataStatistics(ctx)
		if err != nil {
			appLogger.Critical("Statistics failed: %v", err)
		}
		appLogger.Info("%d files, %d holidays, countries %v, years %v, last updated %s",
			s.TotalFiles, s.TotalHolidays, s.Countries, s.Years, s.LastUpdated.Format("2006-01-02 15:04:05"))

	case *country != "":
		y := *year
		if y == 0 {
			y = defaultYears()[0]
		}
		holidays, err := c.CollectHolidayData(ctx, *country, y, !*noCache)
		if err != nil {
			appLogger.Error("Collection of %s/%d failed: %v", strings.ToUpper(*country), y, err)
			if !*serve {
				os.Exit(1)
			}
		} else {
			appLogger.Info("Collected %d holidays for %s/%d", len(holidays), strings.ToUpper(*country), y)
		}

	case *all || *countries != "" || *year != 0:
		list := cfg.Collection.Countries
		if *countries != "" {
			list = splitList(*countries)
		}
		if len(list) == 0 {
			appLogger.Critical("No countries configured")
		}

		yearList, err := parseYears(*years)
		if err != nil {
			appLogger.Critical("%v", err)
		}
		switch {
		case *year != 0 && !*all:
			yearList = []int{*year}
		case len(yearList) == 0 && len(cfg.Collection.Years) > 0:
			yearList = cfg.Collection.Years
		case len(yearList) == 0:
			yearList = defaultYears()
		}

		failed := false
		for _, r := range c.CollectAllCountries(ctx, list, yearList) {
			appLogger.Info("%d: success=%v holidays=%d errors=%d duration=%v", r.Year, r.Success, r.HolidaysCollected, len(r.Errors), r.Duration)
			for _, e := range r.Errors {
				appLogger.Warning("  %s", e)
			}
			failed = failed || !r.Success
		}
		if failed && !*serve {
			os.Exit(2)
		}
	}

	if *serve {
		appLogger.Info("Serving on %s:%d, Ctrl+C to stop", cfg.Host, cfg.Port)
		<-ctx.Done()
		appLogger.Info("Shutting down...")
	}
}

// -----------------------------------------------------------------------------

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func parseYears(s string) ([]int, error) {
	var out []int
	for _, p := range splitList(s) {
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", p)
		}
		out = append(out, y)
	}
	return out, nil
}
