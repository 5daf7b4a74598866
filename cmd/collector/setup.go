package main

import (
	"context"
	"time"

	"holiday-pipeline/src/cache"
	"holiday-pipeline/src/collector"
	datasource "holiday-pipeline/src/data_source"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/network"
	"holiday-pipeline/src/storage"
	"holiday-pipeline/src/utils"
	"holiday-pipeline/src/validation"
)

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) interfaces.INetworkManager {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	return network.NewNetworkManager(config, networkLogger)
}

// -----------------------------------------------------------------------------

// setupDataSources registers the configured provider in a MultiSourceManager.
func setupDataSources(config *models.MConfig, appLogger *logger.Logger, networkManager interfaces.INetworkManager) (*datasource.MultiSourceManager, error) {
	appLogger.Info("Initializing data source %s...", config.Provider.Name)

	provider, err := datasource.NewProviderFromConfig(config, networkManager)
	if err != nil {
		return nil, err
	}
	return datasource.NewMultiSourceManager([]interfaces.IHolidayProvider{provider}, appLogger), nil
}

// -----------------------------------------------------------------------------

// setupCollector wires storage, caches, validation and the source into a collector.
func setupCollector(ctx context.Context, config *models.MConfig, provider interfaces.IHolidayProvider, m *metrics.Metrics) (*collector.HolidayCollector, error) {
	dataStore, err := storage.NewStorage(ctx, config.Storage, config.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	rawStore, err := storage.NewStorage(ctx, config.Storage, config.Storage.RawCacheDir)
	if err != nil {
		return nil, err
	}
	cacheStore, err := storage.NewStorage(ctx, config.Storage, config.Storage.CollectorCacheDir)
	if err != nil {
		return nil, err
	}

	clock := cache.SystemClock{}
	rawCache := cache.NewRawFileCache(rawStore, clock,
		utils.DurationHours(config.Collection.RawCacheTTLHours, utils.DefaultRawCacheTTL),
		logger.NewLogger(config, "RawFileCache"))
	dualCache := cache.NewDualCache[[]models.MHoliday](cacheStore, clock,
		utils.DurationHours(config.Collection.DualCacheTTLHours, utils.DefaultDualCacheTTL),
		logger.NewLogger(config, "DualCache"))

	policy := helpers.DefaultRetryPolicy()
	policy.MaxAttempts = config.Network.MaxAttempts
	policy.BaseDelay = utils.DurationMs(config.Network.RetryBaseDelayMs, helpers.DefaultRetryBaseDelay)

	source := datasource.NewHolidaySource(provider, rawCache, policy, m, logger.NewLogger(config, "HolidaySource"))
	validator := validation.NewValidator(clock, logger.NewLogger(config, "Validator"))

	c := collector.NewHolidayCollector(source, validator, dualCache, dataStore, logger.NewLogger(config, "Collector"))
	c.Metrics = m
	c.Clock = clock
	c.RequestDelay = utils.DurationMs(config.Collection.RequestDelayMs, utils.DefaultRequestDelay)
	c.YearDelay = utils.DurationMs(config.Collection.YearDelayMs, utils.DefaultYearDelay)
	c.ExchangeAudit = config.Collection.ExchangeAudit
	return c, nil
}

// -----------------------------------------------------------------------------

// defaultYears is the current and next year.
func defaultYears() []int {
	y := time.Now().Year()
	return []int{y, y + 1}
}
