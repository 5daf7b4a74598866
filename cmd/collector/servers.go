package main

import (
	"holiday-pipeline/src/collector"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/server"
)

// -----------------------------------------------------------------------------

// startServer starts the API server in the background and attaches it to the
// collector as its event exchanger.
func startServer(config *models.MConfig, c *collector.HolidayCollector, m *metrics.Metrics, appLogger *logger.Logger) *server.APIServer {
	srv := server.NewAPIServer(config, c, m, logger.NewLogger(config, "APIServer"))
	c.Exchanger = srv

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()
	return srv
}
