package interfaces

import (
	"context"

	"holiday-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// ICollector is the read/trigger surface of the collection orchestrator.
// -----------------------------------------------------------------------------

type ICollector interface {
	HasData(ctx context.Context, countryCode string, year int) bool
	CollectHolidayData(ctx context.Context, countryCode string, year int, useCache bool) ([]models.MHoliday, error)
	LoadHolidayData(ctx context.Context, countryCode string, year int) (*models.MHolidayDataFile, error)
	GetDataStatistics(ctx context.Context) (models.MDataStatistics, error)
}
