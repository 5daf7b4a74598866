package collector

import (
	"context"
	"sort"
	"strings"

	"holiday-pipeline/src/models"
)

// GetDataStatistics aggregates every persisted holiday file. Unreadable files
// are skipped with a warning.
func (c *HolidayCollector) GetDataStatistics(ctx context.Context) (models.MDataStatistics, error) {
	stats := models.MDataStatistics{Countries: []string{}, Years: []int{}}

	keys, err := c.DataStore.List(ctx, "")
	if err != nil {
		return stats, err
	}

	countries := make(map[string]struct{})
	years := make(map[int]struct{})

	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		data, found, err := c.DataStore.Get(ctx, key)
		if err != nil || !found {
			c.Logger.Warning("Skipping %s: unreadable (%v)", key, err)
			continue
		}
		file, err := c.decode(key, data)
		if err != nil {
			c.Logger.Warning("Skipping %s: %v", key, err)
			continue
		}

		stats.TotalFiles++
		stats.TotalHolidays += len(file.Holidays)
		countries[strings.ToUpper(file.CountryCode)] = struct{}{}
		years[file.Year] = struct{}{}
		if file.LastUpdated.After(stats.LastUpdated) {
			stats.LastUpdated = file.LastUpdated
		}
	}

	for cc := range countries {
		stats.Countries = append(stats.Countries, cc)
	}
	for y := range years {
		stats.Years = append(stats.Years, y)
	}
	sort.Strings(stats.Countries)
	sort.Ints(stats.Years)
	return stats, nil
}
