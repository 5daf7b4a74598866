package collector

import (
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/utils"
)

// auditExchange logs public weekday holidays on which the country's main
// exchange still trades. Informational only.
func (c *HolidayCollector) auditExchange(countryCode string, holidays []models.MHoliday) {
	ec := utils.GetExchangeCalendar(countryCode)
	if ec == nil {
		return
	}

	var dates []string
	for _, h := range holidays {
		if h.Type == models.HolidayTypePublic && h.Global {
			dates = append(dates, h.Date)
		}
	}

	open := ec.OpenOnHolidays(dates)
	if len(open) > 0 {
		c.Logger.Info("Exchange %s trades on %d public holidays of %s: %v", ec.MIC, len(open), countryCode, open)
	}
}
