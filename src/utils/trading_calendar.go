package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// countryExchanges maps a country to the MIC (ISO 10383) of its main exchange.
// See scmhub/calendar for supported MICs.
var countryExchanges = map[string]string{
	"US": "xnys",
	"GB": "xlon",
	"FR": "xpar",
	"DE": "xfra",
	"NL": "xams",
	"BE": "xbru",
	"IT": "xmil",
	"ES": "xmad",
	"SE": "xsto",
	"DK": "xcse",
	"FI": "xhel",
	"AT": "xwbo",
	"CH": "xswx",
	"CA": "xtse",
	"JP": "xtks",
	"HK": "xhkg",
	"AU": "xasx",
	"KR": "xkrx",
	"TW": "xtai",
	"CN": "xshg",
}

// ExchangeCalendar is the trading calendar of a country's main exchange,
// used to cross-check collected public holidays.
type ExchangeCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetExchangeCalendar returns nil when the country has no mapped exchange or
// the library does not know the MIC.
func GetExchangeCalendar(countryCode string) *ExchangeCalendar {
	mic, ok := countryExchanges[strings.ToUpper(countryCode)]
	if !ok {
		return nil
	}

	// scmhub/calendar.GetCalendar returns a calendar by MIC
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return nil
	}
	return &ExchangeCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the exchange is open on the given date.
func (ec *ExchangeCalendar) IsTradingDay(date time.Time) bool {
	if ec.Timezone != nil {
		date = time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, ec.Timezone)
	}
	return ec.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// OpenOnHolidays returns the ISO dates (YYYY-MM-DD) among dates that fall on a
// weekday but are still trading days on the exchange. Unparseable dates are
// ignored.
func (ec *ExchangeCalendar) OpenOnHolidays(dates []string) []string {
	var open []string
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if ec.IsTradingDay(t) {
			open = append(open, d)
		}
	}
	return open
}
