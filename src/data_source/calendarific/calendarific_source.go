package calendarific

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// DefaultBaseURL is the public Calendarific v2 API.
const DefaultBaseURL = "https://calendarific.com/api/v2"

// CalendarificSource is the keyed provider. Requests carry the API key and
// filters as query parameters:
//
//	GET /holidays?api_key=…&country=…&year=…&type=national
type CalendarificSource struct {
	BaseURL string
	APIKey  string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCalendarificSource(cfg models.MProviderConfig, netMgr interfaces.INetworkManager) (*CalendarificSource, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, helpers.NewConfigurationError("calendarific provider requires an api key", nil)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &CalendarificSource{
		BaseURL: base,
		APIKey:  apiKey,
		Network: netMgr,
		Logger:  logger.NewLogger(nil, "CalendarificSource"),
	}, nil
}

// -----------------------------------------------------------------------------

func (s *CalendarificSource) Name() string {
	return models.ProviderCalendarific
}

// -----------------------------------------------------------------------------

// FetchRaw returns the unparsed response body.
func (s *CalendarificSource) FetchRaw(ctx context.Context, countryCode string, year int) ([]byte, error) {
	params := map[string]string{
		"api_key": s.APIKey,
		"country": strings.ToUpper(countryCode),
		"year":    strconv.Itoa(year),
		"type":    "national",
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/holidays", params, nil)
	if err != nil {
		return nil, fmt.Errorf("calendarific %s/%d: %w", countryCode, year, err)
	}
	s.Logger.Debug("Fetched %s/%d (%d bytes)", countryCode, year, len(body))
	return body, nil
}
