package nager

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// DefaultBaseURL is the public Nager.Date v3 API.
const DefaultBaseURL = "https://date.nager.at/api/v3"

// NagerSource is the keyless provider. Country and year are path parameters:
//
//	GET /PublicHolidays/{year}/{countryCode}
type NagerSource struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNagerSource(cfg models.MProviderConfig, netMgr interfaces.INetworkManager) *NagerSource {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &NagerSource{
		BaseURL: base,
		Network: netMgr,
		Logger:  logger.NewLogger(nil, "NagerSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *NagerSource) Name() string {
	return models.ProviderNager
}

// -----------------------------------------------------------------------------

// FetchRaw returns the unparsed response body.
func (s *NagerSource) FetchRaw(ctx context.Context, countryCode string, year int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/PublicHolidays/%d/%s", s.BaseURL, year, url.PathEscape(strings.ToUpper(countryCode)))

	body, err := s.Network.Get(ctx, endpoint, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("nager %s/%d: %w", countryCode, year, err)
	}
	s.Logger.Debug("Fetched %s/%d (%d bytes)", countryCode, year, len(body))
	return body, nil
}
