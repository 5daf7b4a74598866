package interfaces

import "context"

// -----------------------------------------------------------------------------
// IHolidayProvider talks to one external holiday provider.
// -----------------------------------------------------------------------------

type IHolidayProvider interface {

	// Name returns the provider identifier (models.ProviderCalendarific, models.ProviderNager)
	Name() string

	// -----------------------------------------------------------------------------

	// FetchRaw returns the provider's raw response body for one country/year.
	// Network errors and non-2xx responses are returned as fetch failures;
	// no retry and no normalization happen here.
	FetchRaw(ctx context.Context, countryCode string, year int) ([]byte, error)
}
