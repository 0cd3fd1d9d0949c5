// Package cost estimates Google Maps Platform spend from call counts.
package cost

import "github.com/sells-group/leadfinder/internal/model"

// Rates holds per-endpoint pricing in USD per thousand requests.
type Rates struct {
	NearbySearch float64 `yaml:"nearby_search" mapstructure:"nearby_search"`
	TextSearch   float64 `yaml:"text_search" mapstructure:"text_search"`
	Details      float64 `yaml:"details" mapstructure:"details"`
	Geocode      float64 `yaml:"geocode" mapstructure:"geocode"`
}

// DefaultRates returns list pricing for the fields requested.
func DefaultRates() Rates {
	return Rates{
		NearbySearch: 32.00,
		TextSearch:   32.00,
		Details:      20.00,
		Geocode:      5.00,
	}
}

// withDefaults fills zero rates from DefaultRates.
func (r Rates) withDefaults() Rates {
	d := DefaultRates()
	if r.NearbySearch <= 0 {
		r.NearbySearch = d.NearbySearch
	}
	if r.TextSearch <= 0 {
		r.TextSearch = d.TextSearch
	}
	if r.Details <= 0 {
		r.Details = d.Details
	}
	if r.Geocode <= 0 {
		r.Geocode = d.Geocode
	}
	return r
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Zero rates fall
// back to DefaultRates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates.withDefaults()}
}

// Rates returns the effective rates.
func (c *Calculator) Rates() Rates { return c.rates }

func perCall(perThousand float64, calls int) float64 {
	return float64(calls) * perThousand / 1000
}

// Search returns the cost of the directory calls made by one search. A
// sweep bills nearby searches; a name search bills text searches.
func (c *Calculator) Search(mode model.SearchMode, calls int) float64 {
	if mode == model.SearchModeName {
		return perCall(c.rates.TextSearch, calls)
	}
	return perCall(c.rates.NearbySearch, calls)
}

// Details returns the cost of calls details lookups.
func (c *Calculator) Details(calls int) float64 {
	return perCall(c.rates.Details, calls)
}

// Geocode returns the cost of calls geocoding requests.
func (c *Calculator) Geocode(calls int) float64 {
	return perCall(c.rates.Geocode, calls)
}

// Run returns the estimated cost of a recorded search. Geocoding is billed
// once unless the center came from the fallback without a match.
func (c *Calculator) Run(r model.SearchRun) float64 {
	total := c.Search(r.Mode, r.APICalls)
	if r.Resolved {
		total += c.Geocode(1)
	}
	return total
}
