// Package model defines the lead records shared by search, enrichment and the
// application layer.
package model

import "strings"

// Temperature is the opportunity tier assigned to a business.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCool Temperature = "cool"
	TemperatureCold Temperature = "cold"
)

// Temperatures lists every tier from highest to lowest opportunity.
var Temperatures = []Temperature{TemperatureHot, TemperatureWarm, TemperatureCool, TemperatureCold}

// ParseTemperature returns the tier named by s, or false if s is not a tier.
func ParseTemperature(s string) (Temperature, bool) {
	t := Temperature(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Temperatures {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// WebsiteStatus is the tri-state knowledge about a business website.
type WebsiteStatus int

const (
	WebsiteUnknown WebsiteStatus = iota
	WebsiteAbsent
	WebsitePresent
)

func (s WebsiteStatus) String() string {
	switch s {
	case WebsiteAbsent:
		return "absent"
	case WebsitePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Center is a coordinate pair.
type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchQuery is the user's search input. At least one field must be set.
type SearchQuery struct {
	PostalCode   string `json:"postalCode,omitempty"`
	City         string `json:"city,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Category     string `json:"category,omitempty"`
}

// Trimmed returns a copy of q with surrounding whitespace removed from every field.
func (q SearchQuery) Trimmed() SearchQuery {
	return SearchQuery{
		PostalCode:   strings.TrimSpace(q.PostalCode),
		City:         strings.TrimSpace(q.City),
		BusinessName: strings.TrimSpace(q.BusinessName),
		Category:     strings.TrimSpace(q.Category),
	}
}

// Empty reports whether no search criterion was given.
func (q SearchQuery) Empty() bool {
	t := q.Trimmed()
	return t.PostalCode == "" && t.City == "" && t.BusinessName == "" && t.Category == ""
}

// Location returns the text used to geocode the query: postal code first, then city.
func (q SearchQuery) Location() string {
	t := q.Trimmed()
	if t.PostalCode != "" {
		return t.PostalCode
	}
	return t.City
}

// RawResult is a single places directory hit. It never leaves the search pipeline.
type RawResult struct {
	PlaceID  string
	Name     string
	Vicinity string
	Lat      float64
	Lng      float64
	Types    []string
}

// Classification is the outcome of scoring one business.
type Classification struct {
	Temperature Temperature `json:"temperature"`
	Score       int         `json:"score"`
	Reason      string      `json:"reason"`
}

// Business is the externally visible lead record. HasWebsite is nil while the
// website status is unknown, which is also when NeedsDetails is true.
type Business struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Address            string      `json:"address"`
	Phone              string      `json:"phone"`
	Category           string      `json:"category"`
	PostalCode         string      `json:"postalCode"`
	Lat                float64     `json:"lat"`
	Lng                float64     `json:"lng"`
	Temperature        Temperature `json:"temperature"`
	Score              int         `json:"score"`
	PotentialReason    string      `json:"potentialReason"`
	HasWebsite         *bool       `json:"hasWebsite"`
	Website            string      `json:"website,omitempty"`
	Rating             *float64    `json:"rating"`
	ReviewCount        *int        `json:"reviewCount"`
	SearchedPostalCode string      `json:"searchedPostalCode"`
	PostalCodeMatch    bool        `json:"postalCodeMatch"`
	NeedsDetails       bool        `json:"needsDetails"`
}

// WebsiteStatus derives the tri-state website status from HasWebsite.
func (b Business) WebsiteStatus() WebsiteStatus {
	switch {
	case b.HasWebsite == nil:
		return WebsiteUnknown
	case *b.HasWebsite:
		return WebsitePresent
	default:
		return WebsiteAbsent
	}
}

// Apply sets the classification fields of b.
func (b *Business) Apply(c Classification) {
	b.Temperature = c.Temperature
	b.Score = c.Score
	b.PotentialReason = c.Reason
}

// Provisional reports whether b still awaits enrichment and carries none of
// the enriched fields.
func (b Business) Provisional() bool {
	return b.HasWebsite == nil && b.NeedsDetails &&
		b.Phone == "" && b.Website == "" && b.Rating == nil && b.ReviewCount == nil
}

// Details is the authoritative data fetched for one place on demand.
type Details struct {
	Phone       string   `json:"phone"`
	Website     *string  `json:"website"`
	HasWebsite  bool     `json:"hasWebsite"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"reviewCount"`
	PostalCode  string   `json:"postalCode"`
	FullAddress string   `json:"fullAddress"`
}

// SearchResult is what a search hands back to the application layer.
type SearchResult struct {
	Businesses []Business `json:"businesses"`
	Center     Center     `json:"center"`
	PostalCode string     `json:"postalCode"`
}
