package discovery

import (
	"github.com/sells-group/leadfinder/internal/category"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/postal"
	"github.com/sells-group/leadfinder/internal/scoring"
)

// NewProvisional builds the lead record for a raw hit. The website status is
// unknown, so the record is flagged for enrichment and scored provisionally.
func NewProvisional(raw model.RawResult, searchedPostal string, rule postal.Rule, c *scoring.Classifier) model.Business {
	if rule == nil {
		rule = postal.Spain
	}
	label := category.Label(raw.Types)
	extracted := rule.Extract(raw.Vicinity)

	b := model.Business{
		ID:                 raw.PlaceID,
		Name:               raw.Name,
		Address:            raw.Vicinity,
		Category:           label,
		PostalCode:         extracted,
		Lat:                raw.Lat,
		Lng:                raw.Lng,
		SearchedPostalCode: searchedPostal,
		PostalCodeMatch:    postal.Match(searchedPostal, extracted),
		NeedsDetails:       true,
	}
	b.Apply(c.Provisional(label))
	return b
}
