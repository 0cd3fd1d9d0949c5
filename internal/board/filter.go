package board

import (
	"slices"

	"github.com/sells-group/leadfinder/internal/model"
)

// Filter narrows a collection for display. The zero Filter keeps everything.
type Filter struct {
	// Temperatures keeps only these tiers. Empty keeps every tier.
	Temperatures []model.Temperature `json:"temperatures,omitempty"`
	// OnlyWithoutWebsite drops records confirmed to have a website. Records
	// whose status is unknown are kept.
	OnlyWithoutWebsite bool `json:"onlyWithoutWeb,omitempty"`
	// Categories keeps only these labels. Empty keeps every label.
	Categories []string `json:"categories,omitempty"`
	MinScore   int      `json:"minScore,omitempty"`
}

// Match reports whether rec passes f.
func (f Filter) Match(rec model.Business) bool {
	if len(f.Temperatures) > 0 && !slices.Contains(f.Temperatures, rec.Temperature) {
		return false
	}
	if f.OnlyWithoutWebsite && rec.WebsiteStatus() == model.WebsitePresent {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, rec.Category) {
		return false
	}
	return rec.Score >= f.MinScore
}

// Apply returns the records passing f, in their original order.
func (f Filter) Apply(recs []model.Business) []model.Business {
	out := make([]model.Business, 0, len(recs))
	for _, rec := range recs {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// AvailableCategories returns the sorted distinct category labels in recs.
func AvailableCategories(recs []model.Business) []string {
	cats := make([]string, 0, len(recs))
	for _, rec := range recs {
		cats = append(cats, rec.Category)
	}
	slices.Sort(cats)
	return slices.Compact(cats)
}

// Stats is the summary shown above a result list.
type Stats struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	// Hot counts hot records among the filtered ones.
	Hot int `json:"hot"`
	// WithoutWebsite counts records confirmed to have no website.
	WithoutWebsite int `json:"withoutWebsite"`
	// Unknown counts records whose website status is still unknown.
	Unknown int `json:"unknown"`
}

// ComputeStats summarizes recs and the subset selected by f.
func ComputeStats(recs []model.Business, f Filter) Stats {
	s := Stats{Total: len(recs)}
	for _, rec := range recs {
		switch rec.WebsiteStatus() {
		case model.WebsiteAbsent:
			s.WithoutWebsite++
		case model.WebsiteUnknown:
			s.Unknown++
		}
		if f.Match(rec) {
			s.Filtered++
			if rec.Temperature == model.TemperatureHot {
				s.Hot++
			}
		}
	}
	return s
}
