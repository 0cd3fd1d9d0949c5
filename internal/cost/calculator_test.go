package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadfinder/internal/model"
)

func TestNewCalculator_Defaults(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{Details: 17})

	r := calc.Rates()
	assert.Equal(t, 17.0, r.Details)
	assert.Equal(t, DefaultRates().NearbySearch, r.NearbySearch)
	assert.Equal(t, DefaultRates().Geocode, r.Geocode)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{NearbySearch: 32, TextSearch: 40})

	tests := []struct {
		name  string
		mode  model.SearchMode
		calls int
		want  float64
	}{
		{name: "sweep", mode: model.SearchModeSweep, calls: 24, want: 24 * 0.032},
		{name: "name", mode: model.SearchModeName, calls: 1, want: 0.040},
		{name: "none", mode: model.SearchModeSweep, calls: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Search(tt.mode, tt.calls), 1e-9)
		})
	}
}

func TestDetailsAndGeocode(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())
	assert.InDelta(t, 0.2, calc.Details(10), 1e-9)
	assert.InDelta(t, 0.005, calc.Geocode(1), 1e-9)
}

func TestRun(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	resolved := model.SearchRun{Mode: model.SearchModeSweep, APICalls: 10, Resolved: true}
	assert.InDelta(t, 0.32+0.005, calc.Run(resolved), 1e-9)

	fallback := model.SearchRun{Mode: model.SearchModeName, APICalls: 1}
	assert.InDelta(t, 0.032, calc.Run(fallback), 1e-9)
}
