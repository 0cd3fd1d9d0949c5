// Package monitoring watches recorded searches for failure and geocoding
// fallback spikes and posts alerts to a webhook.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/cost"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/store"
)

// MetricsSnapshot holds a point-in-time view of search health.
type MetricsSnapshot struct {
	Total        int     `json:"total"`
	NameRuns     int     `json:"name_runs"`
	SweepRuns    int     `json:"sweep_runs"`
	Failed       int     `json:"failed"`
	FailRate     float64 `json:"fail_rate"`
	Fallback     int     `json:"fallback"`
	FallbackRate float64 `json:"fallback_rate"`
	Empty        int     `json:"empty"`
	AvgAPICalls  float64 `json:"avg_api_calls"`
	AvgResults   float64 `json:"avg_results"`
	CostUSD      float64 `json:"cost_usd"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister abstracts the store method needed by the collector.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.SearchRun, error)
}

// Collector gathers metrics from recorded searches.
type Collector struct {
	runs RunLister
	calc *cost.Calculator
	now  func() time.Time
}

// NewCollector creates a new metrics collector. A nil calc uses the default
// rates.
func NewCollector(runs RunLister, calc *cost.Calculator) *Collector {
	return &Collector{runs: runs, calc: calc, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap := Summarize(runs, c.calc)
	snap.LookbackHours = lookbackHours
	snap.CollectedAt = now
	return snap, nil
}

// Summarize computes aggregate statistics from a set of runs.
func Summarize(runs []model.SearchRun, calc *cost.Calculator) *MetricsSnapshot {
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	snap := &MetricsSnapshot{Total: len(runs)}

	var calls, results int
	for _, r := range runs {
		switch r.Mode {
		case model.SearchModeName:
			snap.NameRuns++
		case model.SearchModeSweep:
			snap.SweepRuns++
		}
		// Location-less queries never reach the geocoder.
		if !r.Resolved && r.Query.Location() != "" {
			snap.Fallback++
		}
		switch {
		case r.Error != "":
			snap.Failed++
		case r.ResultCount == 0:
			snap.Empty++
		}
		calls += r.APICalls
		results += r.ResultCount
		snap.CostUSD += calc.Run(r)
	}

	if snap.Total > 0 {
		n := float64(snap.Total)
		snap.FailRate = float64(snap.Failed) / n
		snap.FallbackRate = float64(snap.Fallback) / n
		snap.AvgAPICalls = float64(calls) / n
		snap.AvgResults = float64(results) / n
	}
	return snap
}
