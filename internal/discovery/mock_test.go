package discovery

import (
	"context"
	"time"

	"github.com/sells-group/leadfinder/internal/model"
)

// fixedRand always draws the lowest score in a band.
type fixedRand struct{}

func (fixedRand) IntN(int) int { return 0 }

type fakeResolver struct {
	center    model.Center
	resolved  bool
	locations []string
}

func (f *fakeResolver) Resolve(_ context.Context, location string) (model.Center, bool) {
	f.locations = append(f.locations, location)
	return f.center, f.resolved
}

type fakeRuns struct {
	runs []*model.SearchRun
	err  error
}

func (f *fakeRuns) RecordRun(_ context.Context, run *model.SearchRun) error {
	f.runs = append(f.runs, run)
	return f.err
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}
