package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/postal"
	"github.com/sells-group/leadfinder/internal/scoring"
)

// ErrNoCriteria is returned when a query carries no search field.
var ErrNoCriteria = eris.New("at least one search criterion is required")

// Resolver turns a location into a search center.
type Resolver interface {
	Resolve(ctx context.Context, location string) (model.Center, bool)
}

// RunRecorder persists the audit record of a search.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.SearchRun) error
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPostalRule overrides the rule used to extract postal codes from addresses.
func WithPostalRule(r postal.Rule) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.rule = r
		}
	}
}

// WithClassifier overrides the classifier used for provisional scores.
func WithClassifier(c *scoring.Classifier) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithRunRecorder records every search in runs.
func WithRunRecorder(runs RunRecorder) ServiceOption {
	return func(s *Service) {
		s.runs = runs
	}
}

// Service answers search queries end to end: resolve, collect, classify, rank.
type Service struct {
	resolver   Resolver
	searcher   *Searcher
	classifier *scoring.Classifier
	rule       postal.Rule
	runs       RunRecorder
	now        func() time.Time
}

// NewService creates a Service.
func NewService(resolver Resolver, searcher *Searcher, opts ...ServiceOption) *Service {
	s := &Service{
		resolver:   resolver,
		searcher:   searcher,
		classifier: scoring.NewClassifier(nil),
		rule:       postal.Spain,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search runs one search round. No details are fetched: every returned record
// is provisional and flagged for enrichment.
func (s *Service) Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	if q.Empty() {
		return nil, ErrNoCriteria
	}
	q = q.Trimmed()
	log := zap.L().With(
		zap.String("postal_code", q.PostalCode),
		zap.String("city", q.City),
		zap.String("business_name", q.BusinessName),
		zap.String("category", q.Category),
	)

	center, resolved := s.resolver.Resolve(ctx, q.Location())
	log.Debug("search center", zap.Float64("lat", center.Lat), zap.Float64("lng", center.Lng), zap.Bool("resolved", resolved))

	col, err := s.searcher.Collect(ctx, q, center)
	run := &model.SearchRun{
		Query:     q,
		Center:    center,
		Resolved:  resolved,
		CreatedAt: s.now().UTC(),
	}
	if col != nil {
		run.Mode = col.Mode
		run.TypesSearched = len(col.TypesSearched)
		run.APICalls = col.APICalls
	}
	if err != nil {
		run.Error = err.Error()
		s.record(ctx, run)
		return nil, err
	}

	businesses := make([]model.Business, 0, len(col.Results))
	for _, raw := range col.Results {
		businesses = append(businesses, NewProvisional(raw, q.PostalCode, s.rule, s.classifier))
	}
	model.Rank(businesses)

	run.ResultCount = len(businesses)
	s.record(ctx, run)

	log.Info("search complete",
		zap.String("mode", string(col.Mode)),
		zap.Int("places_found", len(col.Results)),
		zap.Int("types_searched", len(col.TypesSearched)),
		zap.Int("types_failed", len(col.Failed)),
		zap.Int("api_calls", col.APICalls),
		zap.Int("details_calls", 0),
	)

	return &model.SearchResult{
		Businesses: businesses,
		Center:     center,
		PostalCode: q.PostalCode,
	}, nil
}

func (s *Service) record(ctx context.Context, run *model.SearchRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		zap.L().Warn("record search run failed", zap.Error(err))
	}
}
