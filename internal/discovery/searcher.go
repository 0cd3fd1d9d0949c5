// Package discovery finds candidate businesses around a resolved center and
// turns them into provisionally classified leads.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/category"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/pkg/google"
)

// Defaults for a Searcher.
const (
	DefaultRadius      = 500
	DefaultTextRadius  = 10000
	DefaultPageDelay   = 2 * time.Second
	DefaultCallTimeout = 10 * time.Second
	DefaultMaxPages    = 2
)

// SearcherConfig tunes the directory calls made per search.
type SearcherConfig struct {
	Radius      int
	TextRadius  int
	PageDelay   time.Duration
	CallTimeout time.Duration
	MaxPages    int
	// DefaultTypes replaces category.DefaultTypes for queries without a category.
	DefaultTypes []string
}

func (c SearcherConfig) withDefaults() SearcherConfig {
	if c.Radius <= 0 {
		c.Radius = DefaultRadius
	}
	if c.TextRadius <= 0 {
		c.TextRadius = DefaultTextRadius
	}
	if c.PageDelay <= 0 {
		c.PageDelay = DefaultPageDelay
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	return c
}

// Collection is the deduplicated outcome of one search round.
type Collection struct {
	Mode          model.SearchMode
	Results       []model.RawResult
	TypesSearched []string
	APICalls      int
	// Failed lists the categories skipped because their search failed.
	Failed []string
}

// Searcher runs the directory calls for a query.
type Searcher struct {
	places google.Client
	cfg    SearcherConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSearcher creates a Searcher backed by places.
func NewSearcher(places google.Client, cfg SearcherConfig) *Searcher {
	return &Searcher{
		places: places,
		cfg:    cfg.withDefaults(),
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Collect searches around center. A business name selects a single text
// search; otherwise every category type is swept in order.
func (s *Searcher) Collect(ctx context.Context, q model.SearchQuery, center model.Center) (*Collection, error) {
	q = q.Trimmed()
	if q.BusinessName != "" {
		return s.byName(ctx, q, center)
	}
	return s.sweep(ctx, q, center)
}

// TextQuery joins name, city, postal code and category, skipping empty fields.
func TextQuery(q model.SearchQuery) string {
	q = q.Trimmed()
	parts := make([]string, 0, 4)
	for _, p := range []string{q.BusinessName, q.City, q.PostalCode, q.Category} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Types returns the category types a sweep for q would search.
func (s *Searcher) Types(q model.SearchQuery) []string {
	cat := strings.TrimSpace(q.Category)
	if cat == "" && len(s.cfg.DefaultTypes) > 0 {
		return append([]string(nil), s.cfg.DefaultTypes...)
	}
	return category.SearchTypes(cat)
}

func (s *Searcher) byName(ctx context.Context, q model.SearchQuery, center model.Center) (*Collection, error) {
	col := &Collection{Mode: model.SearchModeName}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	col.APICalls++
	resp, err := s.places.TextSearch(callCtx, google.TextSearchRequest{
		Query:    TextQuery(q),
		Location: latLng(center),
		Radius:   s.cfg.TextRadius,
	})
	if err != nil {
		return col, eris.Wrap(err, "discovery: text search")
	}

	seen := make(map[string]struct{}, len(resp.Results))
	col.Results = appendUnique(col.Results, seen, resp.Results)
	return col, nil
}

func (s *Searcher) sweep(ctx context.Context, q model.SearchQuery, center model.Center) (*Collection, error) {
	col := &Collection{Mode: model.SearchModeSweep}
	log := zap.L().With(zap.String("mode", string(col.Mode)))

	types := s.Types(q)
	seen := make(map[string]struct{})
	var lastErr error

	for _, typ := range types {
		if err := ctx.Err(); err != nil {
			return col, eris.Wrap(err, "discovery: sweep cancelled")
		}
		col.TypesSearched = append(col.TypesSearched, typ)

		places, calls, err := s.searchType(ctx, typ, q.Category, center)
		col.APICalls += calls
		col.Results = appendUnique(col.Results, seen, places)
		if err != nil {
			log.Warn("category search failed, skipping", zap.String("type", typ), zap.Error(err))
			col.Failed = append(col.Failed, typ)
			lastErr = err
		}
	}

	if len(types) > 0 && len(col.Failed) == len(types) {
		return col, eris.Wrap(lastErr, "discovery: every category search failed")
	}
	return col, nil
}

// searchType fetches up to MaxPages pages for one type. Results gathered
// before a failing page are returned alongside the error.
func (s *Searcher) searchType(ctx context.Context, typ, keyword string, center model.Center) ([]google.Place, int, error) {
	var (
		places []google.Place
		token  string
		calls  int
	)
	for page := 0; page < s.cfg.MaxPages; page++ {
		if page > 0 {
			if token == "" {
				break
			}
			// A fresh cursor is rejected until the upstream has had time to publish it.
			if err := s.sleep(ctx, s.cfg.PageDelay); err != nil {
				return places, calls, eris.Wrap(err, "discovery: page delay")
			}
		}

		calls++
		resp, err := s.nearby(ctx, google.NearbySearchRequest{
			Location:  latLng(center),
			Radius:    s.cfg.Radius,
			Type:      typ,
			Keyword:   keyword,
			PageToken: token,
		})
		if err != nil {
			if page > 0 {
				zap.L().Debug("next page failed, keeping first page", zap.String("type", typ), zap.Error(err))
				return places, calls, nil
			}
			return places, calls, err
		}
		places = append(places, resp.Results...)
		token = resp.NextPageToken
	}
	return places, calls, nil
}

func (s *Searcher) nearby(ctx context.Context, req google.NearbySearchRequest) (*google.SearchResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.places.NearbySearch(callCtx, req)
}

func appendUnique(dst []model.RawResult, seen map[string]struct{}, places []google.Place) []model.RawResult {
	for _, p := range places {
		if p.PlaceID == "" {
			continue
		}
		if _, ok := seen[p.PlaceID]; ok {
			continue
		}
		seen[p.PlaceID] = struct{}{}
		dst = append(dst, model.RawResult{
			PlaceID:  p.PlaceID,
			Name:     p.Name,
			Vicinity: p.Address(),
			Lat:      p.Geometry.Location.Lat,
			Lng:      p.Geometry.Location.Lng,
			Types:    p.Types,
		})
	}
	return dst
}

func latLng(c model.Center) google.LatLng {
	return google.LatLng{Lat: c.Lat, Lng: c.Lng}
}
