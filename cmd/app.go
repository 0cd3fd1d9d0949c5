package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/config"
	"github.com/sells-group/leadfinder/internal/discovery"
	"github.com/sells-group/leadfinder/internal/enrich"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/postal"
	"github.com/sells-group/leadfinder/internal/resilience"
	"github.com/sells-group/leadfinder/internal/scoring"
	"github.com/sells-group/leadfinder/internal/store"
	"github.com/sells-group/leadfinder/pkg/geocode"
	"github.com/sells-group/leadfinder/pkg/google"
)

// app holds the collaborators shared by the commands.
type app struct {
	store   store.Store
	service *discovery.Service
	gate    *enrich.Gate
}

// initStore opens the configured store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initApp wires the places client, resolver, search service and details
// gate from cfg.
func initApp(ctx context.Context, c *config.Config) (*app, error) {
	rule, err := postal.ByName(c.Search.PostalRule)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: c.Google.Timeout}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:      "google-places",
		Threshold: c.Google.BreakerThreshold,
		Cooldown:  c.Google.BreakerCooldown,
		Trips:     google.Trips,
	})
	places := google.NewClient(c.Google.Key,
		google.WithBaseURL(c.Google.PlacesBaseURL),
		google.WithHTTPClient(hc),
		google.WithRateLimit(c.Google.RateLimit),
		google.WithBreaker(breaker),
	)

	resolverOpts := []geocode.ResolverOption{
		geocode.WithFallback(model.Center{Lat: c.Search.DefaultLat, Lng: c.Search.DefaultLng}),
		geocode.WithRegion(c.Search.GeocodeRegion),
	}
	if c.Search.CacheGeocode {
		resolverOpts = append(resolverOpts, geocode.WithCache(st))
	}
	resolver := geocode.NewResolver(
		geocode.NewClient(c.Google.Key,
			geocode.WithBaseURL(c.Google.GeocodeBaseURL),
			geocode.WithHTTPClient(hc),
			geocode.WithRateLimit(c.Google.RateLimit),
		),
		resolverOpts...,
	)

	classifier := scoring.NewClassifier(nil)
	searcher := discovery.NewSearcher(places, discovery.SearcherConfig{
		Radius:       c.Search.Radius,
		TextRadius:   c.Search.TextRadius,
		PageDelay:    c.Search.PageDelay,
		CallTimeout:  c.Search.CallTimeout,
		MaxPages:     c.Search.MaxPages,
		DefaultTypes: c.Search.DefaultTypes,
	})
	service := discovery.NewService(resolver, searcher,
		discovery.WithPostalRule(rule),
		discovery.WithClassifier(classifier),
		discovery.WithRunRecorder(st),
	)
	gate := enrich.NewGate(places,
		enrich.WithTimeout(c.Enrich.Timeout),
		enrich.WithPostalRule(rule),
		enrich.WithClassifier(classifier),
	)

	zap.L().Debug("app initialized",
		zap.String("store", c.Store.Driver),
		zap.String("postal_rule", rule.Name()),
		zap.Bool("cache_geocode", c.Search.CacheGeocode),
	)

	return &app{
		store:   st,
		service: service,
		gate:    gate,
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
