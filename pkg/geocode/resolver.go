package geocode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/model"
)

// DefaultCenter is used whenever a location cannot be resolved (Madrid).
var DefaultCenter = model.Center{Lat: 40.4168, Lng: -3.7038}

// DefaultRegion biases every query toward Spain.
const DefaultRegion = "Spain"

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFallback overrides the center used when resolution fails.
func WithFallback(c model.Center) ResolverOption {
	return func(r *Resolver) {
		r.fallback = c
	}
}

// WithRegion overrides the country suffix appended to every query. An empty
// region sends the location as-is.
func WithRegion(region string) ResolverOption {
	return func(r *Resolver) {
		r.region = strings.TrimSpace(region)
	}
}

// WithCache enables a center cache in front of the client.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

// Resolver turns a location into a search center. It never fails: every
// problem degrades to the fallback center.
type Resolver struct {
	client   Client
	fallback model.Center
	region   string
	cache    Cache
}

// NewResolver creates a Resolver backed by client.
func NewResolver(client Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:   client,
		fallback: DefaultCenter,
		region:   DefaultRegion,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Fallback returns the center used when resolution fails.
func (r *Resolver) Fallback() model.Center {
	return r.fallback
}

// Resolve returns the center for location. The boolean reports whether the
// center came from a real match rather than the fallback.
func (r *Resolver) Resolve(ctx context.Context, location string) (model.Center, bool) {
	location = strings.TrimSpace(location)
	if location == "" || r.client == nil {
		return r.fallback, false
	}

	query := location
	if r.region != "" {
		query += "," + r.region
	}
	log := zap.L().With(zap.String("location", location))

	key := cacheKey(query)
	if r.cache != nil {
		c, ok, err := r.cache.GetCenter(ctx, key)
		if err != nil {
			log.Debug("geocode: cache lookup failed", zap.Error(err))
		} else if ok {
			log.Debug("geocode: cache hit")
			return c, true
		}
	}

	res, err := r.client.Geocode(ctx, query)
	if err != nil {
		log.Warn("geocode: lookup failed, using fallback center", zap.Error(err))
		return r.fallback, false
	}
	if !res.Matched {
		log.Info("geocode: no match, using fallback center", zap.String("status", res.Status))
		return r.fallback, false
	}

	c := model.Center{Lat: res.Latitude, Lng: res.Longitude}
	if r.cache != nil {
		if err := r.cache.PutCenter(ctx, key, query, c); err != nil {
			log.Debug("geocode: cache store failed", zap.Error(err))
		}
	}
	return c, true
}
