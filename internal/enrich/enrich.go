// Package enrich fetches authoritative details for one lead on demand and
// reclassifies it with its confirmed website status.
package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/postal"
	"github.com/sells-group/leadfinder/internal/scoring"
	"github.com/sells-group/leadfinder/pkg/google"
)

// DefaultTimeout bounds one details call.
const DefaultTimeout = 10 * time.Second

// ErrDetailsUnavailable is matched by every enrichment failure.
var ErrDetailsUnavailable = eris.New("could not fetch business details")

// DetailsError reports a failed details fetch for one place.
type DetailsError struct {
	PlaceID string
	Err     error
}

func (e *DetailsError) Error() string { return ErrDetailsUnavailable.Error() }

func (e *DetailsError) Unwrap() error { return e.Err }

// Is matches ErrDetailsUnavailable.
func (e *DetailsError) Is(target error) bool { return target == ErrDetailsUnavailable }

// DetailsClient is the part of the places client the gate needs.
type DetailsClient interface {
	Details(ctx context.Context, placeID string, fields []string) (*google.DetailsResponse, error)
}

// Option configures a Gate.
type Option func(*Gate)

// WithTimeout bounds each details call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithPostalRule sets the rule used when the details lack a postal_code component.
func WithPostalRule(r postal.Rule) Option {
	return func(g *Gate) {
		if r != nil {
			g.rule = r
		}
	}
}

// WithClassifier overrides the classifier used for confirmed scores.
func WithClassifier(c *scoring.Classifier) Option {
	return func(g *Gate) {
		if c != nil {
			g.classifier = c
		}
	}
}

// Gate fetches details at most once at a time per place id. Calls for
// different ids run concurrently.
type Gate struct {
	places     DetailsClient
	classifier *scoring.Classifier
	rule       postal.Rule
	timeout    time.Duration
	group      singleflight.Group
}

// NewGate creates a Gate backed by places.
func NewGate(places DetailsClient, opts ...Option) *Gate {
	g := &Gate{
		places:     places,
		classifier: scoring.NewClassifier(nil),
		rule:       postal.Spain,
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Details returns the authoritative details for placeID. Concurrent calls
// for the same id share one upstream request.
func (g *Gate) Details(ctx context.Context, placeID string) (*model.Details, error) {
	if placeID == "" {
		return nil, &DetailsError{Err: eris.New("empty place id")}
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := g.group.DoChan(placeID, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.fetch(fctx, placeID)
	})

	select {
	case <-ctx.Done():
		return nil, &DetailsError{PlaceID: placeID, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			zap.L().Warn("details fetch failed", zap.String("place_id", placeID), zap.Error(res.Err))
			return nil, &DetailsError{PlaceID: placeID, Err: res.Err}
		}
		d := *res.Val.(*model.Details)
		return &d, nil
	}
}

func (g *Gate) fetch(ctx context.Context, placeID string) (*model.Details, error) {
	resp, err := g.places.Details(ctx, placeID, google.DetailsFields)
	if err != nil {
		return nil, err
	}
	return toDetails(resp.Result, g.rule), nil
}

func toDetails(r google.PlaceDetails, rule postal.Rule) *model.Details {
	d := &model.Details{
		Phone:       r.FormattedPhoneNumber,
		HasWebsite:  r.Website != "",
		FullAddress: r.FormattedAddress,
		PostalCode:  r.Component("postal_code"),
	}
	if r.Website != "" {
		w := r.Website
		d.Website = &w
	}
	if r.Rating > 0 {
		v := r.Rating
		d.Rating = &v
	}
	if r.UserRatingsTotal > 0 {
		v := r.UserRatingsTotal
		d.ReviewCount = &v
	}
	if d.PostalCode == "" {
		d.PostalCode = rule.Extract(r.FormattedAddress)
	}
	return d
}

// Enrich fetches details for b and returns the confirmed record. A record
// that no longer needs details is returned unchanged. On failure b is
// returned unchanged together with an error matching ErrDetailsUnavailable.
func (g *Gate) Enrich(ctx context.Context, b model.Business) (model.Business, error) {
	if !b.NeedsDetails {
		return b, nil
	}
	d, err := g.Details(ctx, b.ID)
	if err != nil {
		return b, err
	}
	return Apply(b, *d, g.classifier), nil
}

// Apply merges details into b and reclassifies it with the confirmed variant.
// Postal code and address keep their prior values when the details lack them.
func Apply(b model.Business, d model.Details, c *scoring.Classifier) model.Business {
	hasWebsite := d.HasWebsite
	b.HasWebsite = &hasWebsite
	b.Phone = d.Phone
	b.Website = ""
	if d.Website != nil {
		b.Website = *d.Website
	}
	b.Rating = d.Rating
	b.ReviewCount = d.ReviewCount
	if d.PostalCode != "" {
		b.PostalCode = d.PostalCode
	}
	if d.FullAddress != "" {
		b.Address = d.FullAddress
	}
	b.NeedsDetails = false
	b.Apply(c.Confirmed(b.Category, hasWebsite))
	return b
}
