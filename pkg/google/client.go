package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadfinder/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Statuses returned in the body of a Places response.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusNotFound       = "NOT_FOUND"
	StatusUnknownError   = "UNKNOWN_ERROR"
)

// DetailsFields is the field set requested when enriching a place.
var DetailsFields = []string{
	"formatted_phone_number",
	"website",
	"formatted_address",
	"address_components",
	"rating",
	"user_ratings_total",
}

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error)
	TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error)
	Details(ctx context.Context, placeID string, fields []string) (*DetailsResponse, error)
}

// LatLng is a coordinate pair as used by the Places API.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// NearbySearchRequest asks for places of one type around a point. When
// PageToken is set only the token is sent.
type NearbySearchRequest struct {
	Location  LatLng
	Radius    int
	Type      string
	Keyword   string
	PageToken string
}

// TextSearchRequest is a free-text query biased toward a point.
type TextSearchRequest struct {
	Query    string
	Location LatLng
	Radius   int
}

// SearchResponse is the shared envelope of nearby and text search.
type SearchResponse struct {
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Place is a single search hit.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	Geometry         Geometry `json:"geometry"`
	Types            []string `json:"types"`
}

// Address returns the vicinity, or the formatted address for text search hits.
func (p Place) Address() string {
	if p.Vicinity != "" {
		return p.Vicinity
	}
	return p.FormattedAddress
}

// Geometry holds the place location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// DetailsResponse is the envelope of a place details call.
type DetailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       PlaceDetails `json:"result"`
}

// PlaceDetails is the subset of details fields we request.
type PlaceDetails struct {
	FormattedPhoneNumber string             `json:"formatted_phone_number"`
	Website              string             `json:"website"`
	FormattedAddress     string             `json:"formatted_address"`
	AddressComponents    []AddressComponent `json:"address_components"`
	Rating               float64            `json:"rating"`
	UserRatingsTotal     int                `json:"user_ratings_total"`
}

// AddressComponent is one part of a structured address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Component returns the long name of the first component tagged with typ.
func (d PlaceDetails) Component(typ string) string {
	for _, c := range d.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				return c.LongName
			}
		}
	}
	return ""
}

// StatusError is a non-OK status reported in a response body.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	msg := statusMessage(e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return "google: " + msg
}

func statusMessage(status string) string {
	switch status {
	case StatusOverQueryLimit:
		return "query limit exceeded"
	case StatusRequestDenied:
		return "request denied, check the API key"
	case StatusInvalidRequest:
		return "invalid request"
	case StatusNotFound:
		return "place not found"
	case StatusUnknownError:
		return "unknown server error"
	default:
		return "unexpected status " + status
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBreaker guards every call with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error) {
	q := url.Values{}
	if req.PageToken != "" {
		q.Set("pagetoken", req.PageToken)
	} else {
		q.Set("location", req.Location.String())
		q.Set("radius", strconv.Itoa(req.Radius))
		if req.Type != "" {
			q.Set("type", req.Type)
		}
		if req.Keyword != "" {
			q.Set("keyword", req.Keyword)
		}
	}

	var resp SearchResponse
	err := c.get(ctx, "/nearbysearch/json", q, &resp, func() error {
		return checkStatus(resp.Status, resp.ErrorMessage)
	})
	if err != nil {
		return nil, wrapCall(err, "google: nearby search")
	}
	return &resp, nil
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("query", req.Query)
	q.Set("location", req.Location.String())
	q.Set("radius", strconv.Itoa(req.Radius))

	var resp SearchResponse
	err := c.get(ctx, "/textsearch/json", q, &resp, func() error {
		return checkStatus(resp.Status, resp.ErrorMessage)
	})
	if err != nil {
		return nil, wrapCall(err, "google: text search")
	}
	return &resp, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string, fields []string) (*DetailsResponse, error) {
	if placeID == "" {
		return nil, eris.New("google: place id is required")
	}
	if len(fields) == 0 {
		fields = DetailsFields
	}
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", strings.Join(fields, ","))

	var resp DetailsResponse
	err := c.get(ctx, "/details/json", q, &resp, func() error {
		// Details has no ZERO_RESULTS; anything but OK is a failure.
		if resp.Status != StatusOK {
			return &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
		}
		return nil
	})
	if err != nil {
		return nil, wrapCall(err, "google: details")
	}
	return &resp, nil
}

// wrapCall leaves StatusError untouched so callers can inspect it with errors.As.
func wrapCall(err error, msg string) error {
	var se *StatusError
	if errors.As(err, &se) {
		return err
	}
	return eris.Wrap(err, msg)
}

// IsQuotaOrDenied reports whether err is a status error that will keep
// failing for every request made with the same key.
func IsQuotaOrDenied(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == StatusOverQueryLimit || se.Status == StatusRequestDenied
}

// Trips is the breaker predicate for Places calls.
func Trips(err error) bool {
	return IsQuotaOrDenied(err) || resilience.IsTransient(err)
}

func checkStatus(status, message string) error {
	if status == StatusOK || status == StatusZeroResults {
		return nil
	}
	return &StatusError{Status: status, Message: message}
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any, check func() error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	_, err := resilience.Do(ctx, c.breaker, func(ctx context.Context) (struct{}, error) {
		if err := c.do(ctx, path, q, out); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, check()
	})
	return err
}

func (c *httpClient) do(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
