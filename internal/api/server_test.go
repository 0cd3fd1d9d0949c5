package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/discovery"
	"github.com/sells-group/leadfinder/internal/enrich"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/settings"
	"github.com/sells-group/leadfinder/internal/store"
)

type fakeSearcher struct {
	res   *model.SearchResult
	err   error
	query model.SearchQuery
}

func (f *fakeSearcher) Search(_ context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	f.query = q
	if q.Empty() {
		return nil, discovery.ErrNoCriteria
	}
	return f.res, f.err
}

type fakeEnricher struct {
	details *model.Details
	err     error
	calls   int
}

func (f *fakeEnricher) Details(_ context.Context, _ string) (*model.Details, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fakeEnricher) Enrich(_ context.Context, b model.Business) (model.Business, error) {
	f.calls++
	if f.err != nil {
		return b, f.err
	}
	yes := f.details.HasWebsite
	b.HasWebsite = &yes
	b.Phone = f.details.Phone
	b.NeedsDetails = false
	return b, nil
}

type fakeRuns struct {
	runs   []model.SearchRun
	filter store.RunFilter
}

func (f *fakeRuns) ListRuns(_ context.Context, filter store.RunFilter) ([]model.SearchRun, error) {
	f.filter = filter
	return f.runs, nil
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rr := do(t, NewRouter(Deps{}, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestSearch(t *testing.T) {
	s := &fakeSearcher{res: &model.SearchResult{
		Businesses: []model.Business{{ID: "p1", Name: "Bar Pepe", NeedsDetails: true}},
		Center:     model.Center{Lat: 40.4, Lng: -3.7},
		PostalCode: "28001",
	}}
	rr := do(t, NewRouter(Deps{Search: s}, nil), http.MethodPost, "/api/search",
		map[string]string{"postalCode": "28001"})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "28001", body["postalCode"])
	assert.Len(t, body["businesses"], 1)
	assert.Equal(t, "28001", s.query.PostalCode)
}

func TestSearch_NoCriteria(t *testing.T) {
	rr := do(t, NewRouter(Deps{Search: &fakeSearcher{}}, nil), http.MethodPost, "/api/search",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, discovery.ErrNoCriteria.Error(), body["error"])
}

func TestSearch_UpstreamError(t *testing.T) {
	s := &fakeSearcher{err: errors.New("google: request denied, check the API key")}
	rr := do(t, NewRouter(Deps{Search: s}, nil), http.MethodPost, "/api/search",
		map[string]string{"businessName": "Pepe"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSearch_BadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	NewRouter(Deps{Search: &fakeSearcher{}}, nil).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearch_NotConfigured(t *testing.T) {
	rr := do(t, NewRouter(Deps{}, nil), http.MethodPost, "/api/search", map[string]string{"city": "Madrid"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestDetails_ByPlaceID(t *testing.T) {
	e := &fakeEnricher{details: &model.Details{Phone: "910 000 000", HasWebsite: false}}
	rr := do(t, NewRouter(Deps{Enrich: e}, nil), http.MethodPost, "/api/details",
		map[string]string{"placeId": "p1"})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	details := body["details"].(map[string]any)
	assert.Equal(t, "910 000 000", details["phone"])
	assert.Nil(t, body["business"])
}

func TestDetails_MergesBusiness(t *testing.T) {
	e := &fakeEnricher{details: &model.Details{Phone: "910", HasWebsite: true}}
	b := model.Business{ID: "p1", Name: "Bar", NeedsDetails: true}
	rr := do(t, NewRouter(Deps{Enrich: e}, nil), http.MethodPost, "/api/details",
		map[string]any{"business": b})

	require.Equal(t, http.StatusOK, rr.Code)
	got := decode(t, rr)["business"].(map[string]any)
	assert.Equal(t, true, got["hasWebsite"])
	assert.Equal(t, false, got["needsDetails"])
	assert.Equal(t, 1, e.calls)
}

func TestDetails_ConfirmedBusinessSkipsFetch(t *testing.T) {
	e := &fakeEnricher{}
	no := false
	b := model.Business{ID: "p1", HasWebsite: &no}
	rr := do(t, NewRouter(Deps{Enrich: e}, nil), http.MethodPost, "/api/details",
		map[string]any{"business": b})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, e.calls)
}

func TestDetails_Failure(t *testing.T) {
	e := &fakeEnricher{err: &enrich.DetailsError{PlaceID: "p1", Err: errors.New("boom")}}
	rr := do(t, NewRouter(Deps{Enrich: e}, nil), http.MethodPost, "/api/details",
		map[string]string{"placeId": "p1"})

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "could not fetch business details", decode(t, rr)["error"])
}

func TestDetails_MissingPlaceID(t *testing.T) {
	rr := do(t, NewRouter(Deps{Enrich: &fakeEnricher{}}, nil), http.MethodPost, "/api/details",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSettings_RoundTrip(t *testing.T) {
	f := settings.NewFile(t.TempDir() + "/settings.yaml")
	h := NewRouter(Deps{Settings: f}, nil)

	rr := do(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, settings.DefaultPrompt, decode(t, rr)["systemPrompt"])

	rr = do(t, h, http.MethodPut, "/api/settings", map[string]string{"systemPrompt": "Sé breve."})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, "Sé breve.", decode(t, rr)["systemPrompt"])
}

func TestRuns(t *testing.T) {
	runs := &fakeRuns{runs: []model.SearchRun{{ID: "r1", Mode: model.SearchModeSweep}}}
	h := NewRouter(Deps{Runs: runs}, nil)

	rr := do(t, h, http.MethodGet, "/api/runs?mode=sweep&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["runs"], 1)
	assert.Equal(t, store.RunFilter{Mode: model.SearchModeSweep, Limit: 5, Offset: 10}, runs.filter)

	rr = do(t, h, http.MethodGet, "/api/runs?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(Deps{Search: &fakeSearcher{}}, []string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
