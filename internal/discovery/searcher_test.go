package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/category"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/pkg/google"
	"github.com/sells-group/leadfinder/pkg/google/mocks"
)

var madrid = model.Center{Lat: 40.4168, Lng: -3.7038}

func place(id, name, vicinity string, types ...string) google.Place {
	return google.Place{
		PlaceID:  id,
		Name:     name,
		Vicinity: vicinity,
		Geometry: google.Geometry{Location: google.LatLng{Lat: 40.42, Lng: -3.70}},
		Types:    types,
	}
}

func newTestSearcher(t *testing.T, cfg SearcherConfig) (*Searcher, *mocks.MockClient, *sleepRecorder) {
	t.Helper()
	m := mocks.NewMockClient(t)
	s := NewSearcher(m, cfg)
	rec := &sleepRecorder{}
	s.sleep = rec.sleep
	return s, m, rec
}

func forType(typ string) any {
	return mock.MatchedBy(func(r google.NearbySearchRequest) bool {
		return r.Type == typ && r.PageToken == ""
	})
}

func TestNewSearcher_ZeroConfigUsesDefaults(t *testing.T) {
	s := NewSearcher(mocks.NewMockClient(t), SearcherConfig{})

	assert.Equal(t, DefaultPageDelay, s.cfg.PageDelay)
	assert.Equal(t, DefaultRadius, s.cfg.Radius)
	assert.Equal(t, DefaultTextRadius, s.cfg.TextRadius)
	assert.Equal(t, DefaultCallTimeout, s.cfg.CallTimeout)
	assert.Equal(t, DefaultMaxPages, s.cfg.MaxPages)
}

func TestNewSearcher_NegativePageDelayUsesDefault(t *testing.T) {
	s := NewSearcher(mocks.NewMockClient(t), SearcherConfig{PageDelay: -time.Second})
	assert.Equal(t, DefaultPageDelay, s.cfg.PageDelay)

	s = NewSearcher(mocks.NewMockClient(t), SearcherConfig{PageDelay: 3 * time.Second})
	assert.Equal(t, 3*time.Second, s.cfg.PageDelay)
}

func TestCollect_SweepAllDefaultTypes(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{})

	m.On("NearbySearch", mock.Anything, mock.MatchedBy(func(r google.NearbySearchRequest) bool {
		return r.Radius == 500 && r.Keyword == "" && r.Location == google.LatLng{Lat: madrid.Lat, Lng: madrid.Lng}
	})).Return(&google.SearchResponse{Status: google.StatusOK}, nil).Times(len(category.DefaultTypes))

	col, err := s.Collect(context.Background(), model.SearchQuery{PostalCode: "28001"}, madrid)

	require.NoError(t, err)
	assert.Equal(t, model.SearchModeSweep, col.Mode)
	assert.Equal(t, category.DefaultTypes, col.TypesSearched)
	assert.Equal(t, len(category.DefaultTypes), col.APICalls)
	assert.Empty(t, col.Failed)
}

func TestCollect_CategoryNarrowsSweep(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{})

	m.On("NearbySearch", mock.Anything, mock.MatchedBy(func(r google.NearbySearchRequest) bool {
		return r.Type == "bakery" && r.Keyword == "panadería"
	})).Return(&google.SearchResponse{
		Status:  google.StatusOK,
		Results: []google.Place{place("p1", "Horno Real", "Calle Mayor 5, 28001 Madrid", "bakery", "store")},
	}, nil).Once()

	col, err := s.Collect(context.Background(), model.SearchQuery{PostalCode: "28001", Category: "panadería"}, madrid)

	require.NoError(t, err)
	assert.Equal(t, []string{"bakery"}, col.TypesSearched)
	require.Len(t, col.Results, 1)
	assert.Equal(t, "p1", col.Results[0].PlaceID)
}

func TestCollect_ConfiguredDefaultTypes(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe", "bar"}})
	m.On("NearbySearch", mock.Anything, mock.Anything).
		Return(&google.SearchResponse{Status: google.StatusZeroResults}, nil).Twice()

	col, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.NoError(t, err)
	assert.Equal(t, []string{"cafe", "bar"}, col.TypesSearched)
	assert.Empty(t, col.Results)
}

func TestCollect_DedupFirstSeenWins(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe", "bar"}})

	m.On("NearbySearch", mock.Anything, forType("cafe")).Return(&google.SearchResponse{
		Status:  google.StatusOK,
		Results: []google.Place{place("p1", "Café Central", "Plaza Mayor 1", "cafe")},
	}, nil)
	m.On("NearbySearch", mock.Anything, forType("bar")).Return(&google.SearchResponse{
		Status: google.StatusOK,
		Results: []google.Place{
			place("p1", "Café Central (bar)", "Plaza Mayor 1", "bar"),
			place("p2", "Bar Pepe", "Calle Luna 2", "bar"),
		},
	}, nil)

	col, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.NoError(t, err)
	require.Len(t, col.Results, 2)
	assert.Equal(t, "Café Central", col.Results[0].Name)
	assert.Equal(t, []string{"cafe"}, col.Results[0].Types)
	assert.Equal(t, "p2", col.Results[1].PlaceID)
}

func TestCollect_FollowsOnePageAfterDelay(t *testing.T) {
	s, m, rec := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"restaurant"}})

	m.On("NearbySearch", mock.Anything, forType("restaurant")).Return(&google.SearchResponse{
		Status:        google.StatusOK,
		Results:       []google.Place{place("p1", "Casa Lucio", "Cava Baja 35", "restaurant")},
		NextPageToken: "page-2",
	}, nil).Once()
	m.On("NearbySearch", mock.Anything, mock.MatchedBy(func(r google.NearbySearchRequest) bool {
		return r.PageToken == "page-2"
	})).Return(&google.SearchResponse{
		Status:        google.StatusOK,
		Results:       []google.Place{place("p2", "Botín", "Cuchilleros 17", "restaurant")},
		NextPageToken: "page-3",
	}, nil).Once()

	col, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.NoError(t, err)
	assert.Len(t, col.Results, 2)
	assert.Equal(t, 2, col.APICalls)
	assert.Equal(t, []time.Duration{DefaultPageDelay}, rec.delays)
}

func TestCollect_CategoryFailureSkipped(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe", "bar", "gym"}})

	m.On("NearbySearch", mock.Anything, forType("cafe")).Return(&google.SearchResponse{
		Status:  google.StatusOK,
		Results: []google.Place{place("p1", "Café Central", "Plaza Mayor 1", "cafe")},
	}, nil)
	m.On("NearbySearch", mock.Anything, forType("bar")).Return(nil, errors.New("connection reset by peer"))
	m.On("NearbySearch", mock.Anything, forType("gym")).Return(&google.SearchResponse{
		Status:  google.StatusOK,
		Results: []google.Place{place("p3", "Gym Sol", "Calle Sol 3", "gym")},
	}, nil)

	col, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.NoError(t, err)
	assert.Len(t, col.Results, 2)
	assert.Equal(t, []string{"bar"}, col.Failed)
	assert.Equal(t, []string{"cafe", "bar", "gym"}, col.TypesSearched)
}

func TestCollect_SecondPageFailureKeepsFirst(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe"}})

	m.On("NearbySearch", mock.Anything, forType("cafe")).Return(&google.SearchResponse{
		Status:        google.StatusOK,
		Results:       []google.Place{place("p1", "Café Central", "Plaza Mayor 1", "cafe")},
		NextPageToken: "tok",
	}, nil)
	m.On("NearbySearch", mock.Anything, mock.MatchedBy(func(r google.NearbySearchRequest) bool {
		return r.PageToken == "tok"
	})).Return(nil, &google.StatusError{Status: google.StatusInvalidRequest})

	col, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.NoError(t, err)
	assert.Len(t, col.Results, 1)
	assert.Empty(t, col.Failed)
}

func TestCollect_AllCategoriesFail(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe", "bar"}})
	denied := &google.StatusError{Status: google.StatusRequestDenied}
	m.On("NearbySearch", mock.Anything, mock.Anything).Return(nil, denied)

	_, err := s.Collect(context.Background(), model.SearchQuery{City: "Madrid"}, madrid)

	require.Error(t, err)
	var se *google.StatusError
	assert.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "every category search failed")
}

func TestCollect_NameModeUsesTextSearch(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{})

	m.On("TextSearch", mock.Anything, google.TextSearchRequest{
		Query:    "Bar Pepe Madrid 28004 bar",
		Location: google.LatLng{Lat: madrid.Lat, Lng: madrid.Lng},
		Radius:   10000,
	}).Return(&google.SearchResponse{
		Status: google.StatusOK,
		Results: []google.Place{
			{PlaceID: "p9", Name: "Bar Pepe", FormattedAddress: "Calle Luna 3, 28004 Madrid", Types: []string{"bar"}},
			{PlaceID: "p9", Name: "Bar Pepe", FormattedAddress: "Calle Luna 3, 28004 Madrid", Types: []string{"bar"}},
		},
	}, nil).Once()

	col, err := s.Collect(context.Background(), model.SearchQuery{
		BusinessName: " Bar Pepe ",
		City:         "Madrid",
		PostalCode:   "28004",
		Category:     "bar",
	}, madrid)

	require.NoError(t, err)
	assert.Equal(t, model.SearchModeName, col.Mode)
	assert.Equal(t, 1, col.APICalls)
	require.Len(t, col.Results, 1)
	assert.Equal(t, "Calle Luna 3, 28004 Madrid", col.Results[0].Vicinity)
	m.AssertNotCalled(t, "NearbySearch", mock.Anything, mock.Anything)
}

func TestCollect_NameModeSurfacesError(t *testing.T) {
	s, m, _ := newTestSearcher(t, SearcherConfig{})
	m.On("TextSearch", mock.Anything, mock.Anything).
		Return(nil, &google.StatusError{Status: google.StatusOverQueryLimit})

	_, err := s.Collect(context.Background(), model.SearchQuery{BusinessName: "Bar Pepe"}, madrid)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query limit exceeded")
}

func TestCollect_CancelledContext(t *testing.T) {
	s, _, _ := newTestSearcher(t, SearcherConfig{DefaultTypes: []string{"cafe"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Collect(ctx, model.SearchQuery{City: "Madrid"}, madrid)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextQuery(t *testing.T) {
	assert.Equal(t, "Bar Pepe", TextQuery(model.SearchQuery{BusinessName: "Bar Pepe"}))
	assert.Equal(t, "Bar Pepe 28004", TextQuery(model.SearchQuery{BusinessName: "Bar Pepe", PostalCode: " 28004 "}))
}
