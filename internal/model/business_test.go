package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		in   string
		want Temperature
		ok   bool
	}{
		{"hot", TemperatureHot, true},
		{" COLD ", TemperatureCold, true},
		{"Warm", TemperatureWarm, true},
		{"tepid", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTemperature(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWebsiteStatus(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, WebsiteUnknown, Business{}.WebsiteStatus())
	assert.Equal(t, WebsitePresent, Business{HasWebsite: &yes}.WebsiteStatus())
	assert.Equal(t, WebsiteAbsent, Business{HasWebsite: &no}.WebsiteStatus())
	assert.Equal(t, "unknown", WebsiteUnknown.String())
	assert.Equal(t, "absent", WebsiteAbsent.String())
	assert.Equal(t, "present", WebsitePresent.String())
}

func TestSearchQuery(t *testing.T) {
	assert.True(t, SearchQuery{}.Empty())
	assert.True(t, SearchQuery{City: "   ", Category: "\t"}.Empty())
	assert.False(t, SearchQuery{Category: "bar"}.Empty())

	assert.Equal(t, "28001", SearchQuery{PostalCode: " 28001 ", City: "Madrid"}.Location())
	assert.Equal(t, "Madrid", SearchQuery{City: " Madrid"}.Location())
	assert.Equal(t, "", SearchQuery{BusinessName: "Pepe"}.Location())
}

func TestBusinessProvisional(t *testing.T) {
	b := Business{ID: "p1", NeedsDetails: true}
	assert.True(t, b.Provisional())

	b.Phone = "910 000 000"
	assert.False(t, b.Provisional())

	no := false
	assert.False(t, Business{NeedsDetails: true, HasWebsite: &no}.Provisional())
}

func TestBusinessApply(t *testing.T) {
	var b Business
	b.Apply(Classification{Temperature: TemperatureHot, Score: 92, Reason: "Sin web"})
	assert.Equal(t, TemperatureHot, b.Temperature)
	assert.Equal(t, 92, b.Score)
	assert.Equal(t, "Sin web", b.PotentialReason)
}

func TestBusinessJSON_UnknownWebsiteIsNull(t *testing.T) {
	data, err := json.Marshal(Business{ID: "p1", NeedsDetails: true})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "hasWebsite")
	assert.Nil(t, m["hasWebsite"])
	assert.Nil(t, m["rating"])
	assert.NotContains(t, m, "website")
	assert.Equal(t, true, m["needsDetails"])
}

func TestRank(t *testing.T) {
	recs := []Business{
		{ID: "a", Score: 90},
		{ID: "b", Score: 50, PostalCodeMatch: true},
		{ID: "c", Score: 95},
		{ID: "d", Score: 70, PostalCodeMatch: true},
		{ID: "e", Score: 90},
	}
	Rank(recs)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"d", "b", "c", "a", "e"}, ids)
}
