package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadfinder/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleResult() *model.SearchResult {
	return &model.SearchResult{
		Center:     model.Center{Lat: 40.4168, Lng: -3.7038},
		PostalCode: "28001",
		Businesses: []model.Business{
			{
				ID:                 "p1",
				Name:               "Bar Pepe",
				Address:            "Calle Mayor 1, Madrid",
				Category:           "Bar",
				PostalCode:         "28001",
				Lat:                40.41,
				Lng:                -3.70,
				Temperature:        model.TemperatureHot,
				Score:              95,
				PotentialReason:    "Sin web",
				HasWebsite:         ptr(false),
				Rating:             ptr(4.5),
				ReviewCount:        ptr(12),
				SearchedPostalCode: "28001",
				PostalCodeMatch:    true,
			},
			{
				ID:                 "p2",
				Name:               "Ferretería López",
				Address:            "Calle Toledo 3",
				Category:           "Ferretería",
				PostalCode:         "28005",
				Lat:                40.40,
				Lng:                -3.71,
				Temperature:        model.TemperatureWarm,
				Score:              60,
				SearchedPostalCode: "28001",
				NeedsDetails:       true,
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"geojson", FormatGeoJSON, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, FormatXLSX.Binary())
	assert.False(t, FormatCSV.Binary())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Bar Pepe")
	assert.Contains(t, out, "absent")
	assert.Contains(t, out, "unknown")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Ferre...", truncate("Ferretería López", 8))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleResult()))

	var got model.SearchResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "28001", got.PostalCode)
	require.Len(t, got.Businesses, 2)
	assert.Nil(t, got.Businesses[1].HasWebsite)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleResult()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, columns, recs[0])
	assert.Equal(t, "Bar Pepe", recs[1][1])
	assert.Equal(t, "absent", recs[1][9])
	assert.Equal(t, "4.5", recs[1][12])
	assert.Equal(t, "unknown", recs[2][9])
	assert.Equal(t, "", recs[2][12])
}

func TestCSVEmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, nil))
	assert.Equal(t, strings.Join(columns, ",")+"\n", buf.String())
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleResult()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Ferretería López", sheet.Rows[2].Cells[1].String())

	score, err := sheet.Rows[1].Cells[7].Int()
	require.NoError(t, err)
	assert.Equal(t, 95, score)
}

func TestGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatGeoJSON, sampleResult()))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, []float64{-3.70, 40.41}, first.Geometry.Coordinates)
	assert.Equal(t, "hot", first.Properties["temperature"])
	assert.Equal(t, 4.5, first.Properties["rating"])
	assert.NotContains(t, fc.Features[1].Properties, "rating")
}
