package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/leadfinder/internal/model"
)

// FeatureCollection builds one point feature per record for map layers.
func FeatureCollection(recs []model.Business) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(recs))}
	for _, b := range recs {
		props := map[string]any{
			"name":            b.Name,
			"category":        b.Category,
			"address":         b.Address,
			"postalCode":      b.PostalCode,
			"postalCodeMatch": b.PostalCodeMatch,
			"temperature":     string(b.Temperature),
			"score":           b.Score,
			"potentialReason": b.PotentialReason,
			"websiteStatus":   b.WebsiteStatus().String(),
			"needsDetails":    b.NeedsDetails,
		}
		if b.Phone != "" {
			props["phone"] = b.Phone
		}
		if b.Website != "" {
			props["website"] = b.Website
		}
		if b.Rating != nil {
			props["rating"] = *b.Rating
		}
		if b.ReviewCount != nil {
			props["reviewCount"] = *b.ReviewCount
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         b.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{b.Lng, b.Lat}),
			Properties: props,
		})
	}
	return fc
}

// GeoJSON writes recs as a FeatureCollection.
func GeoJSON(w io.Writer, recs []model.Business) error {
	data, err := json.Marshal(FeatureCollection(recs))
	if err != nil {
		return eris.Wrap(err, "export: geojson marshal")
	}
	_, err = w.Write(append(data, '\n'))
	return eris.Wrap(err, "export: geojson write")
}
