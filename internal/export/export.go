// Package export renders a lead collection as a table, JSON, GeoJSON, CSV or
// an XLSX workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/model"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatGeoJSON, FormatCSV, FormatXLSX}

// ParseFormat returns the format named by s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", s)
}

// Binary reports whether f produces output unsuitable for a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// Write renders res in format f.
func Write(w io.Writer, f Format, res *model.SearchResult) error {
	switch f {
	case FormatTable, "":
		return Table(w, res.Businesses)
	case FormatJSON:
		return JSON(w, res)
	case FormatGeoJSON:
		return GeoJSON(w, res.Businesses)
	case FormatCSV:
		return CSV(w, res.Businesses)
	case FormatXLSX:
		return XLSX(w, res.Businesses)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res *model.SearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "export: json")
}

// Table writes a compact aligned listing.
func Table(out io.Writer, recs []model.Business) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tCATEGORY\tCP\tMATCH\tTEMP\tSCORE\tWEB\tPHONE")
	_, _ = fmt.Fprintln(w, "-\t----\t--------\t--\t-----\t----\t-----\t---\t-----")
	for i, r := range recs {
		match := "yes"
		if !r.PostalCodeMatch {
			match = "no"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i+1,
			truncate(r.Name, 32),
			r.Category,
			r.PostalCode,
			match,
			r.Temperature,
			r.Score,
			r.WebsiteStatus(),
			r.Phone,
		)
	}
	return eris.Wrap(w.Flush(), "export: table")
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}

// row is the flat shape shared by CSV and XLSX.
type row struct {
	ID              string   `csv:"id"`
	Name            string   `csv:"name"`
	Category        string   `csv:"category"`
	Address         string   `csv:"address"`
	PostalCode      string   `csv:"postal_code"`
	PostalCodeMatch bool     `csv:"postal_code_match"`
	Temperature     string   `csv:"temperature"`
	Score           int      `csv:"score"`
	Reason          string   `csv:"reason"`
	Website         string   `csv:"website_status"`
	WebsiteURL      string   `csv:"website,omitempty"`
	Phone           string   `csv:"phone,omitempty"`
	Rating          *float64 `csv:"rating,omitempty"`
	ReviewCount     *int     `csv:"review_count,omitempty"`
	Lat             float64  `csv:"lat"`
	Lng             float64  `csv:"lng"`
}

func toRow(b model.Business) row {
	return row{
		ID:              b.ID,
		Name:            b.Name,
		Category:        b.Category,
		Address:         b.Address,
		PostalCode:      b.PostalCode,
		PostalCodeMatch: b.PostalCodeMatch,
		Temperature:     string(b.Temperature),
		Score:           b.Score,
		Reason:          b.PotentialReason,
		Website:         b.WebsiteStatus().String(),
		WebsiteURL:      b.Website,
		Phone:           b.Phone,
		Rating:          b.Rating,
		ReviewCount:     b.ReviewCount,
		Lat:             b.Lat,
		Lng:             b.Lng,
	}
}

// columns is the header order of row.
var columns = []string{
	"id", "name", "category", "address", "postal_code", "postal_code_match",
	"temperature", "score", "reason", "website_status", "website", "phone",
	"rating", "review_count", "lat", "lng",
}

func (r row) values() []any {
	var rating, reviews any
	if r.Rating != nil {
		rating = *r.Rating
	}
	if r.ReviewCount != nil {
		reviews = *r.ReviewCount
	}
	return []any{
		r.ID, r.Name, r.Category, r.Address, r.PostalCode, r.PostalCodeMatch,
		r.Temperature, r.Score, r.Reason, r.Website, r.WebsiteURL, r.Phone,
		rating, reviews, r.Lat, r.Lng,
	}
}
