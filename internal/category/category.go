// Package category maps free-text category queries to places directory types
// and maps a result's directory types back to a display label.
package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultLabel is used when none of a result's types has a label.
const DefaultLabel = "Comercio local"

// DefaultTypes is the full sweep used when no category narrows the search.
var DefaultTypes = []string{
	"store", "restaurant", "cafe", "bar", "bakery", "beauty_salon",
	"hair_care", "gym", "dentist", "doctor", "pharmacy", "clothing_store",
	"shoe_store", "jewelry_store", "florist", "pet_store", "car_repair",
	"electronics_store", "furniture_store", "book_store", "hardware_store",
}

type queryRule struct {
	keyword string
	types   []string
}

// queryRules is evaluated top to bottom; the first keyword hit wins.
var queryRules = []queryRule{
	{"restaurante", []string{"restaurant", "meal_takeaway", "meal_delivery"}},
	{"cafeteria", []string{"cafe", "coffee_shop"}},
	{"bar", []string{"bar", "night_club"}},
	{"panaderia", []string{"bakery"}},
	{"peluqueria", []string{"hair_care", "beauty_salon"}},
	{"gimnasio", []string{"gym", "fitness_center"}},
	{"tienda", []string{"store", "clothing_store", "shoe_store"}},
	{"farmacia", []string{"pharmacy"}},
	{"dentista", []string{"dentist"}},
	{"medico", []string{"doctor", "hospital", "health"}},
	{"taller", []string{"car_repair", "car_dealer"}},
	{"electronica", []string{"electronics_store"}},
	{"libreria", []string{"book_store"}},
	{"floristeria", []string{"florist"}},
	{"mascotas", []string{"pet_store", "veterinary_care"}},
	{"joyeria", []string{"jewelry_store"}},
	{"muebles", []string{"furniture_store", "home_goods_store"}},
}

type labelRule struct {
	tag   string
	label string
}

var labelRules = []labelRule{
	{"shoe_store", "Zapatería"},
	{"hardware_store", "Ferretería"},
	{"jewelry_store", "Joyería"},
	{"florist", "Floristería"},
	{"bakery", "Panadería"},
	{"hair_care", "Peluquería"},
	{"beauty_salon", "Centro de estética"},
	{"restaurant", "Restaurante"},
	{"cafe", "Cafetería"},
	{"bar", "Bar"},
	{"gym", "Gimnasio"},
	{"clothing_store", "Tienda de ropa"},
	{"electronics_store", "Electrónica"},
	{"book_store", "Librería"},
	{"pet_store", "Tienda de mascotas"},
	{"furniture_store", "Mueblería"},
	{"home_goods_store", "Hogar y decoración"},
	{"pharmacy", "Farmacia"},
	{"dentist", "Dentista"},
	{"doctor", "Clínica médica"},
	{"car_repair", "Taller mecánico"},
	{"store", "Comercio"},
}

// Normalize lower-cases s, strips diacritics and trims surrounding space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// SearchTypes returns the directory types to sweep for a category query.
// A query matches a keyword when either contains the other after
// normalization. No query or no match yields DefaultTypes.
func SearchTypes(query string) []string {
	n := Normalize(query)
	if n == "" {
		return clone(DefaultTypes)
	}
	for _, r := range queryRules {
		if strings.Contains(n, r.keyword) || strings.Contains(r.keyword, n) {
			return clone(r.types)
		}
	}
	return clone(DefaultTypes)
}

// Label returns the display label for a result's directory types. The
// result's types are checked in their own order; the first one with a label
// wins.
func Label(types []string) string {
	for _, tag := range types {
		for _, r := range labelRules {
			if r.tag == tag {
				return r.label
			}
		}
	}
	return DefaultLabel
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
