// Package scoring classifies businesses into opportunity tiers.
//
// The tier decision is a pure function of the category label. Only the
// numeric score is drawn at random inside the tier's band, through an
// injectable Rand so tests can pin it.
package scoring

import (
	"math/rand/v2"
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

// Reason texts attached to each classification.
const (
	ReasonHasWebsite = "already has a web presence"

	reasonProvisionalHot     = "Potential to confirm: online catalog, bookings, e-commerce."
	reasonProvisionalWarm    = "Estimated medium potential: online bookings, gallery, digital menu."
	reasonProvisionalCool    = "Moderate potential: informational site, opening hours, contact."
	reasonProvisionalDefault = "Potential to assess: basic digital presence recommended."

	reasonHot     = "High potential: online catalog, bookings, e-commerce sales, loyalty."
	reasonWarm    = "Medium potential: online bookings, work gallery, digital menu."
	reasonCool    = "Moderate potential: informational site, opening hours, online orders."
	reasonDefault = "Potential to assess: basic digital presence recommended."
)

// ScoreHasWebsite is the fixed score of a business that already has a website.
const ScoreHasWebsite = 10

// Band is an inclusive score range.
type Band struct {
	Min int
	Max int
}

// Contains reports whether score lies within the band.
func (b Band) Contains(score int) bool { return score >= b.Min && score <= b.Max }

func (b Band) draw(r Rand) int { return b.Min + r.IntN(b.Max-b.Min+1) }

// Score bands per tier and variant.
var (
	ProvisionalHotBand     = Band{70, 84}
	ProvisionalWarmBand    = Band{55, 69}
	ProvisionalCoolBand    = Band{35, 49}
	ProvisionalDefaultBand = Band{50, 69}

	ConfirmedHotBand     = Band{85, 99}
	ConfirmedWarmBand    = Band{60, 79}
	ConfirmedCoolBand    = Band{30, 54}
	ConfirmedDefaultBand = Band{50, 79}
)

type tierRule struct {
	temperature model.Temperature
	keywords    []string
}

// tierRules is checked hot, warm, cool; the first tier with a keyword hit wins.
var tierRules = []tierRule{
	{model.TemperatureHot, []string{
		"shoe", "zapater", "hardware", "ferreter", "optician", "óptica", "optica",
		"jewelry", "joyer", "watch", "relojer", "gym", "gimnasio", "clinic", "clínica",
		"clinica", "dental", "dentist", "instrument", "sport", "deporte", "electronics",
		"electrónica", "electronica", "computer", "informática", "informatica", "plumber",
		"fontaner", "electrician", "electric", "reform", "construcción", "construccion",
		"mechanic", "taller", "auto", "car repair",
	}},
	{model.TemperatureWarm, []string{
		"florist", "florister", "book", "librer", "fashion", "moda", "boutique", "hair",
		"peluquer", "beauty", "estética", "estetica", "restaurant", "restaurante", "cafe",
		"cafeter", "bar", "brewery", "cervecer", "grill", "asador", "pizza", "tapas",
		"bakery", "pasteler",
	}},
	{model.TemperatureCool, []string{
		"bakery", "panader", "fruit", "fruter", "butcher", "carnicer", "fish", "pescader",
		"haberdashery", "mercer", "delicatessen", "charcuter", "grocery", "alimentación",
		"alimentacion", "supermarket",
	}},
}

// Rand is the randomness source for score draws. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Classifier assigns classifications. It is safe for concurrent use when its
// Rand is.
type Classifier struct {
	rnd Rand
}

// NewClassifier returns a Classifier drawing scores from r. A nil r uses the
// process-wide source from math/rand/v2.
func NewClassifier(r Rand) *Classifier {
	if r == nil {
		r = globalRand{}
	}
	return &Classifier{rnd: r}
}

// TierFor returns the tier whose keywords match category, and whether any
// keyword matched. Unmatched categories default to warm.
func TierFor(category string) (model.Temperature, bool) {
	lower := strings.ToLower(category)
	for _, rule := range tierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.temperature, true
			}
		}
	}
	return model.TemperatureWarm, false
}

// Provisional classifies a business whose website status is still unknown.
// Hot categories are held at warm until the missing website is confirmed.
func (c *Classifier) Provisional(category string) model.Classification {
	tier, matched := TierFor(category)
	switch {
	case !matched:
		return c.classify(model.TemperatureWarm, ProvisionalDefaultBand, reasonProvisionalDefault)
	case tier == model.TemperatureHot:
		return c.classify(model.TemperatureWarm, ProvisionalHotBand, reasonProvisionalHot)
	case tier == model.TemperatureWarm:
		return c.classify(model.TemperatureWarm, ProvisionalWarmBand, reasonProvisionalWarm)
	default:
		return c.classify(model.TemperatureCool, ProvisionalCoolBand, reasonProvisionalCool)
	}
}

// Confirmed classifies a business once its website status is known.
func (c *Classifier) Confirmed(category string, hasWebsite bool) model.Classification {
	if hasWebsite {
		return model.Classification{
			Temperature: model.TemperatureCold,
			Score:       ScoreHasWebsite,
			Reason:      ReasonHasWebsite,
		}
	}

	tier, matched := TierFor(category)
	switch {
	case !matched:
		return c.classify(model.TemperatureWarm, ConfirmedDefaultBand, reasonDefault)
	case tier == model.TemperatureHot:
		return c.classify(model.TemperatureHot, ConfirmedHotBand, reasonHot)
	case tier == model.TemperatureWarm:
		return c.classify(model.TemperatureWarm, ConfirmedWarmBand, reasonWarm)
	default:
		return c.classify(model.TemperatureCool, ConfirmedCoolBand, reasonCool)
	}
}

func (c *Classifier) classify(t model.Temperature, b Band, reason string) model.Classification {
	return model.Classification{Temperature: t, Score: b.draw(c.rnd), Reason: reason}
}
