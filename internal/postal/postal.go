// Package postal extracts postal codes from free-form address text.
package postal

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Rule extracts a postal code from address text. Rules are swappable so the
// geographic assumption lives in one place.
type Rule interface {
	Name() string
	// Extract returns the first postal code found in text, or "".
	Extract(text string) string
}

type patternRule struct {
	name string
	re   *regexp.Regexp
}

func (r patternRule) Name() string { return r.name }

func (r patternRule) Extract(text string) string {
	m := r.re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Spain matches Spanish postal codes: five digits with a province prefix
// between 01 and 52.
var Spain Rule = patternRule{
	name: "es",
	re:   regexp.MustCompile(`\b(0[1-9]\d{3}|[1-4]\d{4}|5[0-2]\d{3})\b`),
}

// FiveDigit matches any standalone five-digit group.
var FiveDigit Rule = patternRule{
	name: "any5",
	re:   regexp.MustCompile(`\b(\d{5})\b`),
}

var rules = []Rule{Spain, FiveDigit}

// ByName returns the rule registered under name. An empty name selects Spain.
func ByName(name string) (Rule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Spain, nil
	}
	for _, r := range rules {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, eris.Errorf("postal: unknown rule %q", name)
}

// Match reports whether an extracted code satisfies the searched code. A
// missing searched code or a missing extracted code never counts against a
// record.
func Match(searched, extracted string) bool {
	searched = strings.TrimSpace(searched)
	if searched == "" || extracted == "" {
		return true
	}
	return extracted == searched
}
