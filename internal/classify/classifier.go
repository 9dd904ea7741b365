// Package classify tags job titles with categories from keyword tables.
package classify

import (
	"strings"

	"engage-engine/internal/domain"
)

// JobTypes returns every category with at least one keyword contained in title.
// Order follows the table; each category appears once.
func JobTypes(title string, table domain.MappingTable) []string {
	var out []string
	for _, m := range table {
		if _, ok := firstMatch(title, m.Keywords); ok {
			out = append(out, m.Category)
		}
	}
	return uniq(out)
}

// Facility returns the first category, in table order, that matches title,
// together with the keyword that hit. Only one facility label is ever stored,
// so later categories are never consulted once one matches, even if they are
// more specific.
func Facility(title string, table domain.MappingTable) (category, keyword string) {
	for _, m := range table {
		if kw, ok := firstMatch(title, m.Keywords); ok {
			return m.Category, kw
		}
	}
	return "", ""
}

func firstMatch(title string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) {
			return kw, true
		}
	}
	return "", false
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
