package classify

import (
	"strings"

	"engage-engine/internal/domain"
)

// MappingFromRows builds a table from sheet records. Keywords are a
// comma-separated cell; a category listed on several rows keeps its first
// position and accumulates keywords.
func MappingFromRows(rows []map[string]string, categoryCol, keywordCol string) domain.MappingTable {
	var table domain.MappingTable
	index := map[string]int{}

	for _, r := range rows {
		cat := strings.TrimSpace(r[categoryCol])
		if cat == "" {
			continue
		}
		var kws []string
		for _, kw := range strings.Split(r[keywordCol], ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			continue
		}

		if i, ok := index[cat]; ok {
			table[i].Keywords = append(table[i].Keywords, kws...)
			continue
		}
		index[cat] = len(table)
		table = append(table, domain.Mapping{Category: cat, Keywords: kws})
	}
	return table
}
