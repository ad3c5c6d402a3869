package search

import (
	"strings"

	"github.com/Tiliavir/medrem/internal/model"
)

// Filter returns the records whose name contains query, ignoring case, in
// their original order. An empty query returns all records.
func Filter(records []model.Medicine, query string) []model.Medicine {
	if query == "" {
		out := make([]model.Medicine, len(records))
		copy(out, records)
		return out
	}
	q := strings.ToLower(query)
	out := []model.Medicine{}
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}
