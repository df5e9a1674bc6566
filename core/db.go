package core

import (
	"strings"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields ("name,-created_at").
// A leading "-" means descending.
func ParseOrdering(s string) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = CleanString(field, true /* lower */)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
		}
	}
	return orderings
}

// AllowedOrdering drops the orderings on fields that are not in allowed.
func AllowedOrdering(orderings []DBOrdering, allowed ...string) []DBOrdering {
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		for _, f := range allowed {
			if f == ord.Field {
				kept = append(kept, ord)
				break
			}
		}
	}
	return kept
}

// OrderByClause renders orderings as an SQL ORDER BY clause (without the keywords).
// Falls back to def when there is nothing to order by.
func OrderByClause(orderings []DBOrdering, def string) string {
	if len(orderings) == 0 {
		return def
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
