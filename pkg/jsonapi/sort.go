package jsonapi

import (
	"fmt"

	"pustaka/pkg/common"
)

// ResolveSort returns the effective ordering for a request: the requested
// sort, or the descriptor default when none was requested, with the primary
// key appended ascending as a final tiebreak unless already present. The
// tiebreak keeps pagination deterministic across requests with identical
// filters.
func ResolveSort(requested []SortField, desc *ResourceDescriptor) []SortField {
	fields := requested
	if len(fields) == 0 {
		fields = desc.DefaultSort
	}

	resolved := make([]SortField, 0, len(fields)+1)
	hasPK := false
	for _, field := range fields {
		if field.Column == desc.PrimaryKey {
			hasPK = true
		}
		resolved = append(resolved, field)
	}
	if !hasPK {
		resolved = append(resolved, SortField{Name: "id", Column: desc.PrimaryKey})
	}
	return resolved
}

// ApplySort adds ORDER BY terms for each resolved sort field.
func ApplySort(query common.SelectQuery, fields []SortField) common.SelectQuery {
	for _, field := range fields {
		direction := "ASC"
		if field.Descending {
			direction = "DESC"
		}
		query = query.Order(fmt.Sprintf("%s %s", field.Column, direction))
	}
	return query
}
