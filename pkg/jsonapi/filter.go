package jsonapi

import (
	"fmt"
	"strings"

	"pustaka/pkg/common"
)

// ApplyFilters compiles validated filters into WHERE predicates on query.
// Values are always bound parameters; column names come from the
// descriptor, never from the request, so no request text reaches the SQL.
// Multiple filters combine with implicit AND.
func ApplyFilters(query common.SelectQuery, filters []Filter, desc *ResourceDescriptor) (common.SelectQuery, error) {
	for _, filter := range filters {
		decl, ok := desc.Filterable[filter.Field]
		if !ok {
			return nil, NewValidationError("unknown_filter_field",
				fmt.Sprintf("Field %q is not filterable on %s", filter.Field, desc.Type),
				fmt.Sprintf("filter[%s]", filter.Field))
		}

		switch filter.Operator {
		case OperatorEquals:
			if decl.Type == ValueTypeText {
				query = query.Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", decl.Column), filter.Value)
			} else {
				query = query.Where(fmt.Sprintf("%s = ?", decl.Column), filter.Value)
			}
		case OperatorLike:
			pattern := "%" + escapeLike(fmt.Sprintf("%v", filter.Value)) + "%"
			query = query.Where(fmt.Sprintf("LOWER(%s) LIKE LOWER(?) ESCAPE '\\'", decl.Column), pattern)
		default:
			return nil, NewValidationError("unsupported_operator",
				fmt.Sprintf("Operator %q is not supported for field %q", filter.Operator, filter.Field),
				fmt.Sprintf("filter[%s]", filter.Field))
		}
	}
	return query, nil
}

// escapeLike neutralizes LIKE wildcards in user input so a literal "%" or
// "_" in a filter value matches itself.
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}
