package jsonapi

import (
	"encoding/json"
	"fmt"

	"pustaka/pkg/common"
)

// Match types for search clauses. All matching is case-insensitive.
const (
	MatchExact      = "exact"
	MatchContains   = "contains"
	MatchStartsWith = "starts_with"
	MatchEndsWith   = "ends_with"
)

// Connectors joining a clause to the next one.
const (
	ConnectorAnd = "and"
	ConnectorOr  = "or"
)

// Clause is one condition of a structured search. Op declares how this
// clause joins to the next clause (the last clause's Op is ignored) and
// defaults to and; Type defaults to contains.
type Clause struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Op    string `json:"op,omitempty"`
	Type  string `json:"type,omitempty"`
}

func (c Clause) connector() string {
	if c.Op == ConnectorOr {
		return ConnectorOr
	}
	return ConnectorAnd
}

func (c Clause) matchType() string {
	if c.Type == "" {
		return MatchContains
	}
	return c.Type
}

// SearchListOptions carries the pagination, side-loading and projection
// options of a search request.
type SearchListOptions struct {
	Page struct {
		Number int `json:"number"`
		Size   int `json:"size"`
	} `json:"page"`
	Sort    string            `json:"sort,omitempty"`
	Include string            `json:"include,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SearchRequest is the advanced-search request body.
type SearchRequest struct {
	Clauses []Clause           `json:"clauses"`
	List    *SearchListOptions `json:"list,omitempty"`
}

// ParseSearchRequest decodes and validates a search body against the target
// descriptor. The returned QueryRequest carries the list options; the
// clause list feeds ApplySearch.
func ParseSearchRequest(body []byte, desc *ResourceDescriptor, registry *Registry) (*SearchRequest, *QueryRequest, error) {
	var search SearchRequest
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, nil, NewBodyValidationError("invalid_body", "Request body is not valid JSON", "")
	}

	if len(search.Clauses) == 0 {
		return nil, nil, NewBodyValidationError("empty_clause_list", "At least one search clause is required", "/clauses")
	}

	for i, clause := range search.Clauses {
		pointer := fmt.Sprintf("/clauses/%d", i)
		if _, ok := desc.Searchable[clause.Field]; !ok {
			return nil, nil, NewBodyValidationError("unknown_search_field",
				fmt.Sprintf("Field %q is not searchable on %s", clause.Field, desc.Type), pointer+"/field")
		}
		switch clause.Op {
		case "", ConnectorAnd, ConnectorOr:
		default:
			return nil, nil, NewBodyValidationError("invalid_connector",
				fmt.Sprintf("Connector %q must be %q or %q", clause.Op, ConnectorAnd, ConnectorOr), pointer+"/op")
		}
		switch clause.Type {
		case "", MatchExact, MatchContains, MatchStartsWith, MatchEndsWith:
		default:
			return nil, nil, NewBodyValidationError("invalid_match_type",
				fmt.Sprintf("Match type %q is not supported", clause.Type), pointer+"/type")
		}
	}

	req := &QueryRequest{
		Page:   Page{Number: DefaultPage, Size: DefaultPerPage},
		Fields: make(map[string][]string),
	}

	if search.List != nil {
		if search.List.Page.Number != 0 {
			if search.List.Page.Number < 1 {
				return nil, nil, NewBodyValidationError("malformed_pagination",
					"page.number must be >= 1", "/list/page/number")
			}
			req.Page.Number = search.List.Page.Number
		}
		if search.List.Page.Size != 0 {
			req.Page.Size = clampPageSize(search.List.Page.Size)
		}
		if search.List.Sort != "" {
			sortFields, err := parseSort(search.List.Sort, desc)
			if err != nil {
				return nil, nil, err
			}
			req.Sort = sortFields
		}
		if search.List.Include != "" {
			req.Include = parseInclude(search.List.Include, desc)
		}
		for resourceType, raw := range search.List.Fields {
			fieldDesc, ok := registry.Lookup(resourceType)
			if !ok {
				continue
			}
			req.Fields[resourceType] = intersectAttributes(raw, fieldDesc)
		}
	}

	return &search, req, nil
}

// ApplySearch compiles the clause list into one predicate and attaches it
// to query. Clauses left-fold: the accumulated predicate of clauses 1..i is
// grouped, then clause i+1 joins it with the connector declared on clause
// i. SQL operator precedence never reorders a fold because every
// accumulated prefix is parenthesised.
func ApplySearch(query common.SelectQuery, clauses []Clause, desc *ResourceDescriptor) (common.SelectQuery, error) {
	compiled := make([]compiledClause, len(clauses))
	for i, clause := range clauses {
		c, err := compileClause(clause, desc, i)
		if err != nil {
			return nil, err
		}
		compiled[i] = c
	}

	var apply func(q common.SelectQuery, n int) common.SelectQuery
	apply = func(q common.SelectQuery, n int) common.SelectQuery {
		if n == 0 {
			return q.Where(compiled[0].sql, compiled[0].args...)
		}
		q = q.WhereGroup(func(g common.SelectQuery) common.SelectQuery {
			return apply(g, n-1)
		})
		if clauses[n-1].connector() == ConnectorOr {
			return q.WhereOr(compiled[n].sql, compiled[n].args...)
		}
		return q.Where(compiled[n].sql, compiled[n].args...)
	}

	last := len(clauses) - 1
	return query.WhereGroup(func(g common.SelectQuery) common.SelectQuery {
		return apply(g, last)
	}), nil
}

type compiledClause struct {
	sql  string
	args []interface{}
}

func compileClause(clause Clause, desc *ResourceDescriptor, index int) (compiledClause, error) {
	column := desc.Searchable[clause.Field]
	valueType := ValueTypeText
	if t, ok := desc.SearchTypes[clause.Field]; ok {
		valueType = t
	}

	switch clause.matchType() {
	case MatchExact:
		if valueType == ValueTypeText {
			return compiledClause{
				sql:  fmt.Sprintf("LOWER(%s) = LOWER(?)", column),
				args: []interface{}{clause.Value},
			}, nil
		}
		value, err := coerceValue(clause.Value, valueType)
		if err != nil {
			return compiledClause{}, NewBodyValidationError("malformed_clause_value",
				fmt.Sprintf("Value %q is not a valid %s for field %q", clause.Value, valueType, clause.Field),
				fmt.Sprintf("/clauses/%d/value", index))
		}
		return compiledClause{
			sql:  fmt.Sprintf("%s = ?", column),
			args: []interface{}{value},
		}, nil

	case MatchContains:
		return likeClause(column, "%"+escapeLike(clause.Value)+"%"), nil
	case MatchStartsWith:
		return likeClause(column, escapeLike(clause.Value)+"%"), nil
	case MatchEndsWith:
		return likeClause(column, "%"+escapeLike(clause.Value)), nil
	}

	return compiledClause{}, NewBodyValidationError("invalid_match_type",
		fmt.Sprintf("Match type %q is not supported", clause.Type),
		fmt.Sprintf("/clauses/%d/type", index))
}

func likeClause(column, pattern string) compiledClause {
	return compiledClause{
		sql:  fmt.Sprintf("LOWER(%s) LIKE LOWER(?) ESCAPE '\\'", column),
		args: []interface{}{pattern},
	}
}
