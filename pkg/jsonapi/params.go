package jsonapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pagination bounds. Sizes outside [1, MaxPerPage] are clamped silently.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Filter is one validated filter term.
type Filter struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

// Page is the validated pagination window.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset of this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// QueryRequest is a fully validated list request. It is immutable once
// built; nothing downstream revalidates.
type QueryRequest struct {
	Filters []Filter
	Sort    []SortField
	Page    Page
	// Include holds declared relationship names only, deduplicated,
	// in first-seen order.
	Include []string
	// Fields maps resource type to its sparse fieldset, already
	// intersected with that type's attributes.
	Fields map[string][]string
}

// ParseQuery validates raw query parameters against a descriptor and
// builds a QueryRequest. All validation happens here, before any
// backing-store access.
func ParseQuery(params map[string]string, desc *ResourceDescriptor, registry *Registry) (*QueryRequest, error) {
	req := &QueryRequest{
		Page:   Page{Number: DefaultPage, Size: DefaultPerPage},
		Fields: make(map[string][]string),
	}

	if err := parsePage(params, &req.Page); err != nil {
		return nil, err
	}

	if raw, ok := params["sort"]; ok && raw != "" {
		sortFields, err := parseSort(raw, desc)
		if err != nil {
			return nil, err
		}
		req.Sort = sortFields
	}

	if raw, ok := params["include"]; ok {
		req.Include = parseInclude(raw, desc)
	}

	// filter[...] and fields[...] keys are collected in sorted order so
	// the resulting request is deterministic.
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			field := key[len("filter[") : len(key)-1]
			filter, err := parseFilter(field, params[key], desc)
			if err != nil {
				return nil, err
			}
			req.Filters = append(req.Filters, filter)

		case strings.HasPrefix(key, "fields[") && strings.HasSuffix(key, "]"):
			resourceType := key[len("fields[") : len(key)-1]
			fieldDesc, ok := registry.Lookup(resourceType)
			if !ok {
				continue
			}
			req.Fields[resourceType] = intersectAttributes(params[key], fieldDesc)
		}
	}

	return req, nil
}

func parsePage(params map[string]string, page *Page) error {
	if raw, ok := params["page[number]"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("malformed_pagination",
				fmt.Sprintf("page[number] must be an integer, got %q", raw), "page[number]")
		}
		if n < 1 {
			return NewValidationError("malformed_pagination",
				"page[number] must be >= 1", "page[number]")
		}
		page.Number = n
	}

	if raw, ok := params["page[size]"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("malformed_pagination",
				fmt.Sprintf("page[size] must be an integer, got %q", raw), "page[size]")
		}
		page.Size = clampPageSize(n)
	}

	return nil
}

func clampPageSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

func parseSort(raw string, desc *ResourceDescriptor) ([]SortField, error) {
	var fields []SortField
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		descending := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")

		column, ok := desc.Sortable[name]
		if !ok {
			return nil, NewValidationError("unknown_sort_field",
				fmt.Sprintf("Field %q is not sortable on %s", name, desc.Type), "sort")
		}
		fields = append(fields, SortField{Name: name, Column: column, Descending: descending})
	}
	return fields, nil
}

// parseInclude splits on commas, deduplicates, and silently drops names
// that are not declared relationships.
func parseInclude(raw string, desc *ResourceDescriptor) []string {
	var include []string
	seen := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := desc.Relationships[name]; ok {
			include = append(include, name)
		}
	}
	return include
}

func parseFilter(field, raw string, desc *ResourceDescriptor) (Filter, error) {
	decl, ok := desc.Filterable[field]
	if !ok {
		return Filter{}, NewValidationError("unknown_filter_field",
			fmt.Sprintf("Field %q is not filterable on %s", field, desc.Type),
			fmt.Sprintf("filter[%s]", field))
	}

	value, err := coerceValue(raw, decl.Type)
	if err != nil {
		return Filter{}, NewValidationError("malformed_filter_value",
			fmt.Sprintf("Value %q is not a valid %s for field %q", raw, decl.Type, field),
			fmt.Sprintf("filter[%s]", field))
	}

	return Filter{Field: field, Operator: decl.Operator, Value: value}, nil
}

func coerceValue(raw string, valueType ValueType) (interface{}, error) {
	switch valueType {
	case ValueTypeInteger:
		return strconv.Atoi(raw)
	case ValueTypeBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// intersectAttributes restricts a requested comma-separated fieldset to the
// descriptor's declared attributes, preserving request order.
func intersectAttributes(raw string, desc *ResourceDescriptor) []string {
	fields := make([]string, 0)
	seen := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if desc.HasAttribute(name) {
			fields = append(fields, name)
		}
	}
	return fields
}
