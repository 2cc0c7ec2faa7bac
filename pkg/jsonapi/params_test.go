package jsonapi

import (
	"errors"
	"testing"
)

func TestParseQueryPagination(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	tests := []struct {
		name       string
		params     map[string]string
		wantNumber int
		wantSize   int
	}{
		{"defaults", map[string]string{}, 1, 20},
		{"explicit page", map[string]string{"page[number]": "3", "page[size]": "50"}, 3, 50},
		{"size above max clamps silently", map[string]string{"page[size]": "1000"}, 1, 100},
		{"size below min clamps silently", map[string]string{"page[size]": "0"}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseQuery(tt.params, desc, registry)
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}
			if req.Page.Number != tt.wantNumber {
				t.Errorf("page number = %d, want %d", req.Page.Number, tt.wantNumber)
			}
			if req.Page.Size != tt.wantSize {
				t.Errorf("page size = %d, want %d", req.Page.Size, tt.wantSize)
			}
		})
	}
}

func TestParseQueryPaginationErrors(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	tests := []struct {
		name      string
		params    map[string]string
		wantParam string
	}{
		{"non-integer number", map[string]string{"page[number]": "abc"}, "page[number]"},
		{"zero number", map[string]string{"page[number]": "0"}, "page[number]"},
		{"negative number", map[string]string{"page[number]": "-1"}, "page[number]"},
		{"non-integer size", map[string]string{"page[size]": "lots"}, "page[size]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.params, desc, registry)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Status != 400 {
				t.Errorf("status = %d, want 400", apiErr.Status)
			}
			if apiErr.Parameter != tt.wantParam {
				t.Errorf("source parameter = %q, want %q", apiErr.Parameter, tt.wantParam)
			}
			if apiErr.Pointer != tt.wantParam {
				t.Errorf("source pointer = %q, want %q", apiErr.Pointer, tt.wantParam)
			}
		})
	}
}

func TestParseQueryOffset(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	req, err := ParseQuery(map[string]string{"page[number]": "4", "page[size]": "25"}, desc, registry)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if got := req.Page.Offset(); got != 75 {
		t.Errorf("Offset() = %d, want 75", got)
	}
}

func TestParseQuerySort(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	req, err := ParseQuery(map[string]string{"sort": "-year,title"}, desc, registry)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if len(req.Sort) != 2 {
		t.Fatalf("sort terms = %d, want 2", len(req.Sort))
	}
	if req.Sort[0].Column != "year" || !req.Sort[0].Descending {
		t.Errorf("first term = %+v, want year descending", req.Sort[0])
	}
	if req.Sort[1].Column != "title" || req.Sort[1].Descending {
		t.Errorf("second term = %+v, want title ascending", req.Sort[1])
	}
}

func TestParseQueryUnknownSortField(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	_, err := ParseQuery(map[string]string{"sort": "shoe_size"}, desc, registry)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Code != "unknown_sort_field" {
		t.Errorf("got %d %s, want 400 unknown_sort_field", apiErr.Status, apiErr.Code)
	}
}

func TestParseQueryInclude(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	t.Run("duplicates collapse", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{"include": "author,author"}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		if len(req.Include) != 1 || req.Include[0] != "author" {
			t.Errorf("include = %v, want [author]", req.Include)
		}
	})

	t.Run("unknown names dropped silently", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{"include": "author,publisher"}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		if len(req.Include) != 1 || req.Include[0] != "author" {
			t.Errorf("include = %v, want [author]", req.Include)
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{"include": "chapters,author"}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		if len(req.Include) != 2 || req.Include[0] != "chapters" || req.Include[1] != "author" {
			t.Errorf("include = %v, want [chapters author]", req.Include)
		}
	})
}

func TestParseQueryFilters(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	req, err := ParseQuery(map[string]string{
		"filter[title]":     "rust",
		"filter[year]":      "2019",
		"filter[available]": "true",
	}, desc, registry)
	if err != nil {
		t.Fatalf("ParseQuery() error = %v", err)
	}
	if len(req.Filters) != 3 {
		t.Fatalf("filters = %d, want 3", len(req.Filters))
	}

	byField := make(map[string]Filter)
	for _, f := range req.Filters {
		byField[f.Field] = f
	}
	if byField["title"].Operator != OperatorLike || byField["title"].Value != "rust" {
		t.Errorf("title filter = %+v", byField["title"])
	}
	if byField["year"].Value != 2019 {
		t.Errorf("year filter value = %v (%T), want int 2019", byField["year"].Value, byField["year"].Value)
	}
	if byField["available"].Value != true {
		t.Errorf("available filter value = %v, want true", byField["available"].Value)
	}
}

func TestParseQueryUnknownFilterField(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	_, err := ParseQuery(map[string]string{"filter[unknownField]": "x"}, desc, registry)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != 400 {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Pointer != "filter[unknownField]" {
		t.Errorf("source pointer = %q, want filter[unknownField]", apiErr.Pointer)
	}
	if apiErr.Parameter != "filter[unknownField]" {
		t.Errorf("source parameter = %q, want filter[unknownField]", apiErr.Parameter)
	}
}

func TestParseQueryMalformedFilterValue(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	_, err := ParseQuery(map[string]string{"filter[year]": "twenty"}, desc, registry)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Code != "malformed_filter_value" {
		t.Errorf("got %d %s, want 400 malformed_filter_value", apiErr.Status, apiErr.Code)
	}
}

func TestParseQueryFields(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	t.Run("intersected with declared attributes", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{"fields[books]": "title,price,year"}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		got := req.Fields["books"]
		if len(got) != 2 || got[0] != "title" || got[1] != "year" {
			t.Errorf("fields[books] = %v, want [title year]", got)
		}
	})

	t.Run("projection keyed per type", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{
			"fields[books]":   "title",
			"fields[authors]": "name",
		}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		if len(req.Fields["books"]) != 1 || len(req.Fields["authors"]) != 1 {
			t.Errorf("fields = %v", req.Fields)
		}
	})

	t.Run("unknown type ignored", func(t *testing.T) {
		req, err := ParseQuery(map[string]string{"fields[planets]": "mass"}, desc, registry)
		if err != nil {
			t.Fatalf("ParseQuery() error = %v", err)
		}
		if _, present := req.Fields["planets"]; present {
			t.Errorf("fields[planets] should be absent, got %v", req.Fields)
		}
	})
}
