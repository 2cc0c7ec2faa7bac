package jsonapi

import (
	"errors"
	"strings"
	"testing"
)

func TestApplyFiltersEqualsText(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)
	query := &fakeSelect{}

	_, err := ApplyFilters(query, []Filter{
		{Field: "author", Operator: OperatorEquals, Value: "Klabnik"},
	}, desc)
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}

	got := query.renderConds()
	want := "LOWER(author_name) = LOWER('Klabnik')"
	if got != want {
		t.Errorf("predicate = %q, want %q", got, want)
	}
}

func TestApplyFiltersEqualsNonText(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)
	query := &fakeSelect{}

	_, err := ApplyFilters(query, []Filter{
		{Field: "year", Operator: OperatorEquals, Value: 2019},
	}, desc)
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}

	got := query.renderConds()
	if got != "year = '2019'" {
		t.Errorf("predicate = %q, want plain equality on integer fields", got)
	}
}

func TestApplyFiltersLike(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)
	query := &fakeSelect{}

	_, err := ApplyFilters(query, []Filter{
		{Field: "title", Operator: OperatorLike, Value: "rust"},
	}, desc)
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}

	got := query.renderConds()
	if !strings.Contains(got, "LOWER(title) LIKE LOWER('%rust%')") {
		t.Errorf("predicate = %q, want case-insensitive contains", got)
	}
}

func TestApplyFiltersEscapesLikeWildcards(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)
	query := &fakeSelect{}

	_, err := ApplyFilters(query, []Filter{
		{Field: "title", Operator: OperatorLike, Value: "100%_done"},
	}, desc)
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}

	got := query.renderConds()
	if !strings.Contains(got, `100\%\_done`) {
		t.Errorf("predicate = %q, want escaped wildcards", got)
	}
}

func TestApplyFiltersImplicitAnd(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)
	query := &fakeSelect{}

	_, err := ApplyFilters(query, []Filter{
		{Field: "title", Operator: OperatorLike, Value: "rust"},
		{Field: "year", Operator: OperatorEquals, Value: 2019},
	}, desc)
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}

	if len(query.conds) != 2 {
		t.Fatalf("conds = %v", query.conds)
	}
	if !strings.HasPrefix(query.conds[1], "AND ") {
		t.Errorf("second filter joined with %q, want AND", query.conds[1])
	}
}

func TestApplyFiltersUnknownField(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	_, err := ApplyFilters(&fakeSelect{}, []Filter{
		{Field: "publisher", Operator: OperatorEquals, Value: "x"},
	}, desc)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Parameter != "filter[publisher]" {
		t.Errorf("got %d %q, want 400 filter[publisher]", apiErr.Status, apiErr.Parameter)
	}
}

func TestApplyFiltersUnsupportedOperator(t *testing.T) {
	registry := testRegistry()
	desc := booksDescriptor(registry)

	_, err := ApplyFilters(&fakeSelect{}, []Filter{
		{Field: "title", Operator: FilterOperator("regex"), Value: ".*"},
	}, desc)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Code != "unsupported_operator" {
		t.Errorf("code = %q, want unsupported_operator", apiErr.Code)
	}
}
