package jsonapi

import (
	"context"
	"fmt"
	"strings"

	"pustaka/pkg/common"
)

// testRegistry builds a small book-catalog schema exercising every
// descriptor feature: filters of each operator and type, default sort,
// to-one and to-many relationships, searchable fields.
func testRegistry() *Registry {
	registry := NewRegistry()

	registry.MustRegister(&ResourceDescriptor{
		Type:       "books",
		Table:      "books",
		PrimaryKey: "book_id",
		Attributes: []string{"title", "author_name", "year", "available", "author_id"},
		Filterable: map[string]FilterField{
			"title":     {Name: "title", Column: "title", Operator: OperatorLike, Type: ValueTypeText},
			"year":      {Name: "year", Column: "year", Operator: OperatorEquals, Type: ValueTypeInteger},
			"available": {Name: "available", Column: "available", Operator: OperatorEquals, Type: ValueTypeBool},
			"author":    {Name: "author", Column: "author_name", Operator: OperatorEquals, Type: ValueTypeText},
		},
		Sortable: map[string]string{
			"title": "title",
			"year":  "year",
			"id":    "book_id",
		},
		DefaultSort: []SortField{{Name: "id", Column: "book_id"}},
		Searchable: map[string]string{
			"title":  "title",
			"author": "author_name",
			"year":   "year",
		},
		SearchTypes: map[string]ValueType{"year": ValueTypeInteger},
		Relationships: map[string]Relationship{
			"author": {
				Name:        "author",
				Cardinality: ToOne,
				TargetType:  "authors",
				LocalKey:    "author_id",
			},
			"chapters": {
				Name:        "chapters",
				Cardinality: ToMany,
				TargetType:  "chapters",
				ForeignKey:  "book_id",
			},
			"genres": {
				Name:           "genres",
				Cardinality:    ToMany,
				TargetType:     "genres",
				LinkTable:      "book_genre",
				LinkLocalKey:   "book_id",
				LinkForeignKey: "genre_id",
			},
		},
	})

	registry.MustRegister(&ResourceDescriptor{
		Type:        "authors",
		Table:       "authors",
		PrimaryKey:  "author_id",
		Attributes:  []string{"name", "country"},
		Filterable:  map[string]FilterField{"name": {Name: "name", Column: "name", Operator: OperatorLike, Type: ValueTypeText}},
		Sortable:    map[string]string{"name": "name"},
		DefaultSort: []SortField{{Name: "id", Column: "author_id"}},
		Searchable:  map[string]string{"name": "name"},
	})

	registry.MustRegister(&ResourceDescriptor{
		Type:        "genres",
		Table:       "genres",
		PrimaryKey:  "genre_id",
		Attributes:  []string{"name"},
		Sortable:    map[string]string{"name": "name"},
		DefaultSort: []SortField{{Name: "id", Column: "genre_id"}},
	})

	registry.MustRegister(&ResourceDescriptor{
		Type:        "chapters",
		Table:       "chapters",
		PrimaryKey:  "chapter_id",
		Attributes:  []string{"book_id", "title", "number"},
		Sortable:    map[string]string{"number": "number"},
		DefaultSort: []SortField{{Name: "id", Column: "chapter_id"}},
	})

	return registry
}

func booksDescriptor(registry *Registry) *ResourceDescriptor {
	desc, _ := registry.Lookup("books")
	return desc
}

// fakeSelect records predicate application so tests can assert the exact
// shape of the compiled WHERE tree without a database.
type fakeSelect struct {
	conds  []string
	orders []string
	limit  int
	offset int
}

func (f *fakeSelect) Model(model interface{}) common.SelectQuery        { return f }
func (f *fakeSelect) Table(table string) common.SelectQuery             { return f }
func (f *fakeSelect) Column(columns ...string) common.SelectQuery       { return f }
func (f *fakeSelect) ColumnExpr(q string, a ...interface{}) common.SelectQuery {
	return f
}

func (f *fakeSelect) Where(query string, args ...interface{}) common.SelectQuery {
	f.conds = append(f.conds, "AND "+bindArgs(query, args))
	return f
}

func (f *fakeSelect) WhereOr(query string, args ...interface{}) common.SelectQuery {
	f.conds = append(f.conds, "OR "+bindArgs(query, args))
	return f
}

func (f *fakeSelect) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	group := &fakeSelect{}
	fn(group)
	f.conds = append(f.conds, "AND ("+group.renderConds()+")")
	return f
}

func (f *fakeSelect) Join(q string, a ...interface{}) common.SelectQuery { return f }

func (f *fakeSelect) Order(order string) common.SelectQuery {
	f.orders = append(f.orders, order)
	return f
}

func (f *fakeSelect) OrderExpr(order string, a ...interface{}) common.SelectQuery {
	f.orders = append(f.orders, order)
	return f
}

func (f *fakeSelect) Limit(n int) common.SelectQuery  { f.limit = n; return f }
func (f *fakeSelect) Offset(n int) common.SelectQuery { f.offset = n; return f }

func (f *fakeSelect) Scan(ctx context.Context, dest interface{}) error { return nil }
func (f *fakeSelect) Count(ctx context.Context) (int, error)           { return 0, nil }
func (f *fakeSelect) Exists(ctx context.Context) (bool, error)         { return false, nil }

// renderConds joins recorded conditions, dropping the leading connector of
// the first one, mirroring how SQL builders render WHERE lists.
func (f *fakeSelect) renderConds() string {
	if len(f.conds) == 0 {
		return ""
	}
	first := strings.TrimPrefix(strings.TrimPrefix(f.conds[0], "AND "), "OR ")
	parts := append([]string{first}, f.conds[1:]...)
	return strings.Join(parts, " ")
}

func bindArgs(query string, args []interface{}) string {
	for _, arg := range args {
		query = strings.Replace(query, "?", fmt.Sprintf("'%v'", arg), 1)
	}
	return query
}
