package jsonapi

import (
	"context"

	"golang.org/x/sync/errgroup"

	"pustaka/pkg/common"
)

// Row is one backing-store row keyed by column name. It is an alias so
// scan destinations stay the plain map type drivers expect.
type Row = map[string]interface{}

// PageResult is the paginator output: the page slice plus the total count
// of rows matching the filters, independent of the page window.
type PageResult struct {
	Rows  []Row
	Page  Page
	Total int
}

// HasNext reports whether rows exist beyond this page.
func (p *PageResult) HasNext() bool {
	return p.Page.Number*p.Page.Size < p.Total
}

// HasPrev reports whether a previous page exists.
func (p *PageResult) HasPrev() bool {
	return p.Page.Number > 1
}

// FetchPage issues the count query and the page-slice query concurrently.
// buildBase must return a fresh filtered query on every call; the count
// runs without sort or bounds so total is invariant across page windows.
func FetchPage(ctx context.Context, buildBase func() (common.SelectQuery, error), sortFields []SortField, page Page) (*PageResult, error) {
	result := &PageResult{Page: page}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		query, err := buildBase()
		if err != nil {
			return err
		}
		total, err := query.Count(ctx)
		if err != nil {
			return err
		}
		result.Total = total
		return nil
	})

	group.Go(func() error {
		query, err := buildBase()
		if err != nil {
			return err
		}
		query = ApplySort(query, sortFields).Limit(page.Size).Offset(page.Offset())
		rows := make([]Row, 0, page.Size)
		if err := query.Scan(ctx, &rows); err != nil {
			return err
		}
		result.Rows = rows
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
