package jsonapi

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pustaka/pkg/common"
)

// IncludeResult holds the side-loaded rows for every requested
// relationship, keyed by relationship name.
type IncludeResult struct {
	mu   sync.Mutex
	rows map[string][]Row
	// targetPK records each relationship's target primary-key column so
	// assembly can mint identifiers without another registry lookup.
	targetPK map[string]string
}

// Rows returns the target rows loaded for one relationship.
func (r *IncludeResult) Rows(relationship string) []Row {
	if r == nil {
		return nil
	}
	return r.rows[relationship]
}

func (r *IncludeResult) set(relationship string, rows []Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[relationship] = rows
}

// TargetPrimaryKey returns the primary-key column of a relationship's
// target type, recorded while resolving.
func (r *IncludeResult) TargetPrimaryKey(relationship string) string {
	if r == nil {
		return ""
	}
	return r.targetPK[relationship]
}

// ResolveIncludes batch-loads the targets of each requested relationship.
// Each relationship issues exactly one IN lookup regardless of the number
// of primary rows, and the per-relationship lookups run concurrently.
func ResolveIncludes(ctx context.Context, db common.Database, desc *ResourceDescriptor, registry *Registry, primary []Row, include []string) (*IncludeResult, error) {
	result := &IncludeResult{
		rows:     make(map[string][]Row, len(include)),
		targetPK: make(map[string]string, len(include)),
	}
	if len(include) == 0 || len(primary) == 0 {
		return result, nil
	}

	group, ctx := errgroup.WithContext(ctx)

	for _, name := range include {
		rel, ok := desc.Relationships[name]
		if !ok {
			// Parser already dropped unknown names; a miss here is a
			// wiring bug.
			return nil, NewInternalError(fmt.Errorf("relationship %q not declared on %s", name, desc.Type))
		}
		target, ok := registry.Lookup(rel.TargetType)
		if !ok {
			return nil, NewInternalError(fmt.Errorf("relationship %q targets unregistered type %q", name, rel.TargetType))
		}
		result.targetPK[name] = target.PrimaryKey

		relationship := rel
		relName := name
		group.Go(func() error {
			rows, err := loadRelated(ctx, db, desc, relationship, target, primary)
			if err != nil {
				return err
			}
			result.set(relName, rows)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// loadRelated issues the single batched lookup for one relationship.
func loadRelated(ctx context.Context, db common.Database, owner *ResourceDescriptor, rel Relationship, target *ResourceDescriptor, primary []Row) ([]Row, error) {
	var keyColumn, matchColumn string
	switch rel.Cardinality {
	case ToOne:
		// Owner rows carry the target key.
		keyColumn = rel.LocalKey
		matchColumn = target.PrimaryKey
	case ToMany:
		if rel.Linked() {
			return loadLinked(ctx, db, owner, rel, target, primary)
		}
		// Target rows carry the owner key.
		keyColumn = owner.PrimaryKey
		matchColumn = rel.ForeignKey
	default:
		return nil, NewInternalError(fmt.Errorf("relationship %q has unknown cardinality %v", rel.Name, rel.Cardinality))
	}

	keys := collectKeys(primary, keyColumn)
	if len(keys) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(keys))
	query := db.NewSelect().
		Table(target.Table).
		Where(inClause(matchColumn, len(keys)), keys...).
		Order(target.PrimaryKey + " ASC")
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// loadLinked resolves a linking-table relationship with one batched join:
// target rows joined through the link table, with the owner key from each
// link row aliased onto the target row so linkage can be rebuilt per owner.
// A target shared by several owners comes back once per link row; the
// included-set dedupe collapses the repeats.
func loadLinked(ctx context.Context, db common.Database, owner *ResourceDescriptor, rel Relationship, target *ResourceDescriptor, primary []Row) ([]Row, error) {
	keys := collectKeys(primary, owner.PrimaryKey)
	if len(keys) == 0 {
		return nil, nil
	}

	ownerKey := rel.LinkTable + "." + rel.LinkLocalKey
	rows := make([]Row, 0, len(keys))
	query := db.NewSelect().
		Table(target.Table).
		ColumnExpr(target.Table+".*").
		ColumnExpr(ownerKey).
		Join(fmt.Sprintf("JOIN %s ON %s.%s = %s.%s",
			rel.LinkTable, rel.LinkTable, rel.LinkForeignKey, target.Table, target.PrimaryKey)).
		Where(inClause(ownerKey, len(keys)), keys...).
		Order(target.Table + "." + target.PrimaryKey + " ASC")
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// collectKeys gathers the distinct non-nil values of column across rows,
// preserving first-seen order.
func collectKeys(rows []Row, column string) []interface{} {
	keys := make([]interface{}, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		value, ok := row[column]
		if !ok || value == nil {
			continue
		}
		id := fmt.Sprintf("%v", value)
		if seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, value)
	}
	return keys
}

// inClause builds "col IN (?, ?, ...)" with one placeholder per value so
// the keys bind as parameters on every driver.
func inClause(column string, n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}
