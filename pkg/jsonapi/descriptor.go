package jsonapi

import (
	"fmt"
	"sync"
)

// FilterOperator is the comparison a FilterField supports.
type FilterOperator string

const (
	// OperatorEquals matches the whole value. Equality is case-insensitive
	// on text fields and plain on integer/bool fields.
	OperatorEquals FilterOperator = "equals"
	// OperatorLike matches a case-insensitive substring.
	OperatorLike FilterOperator = "like"
)

// ValueType declares how a raw filter value is coerced before binding.
type ValueType string

const (
	ValueTypeText    ValueType = "text"
	ValueTypeInteger ValueType = "integer"
	ValueTypeBool    ValueType = "bool"
)

// Cardinality is the shape of a relationship.
type Cardinality int

const (
	// ToOne links each owner row to at most one target row via a foreign
	// key column on the owner.
	ToOne Cardinality = iota
	// ToMany links each owner row to any number of target rows, either
	// via a foreign key column on the target or through a linking table.
	ToMany
)

func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// FilterField declares one filterable field of a resource type.
type FilterField struct {
	// Name is the public field name used in filter[<name>].
	Name string
	// Column is the backing column the predicate runs against.
	Column string
	Operator FilterOperator
	Type     ValueType
}

// SortField is one ordering term.
type SortField struct {
	Name       string
	Column     string
	Descending bool
}

// Relationship declares a named link from an owner resource type to a
// target resource type.
type Relationship struct {
	Name        string
	Cardinality Cardinality
	// TargetType is the related resource type; it must be registered.
	TargetType string
	// LocalKey is the owner column referencing the target primary key.
	// Used for to-one relationships.
	LocalKey string
	// ForeignKey is the target column referencing the owner primary key.
	// Used for to-many relationships with a direct foreign key.
	ForeignKey string
	// LinkTable names a linking table for to-many relationships with no
	// direct foreign key. Link rows carry LinkLocalKey referencing the
	// owner primary key and LinkForeignKey referencing the target primary
	// key. When LinkTable is set, ForeignKey is ignored.
	LinkTable      string
	LinkLocalKey   string
	LinkForeignKey string
}

// Linked reports whether the relationship resolves through a linking table.
func (r Relationship) Linked() bool {
	return r.LinkTable != ""
}

// ResourceDescriptor is the static metadata of one resource type. It is
// built once at startup and shared read-only by every request.
type ResourceDescriptor struct {
	// Type is the JSON:API resource type, e.g. "biblios".
	Type string
	// Table is the backing table name.
	Table string
	// PrimaryKey is the primary key column.
	PrimaryKey string
	// Attributes are the serializable columns, excluding the primary key.
	Attributes []string
	// Filterable maps public filter names to their declarations.
	Filterable map[string]FilterField
	// Sortable maps public sort names to backing columns.
	Sortable map[string]string
	// DefaultSort applies when a request carries no sort parameter.
	DefaultSort []SortField
	// Searchable maps advanced-search field names to backing columns.
	Searchable map[string]string
	// SearchTypes optionally declares a non-text value type for a
	// searchable field; absent entries are text.
	SearchTypes map[string]ValueType
	// Relationships maps include names to their declarations.
	Relationships map[string]Relationship
}

// HasAttribute reports whether name is a declared attribute.
func (d *ResourceDescriptor) HasAttribute(name string) bool {
	for _, attr := range d.Attributes {
		if attr == name {
			return true
		}
	}
	return false
}

// Registry holds the descriptor table. It is populated during startup and
// read-only afterwards; the RWMutex keeps registration safe if init code
// runs from multiple goroutines.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*ResourceDescriptor
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]*ResourceDescriptor)}
}

// Register adds a descriptor. It fails on duplicate types and on obviously
// incomplete descriptors so wiring mistakes surface at startup, not per
// request.
func (r *Registry) Register(desc *ResourceDescriptor) error {
	if desc.Type == "" || desc.Table == "" || desc.PrimaryKey == "" {
		return fmt.Errorf("descriptor requires type, table and primary key (got type=%q table=%q pk=%q)",
			desc.Type, desc.Table, desc.PrimaryKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[desc.Type]; exists {
		return fmt.Errorf("resource type %q already registered", desc.Type)
	}
	r.descriptors[desc.Type] = desc
	return nil
}

// MustRegister is Register for startup wiring where a failure is fatal.
func (r *Registry) MustRegister(desc *ResourceDescriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for a resource type.
func (r *Registry) Lookup(resourceType string) (*ResourceDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[resourceType]
	return desc, ok
}

// Types returns the registered resource type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.descriptors))
	for t := range r.descriptors {
		types = append(types, t)
	}
	return types
}
