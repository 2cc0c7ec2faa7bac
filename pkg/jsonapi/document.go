package jsonapi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"pustaka/pkg/common"
)

// Resource is one JSON:API resource object.
type Resource struct {
	Type          string                         `json:"type"`
	ID            string                         `json:"id"`
	Attributes    map[string]interface{}         `json:"attributes,omitempty"`
	Relationships map[string]*RelationshipObject `json:"relationships,omitempty"`
}

// ResourceIdentifier is a (type, id) reference.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RelationshipObject carries resource linkage: a single identifier (or
// null) for to-one, an ordered identifier list for to-many.
type RelationshipObject struct {
	Data interface{} `json:"data"`
}

// Meta is the pagination block of a collection document.
type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// Links holds the pagination links. Next and Prev are present only when
// the corresponding page exists.
type Links struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// CompoundDocument is a JSON:API success response body.
type CompoundDocument struct {
	Data     interface{} `json:"data"`
	Included []*Resource `json:"included,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
	Links    *Links      `json:"links,omitempty"`
}

// formatID renders a primary-key value as a JSON:API id string.
func formatID(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		// Some drivers surface integer keys as floats.
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MakeResource serializes one row of a resource type, projecting attributes
// per the request's sparse fieldsets. Relationship linkage is attached for
// each name in include, using the side-loaded rows to resolve to-many sets.
func MakeResource(row Row, desc *ResourceDescriptor, fields map[string][]string, include []string, includes *IncludeResult) *Resource {
	resource := &Resource{
		Type:       desc.Type,
		ID:         formatID(row[desc.PrimaryKey]),
		Attributes: ProjectAttributes(row, desc, fields),
	}

	for _, name := range include {
		rel, ok := desc.Relationships[name]
		if !ok {
			continue
		}
		if resource.Relationships == nil {
			resource.Relationships = make(map[string]*RelationshipObject)
		}
		resource.Relationships[name] = linkRelationship(row, desc, rel, includes)
	}
	return resource
}

func linkRelationship(row Row, owner *ResourceDescriptor, rel Relationship, includes *IncludeResult) *RelationshipObject {
	switch rel.Cardinality {
	case ToOne:
		value, ok := row[rel.LocalKey]
		if !ok || value == nil {
			return &RelationshipObject{Data: nil}
		}
		return &RelationshipObject{Data: ResourceIdentifier{Type: rel.TargetType, ID: formatID(value)}}

	case ToMany:
		ownerID := formatID(row[owner.PrimaryKey])
		targetPK := includes.TargetPrimaryKey(rel.Name)
		// Linked targets carry the owner key aliased from the link table;
		// direct targets carry it in their foreign key column.
		ownerColumn := rel.ForeignKey
		if rel.Linked() {
			ownerColumn = rel.LinkLocalKey
		}
		identifiers := make([]ResourceIdentifier, 0)
		for _, target := range includes.Rows(rel.Name) {
			if formatID(target[ownerColumn]) == ownerID {
				identifiers = append(identifiers, ResourceIdentifier{
					Type: rel.TargetType,
					ID:   formatID(target[targetPK]),
				})
			}
		}
		return &RelationshipObject{Data: identifiers}

	default:
		return &RelationshipObject{Data: nil}
	}
}

// BuildCollectionDocument assembles the compound document for a list or
// search response: page slice as data, deduplicated side-loads as included,
// pagination meta, and self/next/prev links.
func BuildCollectionDocument(desc *ResourceDescriptor, registry *Registry, page *PageResult, includes *IncludeResult, req *QueryRequest, requestURL string) *CompoundDocument {
	data := make([]*Resource, 0, len(page.Rows))
	for _, row := range page.Rows {
		data = append(data, MakeResource(row, desc, req.Fields, req.Include, includes))
	}

	doc := &CompoundDocument{
		Data: data,
		Meta: &Meta{Page: page.Page.Number, PerPage: page.Page.Size, Total: page.Total},
	}

	if len(req.Include) > 0 {
		doc.Included = assembleIncluded(desc, registry, req, includes)
	}

	doc.Links = buildLinks(requestURL, page)
	return doc
}

// assembleIncluded merges per-relationship side-loads into one list,
// deduplicated by (type, id) with first-encounter order retained.
func assembleIncluded(desc *ResourceDescriptor, registry *Registry, req *QueryRequest, includes *IncludeResult) []*Resource {
	included := make([]*Resource, 0)
	seen := make(map[ResourceIdentifier]bool)

	for _, name := range req.Include {
		rel, ok := desc.Relationships[name]
		if !ok {
			continue
		}
		target, ok := registry.Lookup(rel.TargetType)
		if !ok {
			continue
		}
		for _, row := range includes.Rows(name) {
			key := ResourceIdentifier{Type: target.Type, ID: formatID(row[target.PrimaryKey])}
			if seen[key] {
				continue
			}
			seen[key] = true
			included = append(included, MakeResource(row, target, req.Fields, nil, nil))
		}
	}
	return included
}

// BuildResourceDocument assembles the document for a single-resource
// response: one resource as data plus deduplicated side-loads.
func BuildResourceDocument(desc *ResourceDescriptor, registry *Registry, row Row, includes *IncludeResult, req *QueryRequest, requestURL string) *CompoundDocument {
	doc := &CompoundDocument{
		Data:  MakeResource(row, desc, req.Fields, req.Include, includes),
		Links: &Links{Self: requestURL},
	}
	if len(req.Include) > 0 {
		doc.Included = assembleIncluded(desc, registry, req, includes)
	}
	return doc
}

// buildLinks derives self/next/prev from the request URL by rewriting only
// page[number]; every other parameter is carried through canonically.
func buildLinks(requestURL string, page *PageResult) *Links {
	links := &Links{Self: pageLink(requestURL, page.Page.Number, page.Page.Size)}
	if page.HasNext() {
		links.Next = pageLink(requestURL, page.Page.Number+1, page.Page.Size)
	}
	if page.HasPrev() {
		links.Prev = pageLink(requestURL, page.Page.Number-1, page.Page.Size)
	}
	return links
}

func pageLink(requestURL string, number, size int) string {
	parsed, err := url.Parse(requestURL)
	if err != nil {
		return requestURL
	}
	values := parsed.Query()
	values.Set("page[number]", strconv.Itoa(number))
	values.Set("page[size]", strconv.Itoa(size))
	parsed.RawQuery = encodeCanonical(values)
	return parsed.String()
}

// encodeCanonical renders query values with sorted keys but without
// percent-encoding the square brackets JSON:API parameter names use.
func encodeCanonical(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf []byte
	for _, key := range keys {
		for _, value := range values[key] {
			if len(buf) > 0 {
				buf = append(buf, '&')
			}
			buf = append(buf, key...)
			buf = append(buf, '=')
			buf = append(buf, url.QueryEscape(value)...)
		}
	}
	return string(buf)
}

// writeJSONBody marshals v and writes it without touching headers; callers
// set the JSON:API content type and status first.
func writeJSONBody(w common.ResponseWriter, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// WriteDocument writes a success document with the JSON:API media type.
func WriteDocument(w common.ResponseWriter, status int, doc *CompoundDocument) error {
	w.SetHeader("Content-Type", ContentType)
	w.WriteHeader(status)
	return writeJSONBody(w, doc)
}
