package models

import (
	"pustaka/pkg/jsonapi"
)

// RegisterAll registers the descriptors of every exposed resource type.
// The registry is the single source of truth for what the generic
// endpoints serve; anything not registered here is a 404.
func RegisterAll(registry *jsonapi.Registry) error {
	descriptors := []*jsonapi.ResourceDescriptor{
		Biblios(),
		Items(),
		Loans(),
		Members(),
		Visitors(),
		Contents(),
		Files(),
	}
	descriptors = append(descriptors, Lookups()...)

	for _, desc := range descriptors {
		if err := registry.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

// Biblios describes the bibliographic records. The master-file lookups
// hang off it as to-one relationships, the physical copies as a direct
// to-many, and authors and topics through their linking tables.
func Biblios() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "biblios",
		Table:      "biblio",
		PrimaryKey: "biblio_id",
		Attributes: []string{
			"title", "gmd_id", "publisher_id", "publish_year", "language_id",
			"content_type_id", "media_type_id", "carrier_type_id",
			"frequency_id", "publish_place_id", "classification",
			"call_number", "opac_hide", "promoted", "input_date", "last_update",
		},
		Filterable: map[string]jsonapi.FilterField{
			"title":          {Name: "title", Column: "title", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
			"classification": {Name: "classification", Column: "classification", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
			"call_number":    {Name: "call_number", Column: "call_number", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"publish_year":   {Name: "publish_year", Column: "publish_year", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"gmd":            {Name: "gmd", Column: "gmd_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"publisher":      {Name: "publisher", Column: "publisher_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"language":       {Name: "language", Column: "language_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"promoted":       {Name: "promoted", Column: "promoted", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
		},
		Sortable: map[string]string{
			"id":           "biblio_id",
			"title":        "title",
			"publish_year": "publish_year",
			"input_date":   "input_date",
			"last_update":  "last_update",
		},
		DefaultSort: []jsonapi.SortField{{Name: "id", Column: "biblio_id", Descending: true}},
		Searchable: map[string]string{
			"title":          "title",
			"classification": "classification",
			"call_number":    "call_number",
			"publish_year":   "publish_year",
		},
		Relationships: map[string]jsonapi.Relationship{
			"gmd":          {Name: "gmd", Cardinality: jsonapi.ToOne, TargetType: "gmd", LocalKey: "gmd_id"},
			"publisher":    {Name: "publisher", Cardinality: jsonapi.ToOne, TargetType: "publishers", LocalKey: "publisher_id"},
			"language":     {Name: "language", Cardinality: jsonapi.ToOne, TargetType: "languages", LocalKey: "language_id"},
			"content_type": {Name: "content_type", Cardinality: jsonapi.ToOne, TargetType: "content-types", LocalKey: "content_type_id"},
			"media_type":   {Name: "media_type", Cardinality: jsonapi.ToOne, TargetType: "media-types", LocalKey: "media_type_id"},
			"carrier_type": {Name: "carrier_type", Cardinality: jsonapi.ToOne, TargetType: "carrier-types", LocalKey: "carrier_type_id"},
			"frequency":    {Name: "frequency", Cardinality: jsonapi.ToOne, TargetType: "frequencies", LocalKey: "frequency_id"},
			"place":        {Name: "place", Cardinality: jsonapi.ToOne, TargetType: "places", LocalKey: "publish_place_id"},
			"items":        {Name: "items", Cardinality: jsonapi.ToMany, TargetType: "items", ForeignKey: "biblio_id"},
			"authors":      {Name: "authors", Cardinality: jsonapi.ToMany, TargetType: "authors", LinkTable: "biblio_author", LinkLocalKey: "biblio_id", LinkForeignKey: "author_id"},
			"topics":       {Name: "topics", Cardinality: jsonapi.ToMany, TargetType: "topics", LinkTable: "biblio_topic", LinkLocalKey: "biblio_id", LinkForeignKey: "topic_id"},
		},
	}
}

// Items describes the physical copies.
func Items() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "items",
		Table:      "item",
		PrimaryKey: "item_id",
		Attributes: []string{
			"item_code", "biblio_id", "call_number", "coll_type_id",
			"location_id", "item_status_id", "last_update",
		},
		Filterable: map[string]jsonapi.FilterField{
			"item_code":   {Name: "item_code", Column: "item_code", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"biblio":      {Name: "biblio", Column: "biblio_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"location":    {Name: "location", Column: "location_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"item_status": {Name: "item_status", Column: "item_status_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"call_number": {Name: "call_number", Column: "call_number", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
		},
		Sortable: map[string]string{
			"id":          "item_id",
			"item_code":   "item_code",
			"last_update": "last_update",
		},
		DefaultSort: []jsonapi.SortField{{Name: "id", Column: "item_id", Descending: true}},
		Searchable: map[string]string{
			"item_code":   "item_code",
			"call_number": "call_number",
		},
		Relationships: map[string]jsonapi.Relationship{
			"biblio":      {Name: "biblio", Cardinality: jsonapi.ToOne, TargetType: "biblios", LocalKey: "biblio_id"},
			"coll_type":   {Name: "coll_type", Cardinality: jsonapi.ToOne, TargetType: "coll-types", LocalKey: "coll_type_id"},
			"location":    {Name: "location", Cardinality: jsonapi.ToOne, TargetType: "locations", LocalKey: "location_id"},
			"item_status": {Name: "item_status", Cardinality: jsonapi.ToOne, TargetType: "item-statuses", LocalKey: "item_status_id"},
		},
	}
}

// Loans describes circulation records. The item side of a loan joins on
// item_code rather than the item primary key, which the relationship
// model cannot express, so only the member include is declared.
func Loans() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "loans",
		Table:      "loan",
		PrimaryKey: "loan_id",
		Attributes: []string{
			"item_code", "member_id", "loan_date", "due_date", "renewed",
			"is_lent", "is_return", "actual", "return_date",
		},
		Filterable: map[string]jsonapi.FilterField{
			"member":    {Name: "member", Column: "member_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"item_code": {Name: "item_code", Column: "item_code", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"is_return": {Name: "is_return", Column: "is_return", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
		},
		Sortable: map[string]string{
			"id":        "loan_id",
			"loan_date": "loan_date",
			"due_date":  "due_date",
		},
		DefaultSort: []jsonapi.SortField{{Name: "loan_date", Column: "loan_date", Descending: true}},
		Searchable: map[string]string{
			"item_code": "item_code",
			"member":    "member_id",
		},
		Relationships: map[string]jsonapi.Relationship{
			"member": {Name: "member", Cardinality: jsonapi.ToOne, TargetType: "members", LocalKey: "member_id"},
		},
	}
}

// Members describes registered borrowers.
func Members() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "members",
		Table:      "member",
		PrimaryKey: "member_id",
		Attributes: []string{
			"member_name", "member_email", "gender", "member_type_id",
			"member_address", "member_phone", "register_date", "expire_date",
			"birth_date", "is_pending",
		},
		Filterable: map[string]jsonapi.FilterField{
			"member_id":    {Name: "member_id", Column: "member_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"member_name":  {Name: "member_name", Column: "member_name", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
			"member_email": {Name: "member_email", Column: "member_email", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"member_type":  {Name: "member_type", Column: "member_type_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"is_pending":   {Name: "is_pending", Column: "is_pending", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
		},
		Sortable: map[string]string{
			"id":            "member_id",
			"member_name":   "member_name",
			"expire_date":   "expire_date",
			"register_date": "register_date",
		},
		DefaultSort: []jsonapi.SortField{{Name: "register_date", Column: "register_date", Descending: true}},
		Searchable: map[string]string{
			"member_name":  "member_name",
			"member_email": "member_email",
		},
		Relationships: map[string]jsonapi.Relationship{
			"member_type": {Name: "member_type", Cardinality: jsonapi.ToOne, TargetType: "member-types", LocalKey: "member_type_id"},
			"loans":       {Name: "loans", Cardinality: jsonapi.ToMany, TargetType: "loans", ForeignKey: "member_id"},
			"visits":      {Name: "visits", Cardinality: jsonapi.ToMany, TargetType: "visitors", ForeignKey: "member_id"},
		},
	}
}

// Visitors describes the check-in counter rows.
func Visitors() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "visitors",
		Table:      "visitor_count",
		PrimaryKey: "visitor_id",
		Attributes: []string{"member_id", "member_name", "institution", "checkin_date"},
		Filterable: map[string]jsonapi.FilterField{
			"member":      {Name: "member", Column: "member_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"institution": {Name: "institution", Column: "institution", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
		},
		Sortable: map[string]string{
			"id":           "visitor_id",
			"checkin_date": "checkin_date",
		},
		DefaultSort: []jsonapi.SortField{{Name: "checkin_date", Column: "checkin_date", Descending: true}},
		Searchable: map[string]string{
			"member_name": "member_name",
			"institution": "institution",
		},
		Relationships: map[string]jsonapi.Relationship{
			"member": {Name: "member", Cardinality: jsonapi.ToOne, TargetType: "members", LocalKey: "member_id"},
		},
	}
}

// Contents describes CMS pages and news entries.
func Contents() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "contents",
		Table:      "content",
		PrimaryKey: "content_id",
		Attributes: []string{
			"content_title", "content_desc", "content_path", "is_news",
			"content_ownpage", "input_date", "last_update",
		},
		Filterable: map[string]jsonapi.FilterField{
			"content_path": {Name: "content_path", Column: "content_path", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"is_news":      {Name: "is_news", Column: "is_news", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"title":        {Name: "title", Column: "content_title", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
		},
		Sortable: map[string]string{
			"id":          "content_id",
			"title":       "content_title",
			"last_update": "last_update",
		},
		DefaultSort: []jsonapi.SortField{{Name: "id", Column: "content_id", Descending: true}},
		Searchable: map[string]string{
			"title":       "content_title",
			"description": "content_desc",
		},
	}
}

// Files describes uploaded attachments.
func Files() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "files",
		Table:      "files",
		PrimaryKey: "file_id",
		Attributes: []string{
			"file_title", "file_name", "file_url", "file_dir", "mime_type",
			"file_desc", "file_key", "uploader_id", "input_date", "last_update",
		},
		Filterable: map[string]jsonapi.FilterField{
			"file_title": {Name: "file_title", Column: "file_title", Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
			"mime_type":  {Name: "mime_type", Column: "mime_type", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeText},
			"uploader":   {Name: "uploader", Column: "uploader_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
		},
		Sortable: map[string]string{
			"id":          "file_id",
			"file_title":  "file_title",
			"last_update": "last_update",
		},
		DefaultSort: []jsonapi.SortField{{Name: "id", Column: "file_id", Descending: true}},
		Searchable: map[string]string{
			"file_title": "file_title",
			"file_name":  "file_name",
		},
	}
}

// Lookups returns the master-file descriptors. They share a shape: a
// primary key, a handful of attributes, and a name field that is both
// filterable and searchable.
func Lookups() []*jsonapi.ResourceDescriptor {
	return []*jsonapi.ResourceDescriptor{
		lookup("authors", "mst_author", "author_id", "author_name", "authority_type"),
		lookup("publishers", "mst_publisher", "publisher_id", "publisher_name"),
		lookup("gmd", "mst_gmd", "gmd_id", "gmd_name", "gmd_code"),
		lookup("languages", "mst_language", "language_id", "language_name"),
		lookup("places", "mst_place", "place_id", "place_name"),
		lookup("topics", "mst_topic", "topic_id", "topic", "topic_type"),
		lookup("item-statuses", "mst_item_status", "item_status_id", "item_status_name", "no_loan"),
		lookup("coll-types", "mst_coll_type", "coll_type_id", "coll_type_name"),
		lookup("member-types", "mst_member_type", "member_type_id", "member_type_name", "loan_limit", "loan_periode"),
		lookup("locations", "mst_location", "location_id", "location_name"),
		lookup("frequencies", "mst_frequency", "frequency_id", "frequency", "language_prefix"),
		lookup("suppliers", "mst_supplier", "supplier_id", "supplier_name"),
		lookup("content-types", "mst_content_type", "id", "content_type", "code"),
		lookup("media-types", "mst_media_type", "id", "media_type", "code"),
		lookup("carrier-types", "mst_carrier_type", "id", "carrier_type", "code"),
		lookup("relation-terms", "mst_relation_term", "rt_id", "rt_desc"),
		lookup("modules", "mst_module", "module_id", "module_name", "module_path", "module_desc"),
		loanRules(),
	}
}

// loanRules is the one master file without a display name: it maps a
// member type and collection type pair to its loan policy.
func loanRules() *jsonapi.ResourceDescriptor {
	return &jsonapi.ResourceDescriptor{
		Type:       "loan-rules",
		Table:      "mst_loan_rules",
		PrimaryKey: "loan_rules_id",
		Attributes: []string{"member_type_id", "coll_type_id", "loan_limit", "loan_periode"},
		Filterable: map[string]jsonapi.FilterField{
			"member_type": {Name: "member_type", Column: "member_type_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
			"coll_type":   {Name: "coll_type", Column: "coll_type_id", Operator: jsonapi.OperatorEquals, Type: jsonapi.ValueTypeInteger},
		},
		Sortable: map[string]string{
			"id": "loan_rules_id",
		},
		DefaultSort: []jsonapi.SortField{{Name: "id", Column: "loan_rules_id"}},
		Relationships: map[string]jsonapi.Relationship{
			"member_type": {Name: "member_type", Cardinality: jsonapi.ToOne, TargetType: "member-types", LocalKey: "member_type_id"},
			"coll_type":   {Name: "coll_type", Cardinality: jsonapi.ToOne, TargetType: "coll-types", LocalKey: "coll_type_id"},
		},
	}
}

// lookup builds a master-file descriptor. nameColumn is the display
// column; extra columns become plain attributes.
func lookup(resourceType, table, pk, nameColumn string, extra ...string) *jsonapi.ResourceDescriptor {
	attributes := append([]string{nameColumn}, extra...)
	return &jsonapi.ResourceDescriptor{
		Type:       resourceType,
		Table:      table,
		PrimaryKey: pk,
		Attributes: attributes,
		Filterable: map[string]jsonapi.FilterField{
			"name": {Name: "name", Column: nameColumn, Operator: jsonapi.OperatorLike, Type: jsonapi.ValueTypeText},
		},
		Sortable: map[string]string{
			"id":   pk,
			"name": nameColumn,
		},
		DefaultSort: []jsonapi.SortField{{Name: "name", Column: nameColumn}},
		Searchable: map[string]string{
			"name": nameColumn,
		},
	}
}
