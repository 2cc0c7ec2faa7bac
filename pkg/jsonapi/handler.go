package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"pustaka/pkg/common"
	"pustaka/pkg/logger"
)

// Handler serves the generic resource endpoints for every registered
// resource type. It is stateless; the descriptor registry and the pooled
// database handle are the only shared state.
type Handler struct {
	db       common.Database
	registry *Registry
}

// NewHandler creates a handler over a database adapter and a descriptor
// registry.
func NewHandler(db common.Database, registry *Registry) *Handler {
	return &Handler{db: db, registry: registry}
}

// Registry returns the descriptor registry backing this handler.
func (h *Handler) Registry() *Registry {
	return h.registry
}

func (h *Handler) handlePanic(w common.ResponseWriter, method string, rcv interface{}) {
	err := logger.HandlePanic(method, rcv)
	WriteError(w, NewInternalError(err))
}

func (h *Handler) descriptor(w common.ResponseWriter, r common.Request) (*ResourceDescriptor, bool) {
	resourceType := r.PathParam("resource")
	desc, ok := h.registry.Lookup(resourceType)
	if !ok {
		WriteError(w, &Error{
			Status: http.StatusNotFound,
			Code:   "unknown_resource_type",
			Title:  "Not Found",
			Detail: fmt.Sprintf("Unknown resource type %q", resourceType),
		})
		return nil, false
	}
	return desc, true
}

func requestContext(r common.Request) context.Context {
	if req := r.UnderlyingRequest(); req != nil {
		return req.Context()
	}
	return context.Background()
}

// HandleList serves GET /{resource}: filter, sort, paginate, side-load and
// project per query parameters.
func (h *Handler) HandleList(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleList", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	req, err := ParseQuery(r.AllQueryParams(), desc, h.registry)
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := requestContext(r)
	buildBase := func() (common.SelectQuery, error) {
		return ApplyFilters(h.db.NewSelect().Table(desc.Table), req.Filters, desc)
	}

	page, err := FetchPage(ctx, buildBase, ResolveSort(req.Sort, desc), req.Page)
	if err != nil {
		WriteError(w, err)
		return
	}

	includes, err := ResolveIncludes(ctx, h.db, desc, h.registry, page.Rows, req.Include)
	if err != nil {
		WriteError(w, err)
		return
	}

	doc := BuildCollectionDocument(desc, h.registry, page, includes, req, r.URL())
	if err := WriteDocument(w, http.StatusOK, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// HandleGet serves GET /{resource}/{id} with include and fields support.
func (h *Handler) HandleGet(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleGet", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}
	id := r.PathParam("id")

	req, err := ParseQuery(r.AllQueryParams(), desc, h.registry)
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := requestContext(r)
	row, err := h.fetchByID(ctx, desc, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	includes, err := ResolveIncludes(ctx, h.db, desc, h.registry, []Row{row}, req.Include)
	if err != nil {
		WriteError(w, err)
		return
	}

	doc := BuildResourceDocument(desc, h.registry, row, includes, req, r.URL())
	if err := WriteDocument(w, http.StatusOK, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// HandleSearch serves POST /{resource}/search: the structured clause-list
// search sharing the pagination, include and projection path with
// HandleList.
func (h *Handler) HandleSearch(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleSearch", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	body, err := r.Body()
	if err != nil {
		WriteError(w, NewBodyValidationError("invalid_body", "Failed to read request body", ""))
		return
	}

	search, req, err := ParseSearchRequest(body, desc, h.registry)
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := requestContext(r)
	buildBase := func() (common.SelectQuery, error) {
		return ApplySearch(h.db.NewSelect().Table(desc.Table), search.Clauses, desc)
	}

	page, err := FetchPage(ctx, buildBase, ResolveSort(req.Sort, desc), req.Page)
	if err != nil {
		WriteError(w, err)
		return
	}

	includes, err := ResolveIncludes(ctx, h.db, desc, h.registry, page.Rows, req.Include)
	if err != nil {
		WriteError(w, err)
		return
	}

	doc := BuildCollectionDocument(desc, h.registry, page, includes, req, r.URL())
	if err := WriteDocument(w, http.StatusOK, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// HandleCreate serves POST /{resource} with a JSON:API body
// {"data": {"type": ..., "attributes": {...}}}.
func (h *Handler) HandleCreate(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleCreate", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}

	attrs, err := h.parseWriteBody(r, desc)
	if err != nil {
		WriteError(w, err)
		return
	}
	if len(attrs) == 0 {
		WriteError(w, NewBodyValidationError("missing_attributes", "data.attributes is required", "/data/attributes"))
		return
	}

	ctx := requestContext(r)
	insert := h.db.NewInsert().Model(&attrs).Table(desc.Table)
	if h.db.DriverName() == "postgres" {
		// RETURNING populates the map with generated keys.
		insert = insert.Returning(desc.PrimaryKey)
	}
	result, err := insert.Exec(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}

	id := formatID(attrs[desc.PrimaryKey])
	if id == "" {
		if lastID, lerr := result.LastInsertId(); lerr == nil && lastID != 0 {
			id = formatID(lastID)
		}
	}

	row, err := h.fetchByID(ctx, desc, id)
	if err != nil {
		// The insert succeeded; fall back to echoing the input.
		row = attrs
		row[desc.PrimaryKey] = id
	}

	req := &QueryRequest{Fields: make(map[string][]string)}
	doc := BuildResourceDocument(desc, h.registry, row, nil, req, r.URL())
	if err := WriteDocument(w, http.StatusCreated, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// HandleUpdate serves PATCH /{resource}/{id}.
func (h *Handler) HandleUpdate(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleUpdate", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}
	id := r.PathParam("id")

	attrs, err := h.parseWriteBody(r, desc)
	if err != nil {
		WriteError(w, err)
		return
	}
	if len(attrs) == 0 {
		WriteError(w, NewBodyValidationError("missing_attributes", "data.attributes is required", "/data/attributes"))
		return
	}

	ctx := requestContext(r)
	result, err := h.db.NewUpdate().
		Table(desc.Table).
		SetMap(attrs).
		Where(fmt.Sprintf("%s = ?", desc.PrimaryKey), id).
		Exec(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}
	if result.RowsAffected() == 0 {
		WriteError(w, NewNotFoundError(desc.Type, id))
		return
	}

	row, err := h.fetchByID(ctx, desc, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	req := &QueryRequest{Fields: make(map[string][]string)}
	doc := BuildResourceDocument(desc, h.registry, row, nil, req, r.URL())
	if err := WriteDocument(w, http.StatusOK, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// HandleDelete serves DELETE /{resource}/{id}.
func (h *Handler) HandleDelete(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleDelete", rcv)
		}
	}()

	desc, ok := h.descriptor(w, r)
	if !ok {
		return
	}
	id := r.PathParam("id")

	ctx := requestContext(r)
	result, err := h.db.NewDelete().
		Table(desc.Table).
		Where(fmt.Sprintf("%s = ?", desc.PrimaryKey), id).
		Exec(ctx)
	if err != nil {
		WriteError(w, err)
		return
	}
	if result.RowsAffected() == 0 {
		WriteError(w, NewNotFoundError(desc.Type, id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// fetchByID loads a single row or reports NotFound.
func (h *Handler) fetchByID(ctx context.Context, desc *ResourceDescriptor, id string) (Row, error) {
	rows := make([]Row, 0, 1)
	err := h.db.NewSelect().
		Table(desc.Table).
		Where(fmt.Sprintf("%s = ?", desc.PrimaryKey), id).
		Limit(1).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError(desc.Type, id)
	}
	return rows[0], nil
}

// writeBody is the JSON:API write envelope.
type writeBody struct {
	Data struct {
		Type       string                 `json:"type"`
		Attributes map[string]interface{} `json:"attributes"`
	} `json:"data"`
}

// parseWriteBody decodes a create/update body and validates its type and
// attribute names against the descriptor.
func (h *Handler) parseWriteBody(r common.Request, desc *ResourceDescriptor) (Row, error) {
	body, err := r.Body()
	if err != nil {
		return nil, NewBodyValidationError("invalid_body", "Failed to read request body", "")
	}

	var envelope writeBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewBodyValidationError("invalid_body", "Request body is not valid JSON", "")
	}

	if envelope.Data.Type != "" && envelope.Data.Type != desc.Type {
		return nil, NewBodyValidationError("type_mismatch",
			fmt.Sprintf("Body declares type %q but the endpoint serves %q", envelope.Data.Type, desc.Type),
			"/data/type")
	}

	attrs := make(Row, len(envelope.Data.Attributes))
	for name, value := range envelope.Data.Attributes {
		if !desc.HasAttribute(name) {
			return nil, NewBodyValidationError("unknown_attribute",
				fmt.Sprintf("Attribute %q is not declared on %s", name, desc.Type),
				"/data/attributes/"+name)
		}
		attrs[name] = value
	}
	return attrs, nil
}

// RegisterRoutes binds the generic resource endpoints onto a mux-style
// router ({name} path parameters). The search route registers before the
// id route so /search never resolves as an id.
func RegisterRoutes(router common.Router, h *Handler) {
	router.HandleFunc("/{resource}", h.HandleList).Methods("GET")
	router.HandleFunc("/{resource}", h.HandleCreate).Methods("POST")
	router.HandleFunc("/{resource}/search", h.HandleSearch).Methods("POST")
	router.HandleFunc("/{resource}/{id}", h.HandleGet).Methods("GET")
	router.HandleFunc("/{resource}/{id}", h.HandleUpdate).Methods("PATCH")
	router.HandleFunc("/{resource}/{id}", h.HandleDelete).Methods("DELETE")
}

// RegisterBunRouterRoutes binds the same endpoints using bunrouter's
// :name path parameter syntax.
func RegisterBunRouterRoutes(router common.Router, h *Handler) {
	router.HandleFunc("/:resource", h.HandleList).Methods("GET")
	router.HandleFunc("/:resource", h.HandleCreate).Methods("POST")
	router.HandleFunc("/:resource/search", h.HandleSearch).Methods("POST")
	router.HandleFunc("/:resource/:id", h.HandleGet).Methods("GET")
	router.HandleFunc("/:resource/:id", h.HandleUpdate).Methods("PATCH")
	router.HandleFunc("/:resource/:id", h.HandleDelete).Methods("DELETE")
}
