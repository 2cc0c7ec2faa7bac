package settings

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/logger"
)

// Handler serves the settings endpoints. The setting name doubles as the
// resource id; a dotted id addresses a nested value.
type Handler struct {
	service *Service
}

// NewHandler creates the settings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type settingAttributes struct {
	RawValue    *string     `json:"raw_value"`
	ParsedValue interface{} `json:"parsed_value"`
}

type settingResource struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes settingAttributes `json:"attributes"`
}

type settingListDocument struct {
	Data []settingResource `json:"data"`
	Meta jsonapi.Meta      `json:"meta"`
}

type settingDocument struct {
	Data settingResource `json:"data"`
}

func toResource(value *Value) settingResource {
	return settingResource{
		Type: "settings",
		ID:   value.Name,
		Attributes: settingAttributes{
			RawValue:    value.Raw,
			ParsedValue: value.Decoded,
		},
	}
}

// parsePage applies the shared pagination rules: page[number] defaults to
// 1 and must be positive, page[size] defaults to 20 and clamps to 100.
func parsePage(r common.Request) (jsonapi.Page, error) {
	page := jsonapi.Page{Number: jsonapi.DefaultPage, Size: jsonapi.DefaultPerPage}

	if raw := r.QueryParam("page[number]"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, jsonapi.NewValidationError("malformed_pagination",
				"page[number] must be a positive integer", "page[number]")
		}
		page.Number = n
	}
	if raw := r.QueryParam("page[size]"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, jsonapi.NewValidationError("malformed_pagination",
				"page[size] must be an integer", "page[size]")
		}
		switch {
		case n < 1:
			page.Size = 1
		case n > jsonapi.MaxPerPage:
			page.Size = jsonapi.MaxPerPage
		default:
			page.Size = n
		}
	}
	return page, nil
}

// HandleList serves GET /settings.
func (h *Handler) HandleList(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err := logger.HandlePanic("HandleList", rcv)
			jsonapi.WriteError(w, jsonapi.NewInternalError(err))
		}
	}()

	page, err := parsePage(r)
	if err != nil {
		jsonapi.WriteError(w, err)
		return
	}

	values, total, serr := h.service.List(r.UnderlyingRequest().Context(), page)
	if serr != nil {
		jsonapi.WriteError(w, serr)
		return
	}

	doc := settingListDocument{
		Data: make([]settingResource, len(values)),
		Meta: jsonapi.Meta{Page: page.Number, PerPage: page.Size, Total: total},
	}
	for i, value := range values {
		doc.Data[i] = toResource(value)
	}
	writeDocument(w, http.StatusOK, doc)
}

// HandleGet serves GET /settings/{name}. A dotted name walks into the
// decoded value.
func (h *Handler) HandleGet(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err := logger.HandlePanic("HandleGet", rcv)
			jsonapi.WriteError(w, jsonapi.NewInternalError(err))
		}
	}()

	value, err := h.service.GetPath(r.UnderlyingRequest().Context(), r.PathParam("name"))
	if err != nil {
		jsonapi.WriteError(w, err)
		return
	}
	writeDocument(w, http.StatusOK, settingDocument{Data: toResource(value)})
}

// HandleUpdate serves PATCH /settings/{name} with a body of
// {"data":{"attributes":{"value": <json>}}}. A dotted name patches one
// nested path and preserves the rest of the setting.
func (h *Handler) HandleUpdate(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err := logger.HandlePanic("HandleUpdate", rcv)
			jsonapi.WriteError(w, jsonapi.NewInternalError(err))
		}
	}()

	body, err := r.Body()
	if err != nil {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("invalid_body", "Failed to read request body", ""))
		return
	}

	var envelope struct {
		Data struct {
			Attributes struct {
				Value json.RawMessage `json:"value"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("invalid_body", "Request body is not valid JSON", ""))
		return
	}
	if len(envelope.Data.Attributes.Value) == 0 {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("missing_value",
			"data.attributes.value is required", "/data/attributes/value"))
		return
	}

	var value interface{}
	if err := json.Unmarshal(envelope.Data.Attributes.Value, &value); err != nil {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("invalid_value",
			"data.attributes.value is not valid JSON", "/data/attributes/value"))
		return
	}

	updated, serr := h.service.SetPath(r.UnderlyingRequest().Context(), r.PathParam("name"), value)
	if serr != nil {
		jsonapi.WriteError(w, serr)
		return
	}
	writeDocument(w, http.StatusOK, settingDocument{Data: toResource(updated)})
}

func writeDocument(w common.ResponseWriter, status int, doc interface{}) {
	payload, err := json.Marshal(doc)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.NewInternalError(err))
		return
	}
	w.SetHeader("Content-Type", jsonapi.ContentType)
	w.WriteHeader(status)
	if _, werr := w.Write(payload); werr != nil {
		logger.Warn("Failed to write response: %v", werr)
	}
}

// RegisterRoutes binds the settings endpoints onto a mux-style router.
func RegisterRoutes(router common.Router, h *Handler) {
	router.HandleFunc("/settings", h.HandleList).Methods("GET")
	router.HandleFunc("/settings/{name}", h.HandleGet).Methods("GET")
	router.HandleFunc("/settings/{name}", h.HandleUpdate).Methods("PATCH", "PUT")
}
