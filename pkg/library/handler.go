package library

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/logger"
	"pustaka/pkg/models"
)

// Handler serves the circulation endpoints that go beyond generic CRUD:
// loan checkout, loan return and visitor check-in.
type Handler struct {
	loans    *LoanService
	visitors *VisitorService
	registry *jsonapi.Registry
}

// NewHandler creates the circulation handler.
func NewHandler(loans *LoanService, visitors *VisitorService, registry *jsonapi.Registry) *Handler {
	return &Handler{loans: loans, visitors: visitors, registry: registry}
}

func (h *Handler) handlePanic(w common.ResponseWriter, method string, rcv interface{}) {
	err := logger.HandlePanic(method, rcv)
	jsonapi.WriteError(w, jsonapi.NewInternalError(err))
}

// writeEnvelope is the JSON:API body of the circulation POSTs.
type writeEnvelope struct {
	Data struct {
		Type       string          `json:"type"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

func decodeAttributes(r common.Request, dest interface{}) error {
	body, err := r.Body()
	if err != nil {
		return jsonapi.NewBodyValidationError("invalid_body", "Failed to read request body", "")
	}
	var envelope writeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return jsonapi.NewBodyValidationError("invalid_body", "Request body is not valid JSON", "")
	}
	if len(envelope.Data.Attributes) == 0 {
		return jsonapi.NewBodyValidationError("missing_attributes", "data.attributes is required", "/data/attributes")
	}
	if err := json.Unmarshal(envelope.Data.Attributes, dest); err != nil {
		return jsonapi.NewBodyValidationError("invalid_body", "data.attributes has the wrong shape", "/data/attributes")
	}
	return nil
}

// HandleCheckout serves POST /loans.
func (h *Handler) HandleCheckout(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleCheckout", rcv)
		}
	}()

	var req CheckoutRequest
	if err := decodeAttributes(r, &req); err != nil {
		jsonapi.WriteError(w, err)
		return
	}

	ctx := r.UnderlyingRequest().Context()
	loan, err := h.loans.Checkout(ctx, req)
	if err != nil {
		jsonapi.WriteError(w, err)
		return
	}

	h.writeLoan(w, r, http.StatusCreated, loanRow(loan))
}

// HandleReturn serves POST /loans/{id}/return.
func (h *Handler) HandleReturn(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleReturn", rcv)
		}
	}()

	loanID, err := strconv.ParseInt(r.PathParam("id"), 10, 64)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.NewValidationError("malformed_id", "Loan id must be an integer", ""))
		return
	}

	ctx := r.UnderlyingRequest().Context()
	loan, serr := h.loans.Return(ctx, loanID)
	if serr != nil {
		jsonapi.WriteError(w, serr)
		return
	}

	h.writeLoan(w, r, http.StatusOK, loanRow(loan))
}

// HandleCheckIn serves POST /visitors.
func (h *Handler) HandleCheckIn(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			h.handlePanic(w, "HandleCheckIn", rcv)
		}
	}()

	var req CheckInRequest
	if err := decodeAttributes(r, &req); err != nil {
		jsonapi.WriteError(w, err)
		return
	}

	ctx := r.UnderlyingRequest().Context()
	visitor, err := h.visitors.CheckIn(ctx, req)
	if err != nil {
		jsonapi.WriteError(w, err)
		return
	}

	desc, ok := h.registry.Lookup("visitors")
	if !ok {
		jsonapi.WriteError(w, jsonapi.NewInternalError(nil))
		return
	}
	row := jsonapi.Row{
		"visitor_id":   visitor.VisitorID,
		"member_id":    visitor.MemberID,
		"member_name":  visitor.MemberName,
		"institution":  visitor.Institution,
		"checkin_date": visitor.CheckinDate.Format("2006-01-02 15:04:05"),
	}
	h.writeResource(w, r, http.StatusCreated, desc, row)
}

func (h *Handler) writeLoan(w common.ResponseWriter, r common.Request, status int, row jsonapi.Row) {
	desc, ok := h.registry.Lookup("loans")
	if !ok {
		jsonapi.WriteError(w, jsonapi.NewInternalError(nil))
		return
	}
	h.writeResource(w, r, status, desc, row)
}

func (h *Handler) writeResource(w common.ResponseWriter, r common.Request, status int, desc *jsonapi.ResourceDescriptor, row jsonapi.Row) {
	req := &jsonapi.QueryRequest{Fields: make(map[string][]string)}
	doc := jsonapi.BuildResourceDocument(desc, h.registry, row, nil, req, r.URL())
	if err := jsonapi.WriteDocument(w, status, doc); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// loanRow flattens a loan into the raw-row shape the document builder
// consumes. Keys match the loans descriptor columns.
func loanRow(loan *models.Loan) jsonapi.Row {
	return jsonapi.Row{
		"loan_id":     loan.LoanID,
		"item_code":   loan.ItemCode,
		"member_id":   loan.MemberID,
		"loan_date":   loan.LoanDate,
		"due_date":    loan.DueDate,
		"renewed":     loan.Renewed,
		"is_lent":     loan.IsLent,
		"is_return":   loan.IsReturn,
		"actual":      loan.ActualDate,
		"return_date": loan.ReturnDate,
	}
}

// RegisterRoutes binds the circulation endpoints onto a mux-style router.
// They register before the generic resource routes so the specialized
// handlers win the match.
func RegisterRoutes(router common.Router, h *Handler) {
	router.HandleFunc("/loans", h.HandleCheckout).Methods("POST")
	router.HandleFunc("/loans/{id}/return", h.HandleReturn).Methods("POST")
	router.HandleFunc("/visitors", h.HandleCheckIn).Methods("POST")
}
