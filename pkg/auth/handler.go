package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/logger"
)

// Handler serves login and logout.
type Handler struct {
	service *Service
}

// NewHandler creates the auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginAttributes struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionDocument struct {
	Data sessionResource `json:"data"`
}

type sessionResource struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Attributes sessionAttributes `json:"attributes"`
}

type sessionAttributes struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

// HandleLogin serves POST /auth/login. The session token doubles as the
// resource id.
func (h *Handler) HandleLogin(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err := logger.HandlePanic("HandleLogin", rcv)
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
			Attributes loginAttributes `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("invalid_body", "Request body is not valid JSON", ""))
		return
	}
	creds := envelope.Data.Attributes
	if creds.Username == "" || creds.Password == "" {
		jsonapi.WriteError(w, jsonapi.NewBodyValidationError("missing_credentials",
			"username and password are required", "/data/attributes"))
		return
	}

	session, serr := h.service.Login(r.UnderlyingRequest().Context(), creds.Username, creds.Password)
	if serr != nil {
		jsonapi.WriteError(w, serr)
		return
	}

	doc := sessionDocument{
		Data: sessionResource{
			Type: "sessions",
			ID:   session.Token,
			Attributes: sessionAttributes{
				Username:  session.Username,
				Role:      string(session.Role),
				ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
			},
		},
	}
	w.SetHeader("Content-Type", jsonapi.ContentType)
	w.WriteHeader(http.StatusCreated)
	payload, merr := json.Marshal(doc)
	if merr != nil {
		logger.Warn("Failed to marshal session: %v", merr)
		return
	}
	if _, werr := w.Write(payload); werr != nil {
		logger.Warn("Failed to write response: %v", werr)
	}
}

// HandleLogout serves POST /auth/logout, revoking the presented token.
func (h *Handler) HandleLogout(w common.ResponseWriter, r common.Request) {
	defer func() {
		if rcv := recover(); rcv != nil {
			err := logger.HandlePanic("HandleLogout", rcv)
			jsonapi.WriteError(w, jsonapi.NewInternalError(err))
		}
	}()

	token := BearerToken(r)
	if token == "" {
		jsonapi.WriteError(w, jsonapi.NewUnauthorizedError("Missing bearer token"))
		return
	}
	if err := h.service.Logout(r.UnderlyingRequest().Context(), token); err != nil {
		jsonapi.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes binds the auth endpoints. They are the only routes not
// wrapped by the auth middleware.
func RegisterRoutes(router common.Router, h *Handler) {
	router.HandleFunc("/auth/login", h.HandleLogin).Methods("POST")
	router.HandleFunc("/auth/logout", h.HandleLogout).Methods("POST")
}
