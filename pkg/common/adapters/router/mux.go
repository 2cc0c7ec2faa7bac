package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"pustaka/pkg/common"
)

// MuxAdapter exposes a gorilla/mux router through the common.Router
// interface. The server registers its resource routes against it while the
// underlying mux router keeps serving plain handlers like /healthz.
type MuxAdapter struct {
	router *mux.Router
}

func NewMuxAdapter(router *mux.Router) *MuxAdapter {
	return &MuxAdapter{router: router}
}

func (m *MuxAdapter) HandleFunc(pattern string, handler common.HTTPHandlerFunc) common.RouteRegistration {
	return &muxRoute{router: m.router, pattern: pattern, handler: handler}
}

// ServeHTTP satisfies common.Router. The server mounts the mux router
// directly, so nothing dispatches through this path.
func (m *MuxAdapter) ServeHTTP(w common.ResponseWriter, r common.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// muxRoute defers registration until Methods or PathPrefix pins down the
// route, matching how mux chains route configuration.
type muxRoute struct {
	router  *mux.Router
	pattern string
	handler common.HTTPHandlerFunc
	route   *mux.Route
}

func (m *muxRoute) register() *mux.Route {
	if m.route == nil {
		m.route = m.router.HandleFunc(m.pattern, func(w http.ResponseWriter, r *http.Request) {
			m.handler(
				&HTTPResponseWriter{resp: w},
				&HTTPRequest{req: r, vars: mux.Vars(r)},
			)
		})
	}
	return m.route
}

func (m *muxRoute) Methods(methods ...string) common.RouteRegistration {
	m.register().Methods(methods...)
	return m
}

func (m *muxRoute) PathPrefix(prefix string) common.RouteRegistration {
	m.register().PathPrefix(prefix)
	return m
}

// HTTPRequest wraps *http.Request as a common.Request. The body is read
// once and memoized so handlers and middleware can both ask for it.
type HTTPRequest struct {
	req  *http.Request
	vars map[string]string
	body []byte
}

func NewHTTPRequest(r *http.Request) *HTTPRequest {
	return &HTTPRequest{req: r, vars: make(map[string]string)}
}

func (h *HTTPRequest) Method() string {
	return h.req.Method
}

func (h *HTTPRequest) URL() string {
	return h.req.URL.String()
}

func (h *HTTPRequest) Header(key string) string {
	return h.req.Header.Get(key)
}

func (h *HTTPRequest) Body() ([]byte, error) {
	if h.body != nil {
		return h.body, nil
	}
	if h.req.Body == nil {
		return nil, nil
	}
	defer h.req.Body.Close()
	body, err := io.ReadAll(h.req.Body)
	if err != nil {
		return nil, err
	}
	h.body = body
	return body, nil
}

func (h *HTTPRequest) PathParam(key string) string {
	return h.vars[key]
}

func (h *HTTPRequest) QueryParam(key string) string {
	return h.req.URL.Query().Get(key)
}

func (h *HTTPRequest) AllQueryParams() map[string]string {
	params := make(map[string]string)
	for key, values := range h.req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func (h *HTTPRequest) AllHeaders() map[string]string {
	headers := make(map[string]string)
	for key, values := range h.req.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}

func (h *HTTPRequest) UnderlyingRequest() *http.Request {
	return h.req
}

// HTTPResponseWriter wraps http.ResponseWriter as a common.ResponseWriter.
type HTTPResponseWriter struct {
	resp   http.ResponseWriter
	status int
}

func NewHTTPResponseWriter(w http.ResponseWriter) *HTTPResponseWriter {
	return &HTTPResponseWriter{resp: w}
}

func (h *HTTPResponseWriter) SetHeader(key, value string) {
	h.resp.Header().Set(key, value)
}

func (h *HTTPResponseWriter) WriteHeader(statusCode int) {
	h.status = statusCode
	h.resp.WriteHeader(statusCode)
}

func (h *HTTPResponseWriter) Write(data []byte) (int, error) {
	return h.resp.Write(data)
}

func (h *HTTPResponseWriter) WriteJSON(data interface{}) error {
	h.SetHeader("Content-Type", "application/json")
	return json.NewEncoder(h.resp).Encode(data)
}

func (h *HTTPResponseWriter) UnderlyingResponseWriter() http.ResponseWriter {
	return h.resp
}
