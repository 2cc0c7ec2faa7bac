package auth

import (
	"strings"

	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
)

// Middleware guards routes with token validation and the role grant
// matrix.
type Middleware struct {
	service *Service
}

// NewMiddleware creates the auth middleware over a token service.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Protect wraps a handler with authentication and module authorization.
// The guarded module comes from the {resource} path parameter, falling
// back to the first request path segment for the specialized routes.
// GET requests need read access, everything else write access.
func (m *Middleware) Protect(next common.HTTPHandlerFunc) common.HTTPHandlerFunc {
	return func(w common.ResponseWriter, r common.Request) {
		session, err := m.authenticate(r)
		if err != nil {
			jsonapi.WriteError(w, err)
			return
		}

		module := ModuleForResource(resourceOf(r))
		perm := PermissionWrite
		if r.Method() == "GET" || r.Method() == "HEAD" {
			perm = PermissionRead
		}

		if !session.Role.Can(module, perm) {
			jsonapi.WriteError(w, jsonapi.NewForbiddenError(
				"Role "+string(session.Role)+" may not "+string(perm)+" "+string(module)))
			return
		}

		next(w, r)
	}
}

func (m *Middleware) authenticate(r common.Request) (*Session, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, jsonapi.NewUnauthorizedError("Missing bearer token")
	}
	ctx := r.UnderlyingRequest().Context()
	return m.service.Validate(ctx, token)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r common.Request) string {
	header := r.Header("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// resourceOf names the resource a request targets.
func resourceOf(r common.Request) string {
	if resource := r.PathParam("resource"); resource != "" {
		return resource
	}
	path := strings.TrimPrefix(r.URL(), "/")
	if idx := strings.IndexAny(path, "/?"); idx >= 0 {
		path = path[:idx]
	}
	return path
}
