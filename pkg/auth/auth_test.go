package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"pustaka/pkg/cache"
	"pustaka/pkg/common"
	"pustaka/pkg/common/adapters/database"
	adapterrouter "pustaka/pkg/common/adapters/router"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/models"
)

func setupAuthService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE user (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		realname TEXT,
		passwd TEXT NOT NULL,
		groups TEXT,
		user_type INTEGER
	)`)
	require.NoError(t, err)

	adminHash, err := HashPassword("admin-secret", 4)
	require.NoError(t, err)
	staffHash, err := HashPassword("staff-secret", 4)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO user (username, passwd, groups, user_type) VALUES
		('boss', ?, '["1"]', NULL),
		('desk', ?, '["3"]', NULL)`, adminHash, staffHash)
	require.NoError(t, err)

	sessions := cache.NewCache(cache.NewMemoryProvider(nil))
	t.Cleanup(func() { sessions.Close() })

	return NewService(database.NewBunAdapter(db), sessions, ttl)
}

func TestLoginIssuesToken(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()

	session, err := svc.Login(ctx, "boss", "admin-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, RoleAdmin, session.Role)

	resolved, err := svc.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "boss", resolved.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "boss", "nope"},
		{"unknown user", "ghost", "admin-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.username, tt.password)
			var apiErr *jsonapi.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		})
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := setupAuthService(t, 10*time.Millisecond)
	ctx := context.Background()

	session, err := svc.Login(ctx, "boss", "admin-secret")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = svc.Validate(ctx, session.Token)
	var apiErr *jsonapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := setupAuthService(t, time.Hour)
	ctx := context.Background()

	session, err := svc.Login(ctx, "boss", "admin-secret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Validate(ctx, session.Token)
	var apiErr *jsonapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestRoleFor(t *testing.T) {
	one := 1
	two := 2
	adminGroups := `["1","4"]`
	librarianGroups := `["2"]`
	otherGroups := `["12"]`

	tests := []struct {
		name string
		user models.User
		want Role
	}{
		{"user_type 1 is admin", models.User{UserType: &one}, RoleAdmin},
		{"admin group", models.User{Groups: &adminGroups}, RoleAdmin},
		{"librarian group", models.User{Groups: &librarianGroups}, RoleLibrarian},
		{"group 12 is not admin or librarian", models.User{Groups: &otherGroups}, RoleStaff},
		{"no groups", models.User{UserType: &two}, RoleStaff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleFor(&tt.user); got != tt.want {
				t.Errorf("RoleFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleGrants(t *testing.T) {
	tests := []struct {
		role   Role
		module Module
		perm   Permission
		want   bool
	}{
		{RoleAdmin, ModuleSystem, PermissionWrite, true},
		{RoleLibrarian, ModuleSystem, PermissionWrite, false},
		{RoleLibrarian, ModuleSystem, PermissionRead, true},
		{RoleLibrarian, ModuleBibliography, PermissionWrite, true},
		{RoleStaff, ModuleCirculation, PermissionWrite, true},
		{RoleStaff, ModuleBibliography, PermissionWrite, false},
		{RoleMember, ModuleBibliography, PermissionRead, true},
		{RoleMember, ModuleBibliography, PermissionWrite, false},
		{RoleMember, ModuleMembership, PermissionRead, false},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s %s %s", tt.role, tt.perm, tt.module)
		t.Run(name, func(t *testing.T) {
			if got := tt.role.Can(tt.module, tt.perm); got != tt.want {
				t.Errorf("Can() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModuleForResource(t *testing.T) {
	tests := []struct {
		resource string
		want     Module
	}{
		{"biblios", ModuleBibliography},
		{"loans", ModuleCirculation},
		{"members", ModuleMembership},
		{"settings", ModuleSystem},
		{"publishers", ModuleMasterFile},
		{"gmd", ModuleMasterFile},
	}
	for _, tt := range tests {
		if got := ModuleForResource(tt.resource); got != tt.want {
			t.Errorf("ModuleForResource(%q) = %v, want %v", tt.resource, got, tt.want)
		}
	}
}

func setupProtectedServer(t *testing.T) (*mux.Router, *Service) {
	t.Helper()

	svc := setupAuthService(t, time.Hour)
	middleware := NewMiddleware(svc)

	echo := func(w common.ResponseWriter, r common.Request) {
		w.WriteHeader(http.StatusOK)
	}

	muxRouter := mux.NewRouter()
	router := adapterrouter.NewMuxAdapter(muxRouter)
	RegisterRoutes(router, NewHandler(svc))
	router.HandleFunc("/{resource}", middleware.Protect(echo)).Methods("GET", "POST")
	return muxRouter, svc
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	router, _ := setupProtectedServer(t)

	req := httptest.NewRequest(http.MethodGet, "/biblios", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMiddlewareEnforcesGrants(t *testing.T) {
	router, svc := setupProtectedServer(t)
	ctx := context.Background()

	staff, err := svc.Login(ctx, "desk", "staff-secret")
	require.NoError(t, err)

	t.Run("staff may read bibliography", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/biblios", nil)
		req.Header.Set("Authorization", "Bearer "+staff.Token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("staff may not write bibliography", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/biblios", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+staff.Token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
		var doc jsonapi.ErrorDocument
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &doc))
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "forbidden", doc.Errors[0].Code)
	})

	t.Run("staff may write circulation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+staff.Token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := setupProtectedServer(t)

	body := `{"data":{"type":"sessions","attributes":{"username":"boss","password":"admin-secret"}}}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)
	var doc sessionDocument
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &doc))
	assert.Equal(t, "sessions", doc.Data.Type)
	assert.NotEmpty(t, doc.Data.ID)
	assert.Equal(t, "admin", doc.Data.Attributes.Role)
}

func TestLoginEndpointBadPassword(t *testing.T) {
	router, _ := setupProtectedServer(t)

	body := `{"data":{"type":"sessions","attributes":{"username":"boss","password":"nope"}}}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
