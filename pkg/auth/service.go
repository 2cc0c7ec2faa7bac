package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pustaka/pkg/cache"
	"pustaka/pkg/common"
	"pustaka/pkg/jsonapi"
	"pustaka/pkg/logger"
	"pustaka/pkg/models"
)

// DefaultTokenTTL applies when the configuration carries no auth.token_ttl.
const DefaultTokenTTL = 24 * time.Hour

const tokenKeyPrefix = "auth:token:"

// Session is an authenticated principal. Sessions live in the cache under
// their token, so a restart of a cache-backed deployment keeps them and a
// memory-backed one drops them.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues and validates bearer tokens.
type Service struct {
	db       common.Database
	sessions *cache.Cache
	ttl      time.Duration
}

// NewService creates an auth service. ttl <= 0 falls back to
// DefaultTokenTTL.
func NewService(db common.Database, sessions *cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{db: db, sessions: sessions, ttl: ttl}
}

// Login verifies the credentials and issues a session token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	var users []models.User
	err := s.db.NewSelect().
		Table("user").
		Where("username = ?", username).
		Limit(1).
		Scan(ctx, &users)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, jsonapi.NewUnauthorizedError("Invalid username or password")
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Passwd), []byte(password)); err != nil {
		return nil, jsonapi.NewUnauthorizedError("Invalid username or password")
	}

	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      RoleFor(&user),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.Set(ctx, tokenKeyPrefix+session.Token, session, s.ttl); err != nil {
		return nil, err
	}

	logger.Info("User %s logged in as %s", session.Username, session.Role)
	return session, nil
}

// Validate resolves a bearer token to its session. Missing and expired
// tokens fail the same way.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, jsonapi.NewUnauthorizedError("Missing bearer token")
	}
	var session Session
	if err := s.sessions.Get(ctx, tokenKeyPrefix+token, &session); err != nil {
		return nil, jsonapi.NewUnauthorizedError("Invalid or expired token")
	}
	return &session, nil
}

// Logout revokes a token. Revoking an unknown token is a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, tokenKeyPrefix+token)
}

// HashPassword produces a bcrypt hash for storage in user.passwd.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
