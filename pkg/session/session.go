package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeluilo/hms-sub001/pkg/config"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// Session is the explicit per-user session object handed to each view.
// It is created at login and invalidated at logout or expiry; nothing
// reads authentication state from ambient storage.
type Session struct {
	User      types.User `json:"user"`
	Token     string     `json:"token"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Claims represents the JWT claims carried in a session token
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues, validates and revokes session tokens
type Manager struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string

	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewManager creates a session manager from JWT configuration
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{
		secret:   []byte(cfg.SecretKey),
		ttl:      time.Duration(cfg.AccessTokenTTL) * time.Second,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		revoked:  make(map[string]time.Time),
	}
}

// Issue creates a new session for an authenticated user
func (m *Manager) Issue(user types.User) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		User:      user,
		Token:     signed,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate parses and validates a session token, returning the session it
// represents. Revoked and expired tokens fail validation.
func (m *Manager) Validate(tokenString string) (*Session, error) {
	m.mu.RLock()
	_, isRevoked := m.revoked[tokenString]
	m.mu.RUnlock()
	if isRevoked {
		return nil, types.NewAuthenticationError(types.ErrCodeSessionExpired, "session has been invalidated")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, fmt.Sprintf("failed to parse token: %v", err))
	}

	if !token.Valid {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid token claims")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, types.NewAuthenticationError(types.ErrCodeSessionExpired, "token expired")
	}

	return &Session{
		User: types.User{
			ID:        claims.UserID,
			Username:  claims.Username,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Role:      types.UserRole(claims.Role),
		},
		Token:     tokenString,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Invalidate revokes a session token at logout. Revoked entries are kept
// until their natural expiry so the set cannot grow without bound.
func (m *Manager) Invalidate(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revoked[s.Token] = s.ExpiresAt

	now := time.Now()
	for token, expiry := range m.revoked {
		if expiry.Before(now) {
			delete(m.revoked, token)
		}
	}
}
