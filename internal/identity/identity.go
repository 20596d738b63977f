// FilePath: internal/identity/identity.go
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/golang-jwt/jwt/v5"
	"github.com/strct-org/beeportal/internal/config"
	nuts "github.com/vaudience/go-nuts"
)

// TokenSource supplies a bearer token for outbound API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SessionTokens carries the signed-in user's own bearer token, refreshed on
// every authenticated request. Outbound account calls act as the user, not
// as the service.
type SessionTokens struct {
	mu    sync.RWMutex
	token string
}

func NewSessionTokens() *SessionTokens {
	return &SessionTokens{}
}

// Update stores the latest bearer token seen for this session.
func (s *SessionTokens) Update(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *SessionTokens) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", fmt.Errorf("no session token available")
	}
	return s.token, nil
}

// ServiceAccount obtains tokens for the portal's own Keycloak client via
// client credentials and caches them until shortly before expiry.
type ServiceAccount struct {
	client *gocloak.GoCloak
	cfg    config.KeycloakConfig

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewServiceAccount(cfg config.KeycloakConfig) *ServiceAccount {
	return &ServiceAccount{
		client: gocloak.NewClient(cfg.URL),
		cfg:    cfg,
	}
}

func (s *ServiceAccount) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}

	jwtToken, err := s.client.LoginClient(ctx, s.cfg.ClientID, s.cfg.ClientSecret, s.cfg.Realm)
	if err != nil {
		return "", fmt.Errorf("service account login: %w", err)
	}

	s.token = jwtToken.AccessToken
	s.expiresAt = tokenExpiry(jwtToken)
	nuts.L.Debugf("[Identity] Service account token refreshed, valid until %v", s.expiresAt)
	return s.token, nil
}

// tokenExpiry derives the cache deadline, preferring the token's own exp
// claim over the response's relative ExpiresIn, with a safety margin.
func tokenExpiry(token *gocloak.JWT) time.Time {
	margin := 30 * time.Second

	parsed, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, jwt.MapClaims{})
	if err == nil {
		if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time.Add(-margin)
		}
	}

	if token.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - margin)
	}
	return time.Now().Add(time.Minute)
}
