package dox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// tokenExpiryBuffer is how long before expiry a cached token stops
	// being reused.
	tokenExpiryBuffer = 5 * time.Minute

	// defaultTokenTTL applies when the identity endpoint omits expires_in.
	defaultTokenTTL = 12 * time.Hour
)

// TokenConfig holds configuration for the UAA token source.
type TokenConfig struct {
	UAAURL       string
	ClientID     string
	ClientSecret string
}

// TokenSource obtains and caches a bearer token via the OAuth 2.0
// client-credentials flow against SAP UAA.
//
// The cache state is mutex-guarded, but the lock is not held across the
// token request itself: two goroutines that both find the cache stale may
// each fetch a token. The requests are idempotent, so the duplicate fetch
// is harmless and the last writer wins.
type TokenSource struct {
	client *resty.Client
	cfg    TokenConfig

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given UAA credentials.
func NewTokenSource(cfg TokenConfig) *TokenSource {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &TokenSource{
		client: client,
		cfg:    cfg,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a bearer token for the Document AI API, reusing the cached
// token while it is more than five minutes from expiry. On a cache miss it
// performs one client-credentials exchange; failures are not retried here.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - string: bearer access token.
//   - error: non-nil if the exchange fails; wraps ErrAuth on a non-200.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.token != "" && time.Now().Before(t.expiresAt.Add(-tokenExpiryBuffer)) {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	var result tokenResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     t.cfg.ClientID,
			"client_secret": t.cfg.ClientSecret,
		}).
		SetResult(&result).
		Post(t.cfg.UAAURL + "/oauth/token")

	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: status %d: %s", ErrAuth, resp.StatusCode(), resp.Body())
	}

	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrAuth)
	}

	ttl := defaultTokenTTL
	if result.ExpiresIn > 0 {
		ttl = time.Duration(result.ExpiresIn) * time.Second
	}

	t.mu.Lock()
	t.token = result.AccessToken
	t.expiresAt = time.Now().Add(ttl)
	t.mu.Unlock()

	return result.AccessToken, nil
}

// ClearCache drops the cached token, forcing the next Token call to
// re-authenticate.
func (t *TokenSource) ClearCache() {
	t.mu.Lock()
	t.token = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}
