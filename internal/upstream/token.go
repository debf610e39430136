// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/dashfeed/internal/cache"
	"github.com/tomtom215/dashfeed/internal/logging"
	"github.com/tomtom215/dashfeed/internal/metrics"
)

// Token is an OAuth access token as returned by a token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenProvider fetches a fresh token from an authorization server.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
}

// ErrEmptyToken is returned when a token endpoint answers without a token.
var ErrEmptyToken = errors.New("upstream: token endpoint returned no access_token")

// ClientCredentialsProvider implements the OAuth2 client credentials grant.
type ClientCredentialsProvider struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
}

// NewClientCredentialsProvider returns a provider for tokenURL. httpClient
// may be nil.
func NewClientCredentialsProvider(clientID, clientSecret, tokenURL string, scopes []string, httpClient *http.Client) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		httpClient: httpClient,
	}
}

// Token implements TokenProvider.
func (p *ClientCredentialsProvider) Token(ctx context.Context) (Token, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	tok, err := p.cfg.Token(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("client credentials grant: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, ErrEmptyToken
	}
	out := Token{AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	if !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	return out, nil
}

// RefreshTokenProvider exchanges a long-lived refresh token for access
// tokens by POSTing to the token endpoint through an upstream Client.
type RefreshTokenProvider struct {
	client       *Client
	clientID     string
	clientSecret string
	refreshToken string
}

// NewRefreshTokenProvider posts to client's base URL.
func NewRefreshTokenProvider(client *Client, clientID, clientSecret, refreshToken string) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
	}
}

// Token implements TokenProvider.
func (p *RefreshTokenProvider) Token(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("refresh_token", p.refreshToken)

	body, err := p.client.PostForm(ctx, "", form)
	if err != nil {
		return Token{}, fmt.Errorf("refresh token grant: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, ErrEmptyToken
	}
	return tok, nil
}

// CachedTokenSource serves the token stored under a fixed cache key and
// asks its provider for a new one whenever the key is absent. The entry's
// TTL is the token's expires_in, so the store does the expiring.
type CachedTokenSource struct {
	integration string
	store       cache.Store
	key         string
	provider    TokenProvider
	group       singleflight.Group
}

// NewCachedTokenSource returns a TokenSource backed by store.
func NewCachedTokenSource(integration string, store cache.Store, key string, provider TokenProvider) *CachedTokenSource {
	return &CachedTokenSource{
		integration: integration,
		store:       store,
		key:         key,
		provider:    provider,
	}
}

// AccessToken implements TokenSource.
func (s *CachedTokenSource) AccessToken(ctx context.Context) (string, error) {
	tok, ok, err := cache.GetJSON[Token](ctx, s.store, s.key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(s.integration, "token_get").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("[UPSTREAM] cached token unreadable, refetching")
	} else if ok && tok.AccessToken != "" {
		return tok.AccessToken, nil
	}

	v, err, _ := s.group.Do(s.key, func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *CachedTokenSource) refresh(ctx context.Context) (string, error) {
	tok, err := s.provider.Token(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(s.integration, "failure").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("integration", s.integration).Msg("[UPSTREAM] token refresh failed")
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues(s.integration, "success").Inc()

	if tok.ExpiresIn > 0 {
		ttl := time.Duration(tok.ExpiresIn) * time.Second
		if err := cache.SetJSON(ctx, s.store, s.key, tok, ttl); err != nil {
			metrics.CacheErrors.WithLabelValues(s.integration, "token_set").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("[UPSTREAM] could not cache token")
		}
	}
	logging.Ctx(ctx).Debug().Str("integration", s.integration).Int64("expires_in", tok.ExpiresIn).Msg("[UPSTREAM] token refreshed")
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call refetches it.
func (s *CachedTokenSource) Invalidate(ctx context.Context) {
	if err := s.store.Delete(ctx, s.key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("[UPSTREAM] could not invalidate token")
	}
}
