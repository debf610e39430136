// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package upstream

import (
	"context"
	"fmt"
	"net/http"
)

// Authenticator attaches credentials to an outbound request.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// BasicAuth sends HTTP Basic credentials. The feedback integration uses the
// API key as username with an empty password.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(_ context.Context, req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// QueryToken adds a token as a query parameter.
type QueryToken struct {
	Param string
	Token string
}

func (a QueryToken) Apply(_ context.Context, req *http.Request) error {
	q := req.URL.Query()
	q.Set(a.Param, a.Token)
	req.URL.RawQuery = q.Encode()
	return nil
}

// TokenSource yields a current bearer token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// BearerAuth sends "Authorization: Bearer <token>".
type BearerAuth struct {
	Source TokenSource
}

func (a BearerAuth) Apply(ctx context.Context, req *http.Request) error {
	tok, err := a.Source.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("obtain access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

type noAuth struct{}

func (noAuth) Apply(context.Context, *http.Request) error { return nil }
