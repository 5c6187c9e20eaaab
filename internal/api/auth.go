package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
)

// AuthContext supplies the bearer token for an outgoing request.
type AuthContext interface {
	Token(ctx context.Context) string
}

type tokenKey struct{}

// WithToken returns a context carrying the session token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token stored by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Scope hashes a session token into the key that cached responses and
// background jobs are stored under. An empty token has an empty scope.
func Scope(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// ScopeFromContext returns the scope of the token stored by WithToken.
func ScopeFromContext(ctx context.Context) string {
	return Scope(TokenFromContext(ctx))
}

// ContextAuth reads the token from the request context. The web server uses
// it so each request carries the caller's session token.
type ContextAuth struct{}

func (ContextAuth) Token(ctx context.Context) string { return TokenFromContext(ctx) }

// StaticToken always returns the same token. A token in the context takes
// precedence.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) string {
	if t := TokenFromContext(ctx); t != "" {
		return t
	}
	return string(s)
}

// Credentials for the admin login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp loginResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/admin/auth/login",
		Body:   creds,
	}, &resp)
	if err != nil {
		return "", err
	}

	token := resp.Token
	if token == "" {
		token = resp.Data.Token
	}
	if token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return token, nil
}

func (c *Client) scope(ctx context.Context) string {
	if c.auth == nil {
		return ""
	}
	return Scope(c.auth.Token(ctx))
}

func (c *Client) authenticate(req *http.Request) {
	if c.auth == nil {
		return
	}
	if token := c.auth.Token(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
