package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is a username/password pair for /auth.
type Credentials struct {
	Username string
	Password string
}

// Session describes an authenticated session. When the account has
// two-factor authentication enabled, the first token is only good for the
// 2FA verification step and Requires2FA is set.
type Session struct {
	Token       string
	Requires2FA bool
	// Subject and ExpiresAt are read from the token claims without
	// verifying the signature; verification is the server's job.
	Subject   string
	ExpiresAt time.Time
}

type tokenModel struct {
	AccessToken string `json:"access_token"`
	Requires2FA bool   `json:"requires_2fa"`
	TokenType   string `json:"token_type"`
}

// Login authenticates with username and password. The token is form-posted
// the OAuth2 password way. On success the session token is retained for
// subsequent requests.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	var token tokenModel
	if err := decodeResponse(resp, &token); err != nil {
		return nil, err
	}

	c.SetToken(token.AccessToken)
	return c.newSession(token), nil
}

// Verify2FA exchanges a two-factor code for a full session token after a
// Login that reported Requires2FA.
func (c *Client) Verify2FA(ctx context.Context, code string) (*Session, error) {
	var token tokenModel
	if err := c.call(ctx, http.MethodPost, "/auth/2fa/verify", codeBody(code), &token); err != nil {
		return nil, err
	}
	c.SetToken(token.AccessToken)
	return c.newSession(token), nil
}

// TwoFactorSetup carries the provisioning URI for an authenticator app.
type TwoFactorSetup struct {
	URI string `json:"uri"`
}

// Request2FA asks the server for a fresh two-factor secret to provision.
func (c *Client) Request2FA(ctx context.Context) (*TwoFactorSetup, error) {
	var setup TwoFactorSetup
	if err := c.call(ctx, http.MethodGet, "/auth/2fa/new", nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// Enable2FA confirms a provisioned secret with a first code.
func (c *Client) Enable2FA(ctx context.Context, code string) error {
	return c.call(ctx, http.MethodPost, "/auth/2fa/enable", codeBody(code), nil)
}

// Disable2FA turns two-factor authentication off.
func (c *Client) Disable2FA(ctx context.Context, code string) error {
	return c.call(ctx, http.MethodPost, "/auth/2fa/disable", codeBody(code), nil)
}

// Logout invalidates the session server-side and clears the retained token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func codeBody(code string) any {
	return struct {
		Code string `json:"code"`
	}{code}
}

// newSession builds a Session from a token response, lifting subject and
// expiry out of the (unverified) JWT claims when they parse.
func (c *Client) newSession(token tokenModel) *Session {
	s := &Session{Token: token.AccessToken, Requires2FA: token.Requires2FA}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err != nil {
		c.logger.Debug("api: token claims not readable", "error", err)
		return s
	}
	if sub, err := claims.GetSubject(); err == nil {
		s.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s
}

// SubjectID parses a numeric token subject into a user id.
func (s *Session) SubjectID() (int, bool) {
	id, err := strconv.Atoi(s.Subject)
	if err != nil {
		return 0, false
	}
	return id, true
}
