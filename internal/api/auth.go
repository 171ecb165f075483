package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrNotLoggedIn is returned by Session when no token is stored
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials is the body of register and login
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	if err := c.do(ctx, http.MethodPost, "/auth/register", creds, nil); err != nil {
		return err
	}
	c.logger.Info("Account registered", zap.String("email", creds.Email))
	return nil
}

// Login authenticates and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) error {
	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", Credentials{Email: email, Password: password}, &result); err != nil {
		return err
	}
	if result.Token == "" {
		return fmt.Errorf("login response carried no token")
	}
	if err := c.tokens.SetToken(result.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	c.logger.Info("Logged in", zap.String("email", email))
	return nil
}

// Logout tells the server (best effort) and always clears the local token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		c.logger.Debug("Server logout failed", zap.Error(err))
	}
	return c.tokens.ClearToken()
}

// ForgotPassword asks the server to mail a reset token
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// LoggedIn returns true if a token is stored
func (c *Client) LoggedIn() bool {
	token, err := c.tokens.Token()
	return err == nil && token != ""
}

// Session describes the stored token
type Session struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token has passed its expiry
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Session reads the claims of the stored token. The signature is not
// verified; the server does that on every request.
func (c *Client) Session() (Session, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, ErrNotLoggedIn
	}

	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("failed to read token claims: %w", err)
	}

	s := Session{Subject: claims.Subject, Email: claims.Email}
	if s.Email == "" {
		s.Email = claims.Subject
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
