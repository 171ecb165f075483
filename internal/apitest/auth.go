package apitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/taskflow/internal/model"
)

const sessionTTL = 24 * time.Hour

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddUser registers a user directly
func (s *Server) AddUser(email, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.addUserLocked(email, strings.Split(email, "@")[0], password)
	return u
}

func (s *Server) addUserLocked(email, username, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{ID: uuid.NewString(), Email: email, Username: username}
	key := model.NormalizeEmail(email)
	if _, ok := s.users[key]; !ok {
		s.userOrder = append(s.userOrder, key)
	}
	s.users[key] = &userRecord{user: u, passwordHash: hash}
	return u, nil
}

// Token issues a session token for an existing user without a login request
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, _ := s.issueLocked(model.NormalizeEmail(email))
	return token
}

// ResetToken returns the pending password-reset token for email
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.resetTokens {
		if e == model.NormalizeEmail(email) {
			return token
		}
	}
	return ""
}

func (s *Server) issueLocked(email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.sessions[token] = email
	return token, nil
}

// authMiddleware checks for a valid session token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return errorJSON(c, http.StatusUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return errorJSON(c, http.StatusUnauthorized, "invalid authorization format")
		}

		parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil || !parsed.Valid {
			return errorJSON(c, http.StatusUnauthorized, "invalid token")
		}

		s.mu.Lock()
		email, ok := s.sessions[token]
		s.mu.Unlock()
		if !ok {
			return errorJSON(c, http.StatusUnauthorized, "session ended")
		}

		c.Set("email", email)
		c.Set("token", token)
		return next(c)
	}
}

func (s *Server) currentUser(c echo.Context) model.User {
	email, _ := c.Get("email").(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[email]; ok {
		return rec.user
	}
	return model.User{Email: email}
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "email and password required")
	}
	if len(req.Password) < 6 {
		return errorJSON(c, http.StatusBadRequest, "password must be at least 6 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[model.NormalizeEmail(req.Email)]; ok {
		return c.String(http.StatusBadRequest, "Email already in use")
	}
	username := req.Username
	if username == "" {
		username = strings.Split(req.Email, "@")[0]
	}
	if _, err := s.addUserLocked(req.Email, username, req.Password); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.String(http.StatusOK, "User registered successfully")
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := model.NormalizeEmail(req.Email)
	rec, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	token, err := s.issueLocked(email)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("token").(string)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return errorJSON(c, http.StatusBadRequest, "email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := model.NormalizeEmail(req.Email)
	if _, ok := s.users[email]; ok {
		s.resetTokens[uuid.NewString()] = email
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "if the email exists, a reset link was sent"})
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resetTokens[req.Token]
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid or expired token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	s.users[email].passwordHash = hash
	delete(s.resetTokens, req.Token)
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
