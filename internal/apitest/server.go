// Package apitest is an in-memory stand-in for the TaskFlow API, used by tests.
package apitest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/model"
)

// Request is a request the server received
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status  int
	message string
}

type userRecord struct {
	user         model.User
	passwordHash []byte
}

// Server is the fake API
type Server struct {
	mu sync.Mutex

	echo   *echo.Echo
	logger *zap.Logger
	secret []byte
	now    func() time.Time

	users       map[string]*userRecord // by normalized email
	userOrder   []string
	sessions    map[string]string // token -> email
	resetTokens map[string]string // token -> email
	tasks       []model.Task
	comments    map[string][]model.Comment
	attachments map[string][]model.Attachment
	projects    []model.Project
	badges      map[string][]model.Badge

	failures map[string]failure
	requests []Request
}

// New creates an empty fake API
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:      logger,
		secret:      []byte("apitest-secret"),
		now:         time.Now,
		users:       make(map[string]*userRecord),
		sessions:    make(map[string]string),
		resetTokens: make(map[string]string),
		comments:    make(map[string][]model.Comment),
		attachments: make(map[string][]model.Attachment),
		badges:      make(map[string][]model.Badge),
		failures:    make(map[string]failure),
	}
	s.setupEcho()
	return s
}

// Start serves the fake over httptest and returns the API base URL
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.record)
	e.Use(s.injectFailures)

	api := e.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/forgot-password", s.handleForgotPassword)
	api.POST("/auth/reset-password", s.handleResetPassword)

	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.POST("/auth/logout", s.handleLogout)

	protected.GET("/tasks", s.handleListTasks)
	protected.POST("/tasks", s.handleCreateTask)
	protected.PUT("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)
	protected.GET("/tasks/:id/comments", s.handleListComments)
	protected.POST("/tasks/:id/comments", s.handleAddComment)
	protected.DELETE("/tasks/:id/comments/:commentId", s.handleDeleteComment)
	protected.GET("/tasks/:id/attachments", s.handleListAttachments)
	protected.POST("/tasks/:id/attachments", s.handleUploadAttachment)
	protected.DELETE("/tasks/:id/attachments/:attachmentId", s.handleDeleteAttachment)

	protected.GET("/projects", s.handleListProjects)
	protected.GET("/projects/user", s.handleListUserProjects)
	protected.GET("/projects/:id", s.handleGetProject)
	protected.POST("/projects", s.handleCreateProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)

	protected.GET("/users", s.handleListUsers)
	protected.GET("/users/me/badges", s.handleBadges)
	protected.GET("/users/:query", s.handleSearchUsers)

	s.echo = e
}

// record keeps every request for later assertions
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: req.Method, Path: req.URL.Path, Header: req.Header.Clone(), Body: body})
		s.mu.Unlock()

		start := time.Now()
		err := next(c)
		s.logger.Debug("HTTP Request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		f, ok := s.failures[failureKey(c.Request().Method, c.Request().URL.Path)]
		s.mu.Unlock()
		if ok {
			return c.JSON(f.status, map[string]string{"message": f.message})
		}
		return next(c)
	}
}

func failureKey(method, path string) string {
	return method + " " + path
}

// Fail makes every request to method+path (e.g. "PUT", "/api/tasks/t1")
// answer with status until ClearFailures is called
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(method, path)] = failure{status: status, message: fmt.Sprintf("injected %d", status)}
}

// ClearFailures removes every injected failure
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests received for method+path
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"message": message})
}
