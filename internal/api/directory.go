package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/existflow/taskflow/internal/model"
)

// Projects returns every project visible to the session
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	return c.projects(ctx, "/projects")
}

// ProjectsForUser returns the projects the session user belongs to
func (c *Client) ProjectsForUser(ctx context.Context) ([]model.Project, error) {
	return c.projects(ctx, "/projects/user")
}

func (c *Client) projects(ctx context.Context, path string) ([]model.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeProjects(raw)
}

// decodeProjects accepts a bare array or a {content:[...]} / {data:[...]} page
func decodeProjects(raw json.RawMessage) ([]model.Project, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var projects []model.Project
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &projects); err != nil {
			return nil, fmt.Errorf("failed to decode projects: %w", err)
		}
		return projects, nil
	}

	var page struct {
		Content []model.Project `json:"content"`
		Data    []model.Project `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	if page.Content != nil {
		return page.Content, nil
	}
	return page.Data, nil
}

// Project returns one project with its manager and members
func (c *Client) Project(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// CreateProject creates a project
func (c *Client) CreateProject(ctx context.Context, req model.ProjectRequest) (model.Project, error) {
	var p model.Project
	if err := c.do(ctx, http.MethodPost, "/projects", req, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// UpdateProject replaces a project's settings
func (c *Client) UpdateProject(ctx context.Context, id string, req model.ProjectRequest) (model.Project, error) {
	var p model.Project
	if err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), req, &p); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// Users returns the user directory
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers looks users up by name or email fragment
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Badges returns the badges earned by the session user
func (c *Client) Badges(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	if err := c.do(ctx, http.MethodGet, "/users/me/badges", nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}
