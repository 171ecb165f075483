package apitest

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/taskflow/internal/model"
)

// AddProject stores a project, assigning an id when it has none
func (s *Server) AddProject(p model.Project) model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.projects = append(s.projects, p)
	return p
}

// AwardBadge gives a badge to a user
func (s *Server) AwardBadge(email string, b model.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	key := model.NormalizeEmail(email)
	s.badges[key] = append(s.badges[key], b)
}

func (s *Server) projectLocked(id string) (model.Project, bool) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func (s *Server) userByIDLocked(id string) (model.User, bool) {
	for _, rec := range s.users {
		if rec.user.ID == id {
			return rec.user, true
		}
	}
	return model.User{}, false
}

// handleListProjects answers with a page envelope, like a paged backend does
func (s *Server) handleListProjects(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := append([]model.Project{}, s.projects...)
	return c.JSON(http.StatusOK, map[string]any{
		"content":       projects,
		"totalElements": len(projects),
	})
}

func (s *Server) handleListUserProjects(c echo.Context) error {
	email, _ := c.Get("email").(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	projects := []model.Project{}
	for _, p := range s.projects {
		if p.CanAssign(email) {
			projects = append(projects, p)
		}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projectLocked(c.Param("id"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "project not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req model.ProjectRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}
	current := s.currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Project{ID: uuid.NewString()}
	if err := s.applyProjectLocked(&p, req, current); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	s.projects = append(s.projects, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var req model.ProjectRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	current := s.currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID != c.Param("id") {
			continue
		}
		p := s.projects[i]
		if err := s.applyProjectLocked(&p, req, current); err != nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		s.projects[i] = p
		return c.JSON(http.StatusOK, p)
	}
	return errorJSON(c, http.StatusNotFound, "project not found")
}

type requestError string

func (e requestError) Error() string { return string(e) }

func (s *Server) applyProjectLocked(p *model.Project, req model.ProjectRequest, current model.User) error {
	if req.Name != "" {
		p.Name = req.Name
	}
	p.Description = req.Description
	p.WebhookURL = req.WebhookURL
	p.NotificationEvents = req.NotificationEvents

	switch {
	case req.ManagerID != "":
		u, ok := s.userByIDLocked(req.ManagerID)
		if !ok {
			return requestError("unknown manager")
		}
		ref := u.Ref()
		p.Manager = &ref
	case p.Manager == nil:
		ref := current.Ref()
		p.Manager = &ref
	}

	if req.MemberIDs != nil {
		members := make([]model.UserRef, 0, len(req.MemberIDs))
		for _, id := range req.MemberIDs {
			u, ok := s.userByIDLocked(id)
			if !ok {
				return requestError("unknown member " + id)
			}
			members = append(members, u.Ref())
		}
		p.Members = members
	}
	return nil
}

func (s *Server) handleListUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, 0, len(s.userOrder))
	for _, key := range s.userOrder {
		users = append(users, s.users[key].user)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleSearchUsers(c echo.Context) error {
	q := strings.ToLower(c.Param("query"))

	s.mu.Lock()
	defer s.mu.Unlock()
	users := []model.User{}
	for _, key := range s.userOrder {
		u := s.users[key].user
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			users = append(users, u)
		}
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleBadges(c echo.Context) error {
	email, _ := c.Get("email").(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	badges := append([]model.Badge{}, s.badges[email]...)
	return c.JSON(http.StatusOK, badges)
}
