// Package edit holds the task detail/edit session and the create-task form.
// Both keep a draft apart from the board cache until it is submitted.
package edit

import (
	"context"
	"fmt"

	"github.com/existflow/taskflow/internal/model"
)

// DirectorySource is where the project and user lists come from
type DirectorySource interface {
	Projects(ctx context.Context) ([]model.Project, error)
	Users(ctx context.Context) ([]model.User, error)
}

// Directory is a snapshot of the known projects and users
type Directory struct {
	Projects []model.Project
	Users    []model.User
}

// LoadDirectory fetches projects and users from src
func LoadDirectory(ctx context.Context, src DirectorySource) (Directory, error) {
	projects, err := src.Projects(ctx)
	if err != nil {
		return Directory{}, fmt.Errorf("load projects: %w", err)
	}
	users, err := src.Users(ctx)
	if err != nil {
		return Directory{}, fmt.Errorf("load users: %w", err)
	}
	return Directory{Projects: projects, Users: users}, nil
}

// Project looks up a project by id
func (d Directory) Project(id string) (model.Project, bool) {
	for _, p := range d.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// AllowedAssignees returns the emails selectable for a task in projectID.
// With no project (or one not in the directory) every known user is allowed.
func (d Directory) AllowedAssignees(projectID string) []string {
	if projectID != "" {
		if p, ok := d.Project(projectID); ok {
			return p.AllowedAssignees()
		}
	}
	seen := make(map[string]struct{}, len(d.Users))
	var emails []string
	for _, u := range d.Users {
		e := model.NormalizeEmail(u.Email)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		emails = append(emails, e)
	}
	return emails
}

// CanAssign reports whether email may be assigned to a task in projectID.
// An unloaded directory restricts nothing.
func (d Directory) CanAssign(projectID, email string) bool {
	if projectID != "" {
		if p, ok := d.Project(projectID); ok {
			return p.CanAssign(email)
		}
	}
	if len(d.Users) == 0 {
		return true
	}
	e := model.NormalizeEmail(email)
	for _, allowed := range d.AllowedAssignees("") {
		if allowed == e {
			return true
		}
	}
	return false
}
