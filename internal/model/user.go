package model

import (
	"strings"
	"time"
)

// UserRef identifies a user inside tasks, projects and comments
type UserRef struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
}

// User is a directory entry
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Ref returns the reference form of the user
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email}
}

// NormalizeEmail is the comparison form of an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Badge is a gamification award shown to the current user
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Comment is a note on a task. Comments are append-only.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    UserRef   `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Attachment is a file uploaded to a task
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	URL        string    `json:"url"`
	TaskID     string    `json:"taskId"`
	UploadedAt time.Time `json:"uploadedAt"`
}
