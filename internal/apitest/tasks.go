package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/taskflow/internal/model"
)

// AddTask stores a task as-is, assigning an id when it has none
func (s *Server) AddTask(t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Task returns the stored copy of a task
func (s *Server) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Tasks returns every stored task
func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Server) taskIndexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Tasks())
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req model.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Title == "" {
		return errorJSON(c, http.StatusBadRequest, "title is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := model.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      model.StatusToDo,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   s.now(),
	}
	if req.ProjectID != "" {
		p, ok := s.projectLocked(req.ProjectID)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "unknown project")
		}
		ref := p.Ref()
		task.Project = &ref
	}
	if req.AssigneeEmail != nil && *req.AssigneeEmail != "" {
		rec, ok := s.users[model.NormalizeEmail(*req.AssigneeEmail)]
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "unknown assignee")
		}
		ref := rec.user.Ref()
		task.Assignee = &ref
	}
	s.tasks = append(s.tasks, task)
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	var patch model.TaskPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndexLocked(c.Param("id"))
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	task := s.tasks[i]

	if st, ok := patch.Status.Get(); ok && !st.Valid() {
		return errorJSON(c, http.StatusBadRequest, "invalid status")
	}
	if patch.Status.IsNull() || patch.Title.IsNull() {
		return errorJSON(c, http.StatusBadRequest, "field cannot be null")
	}
	task = patch.Apply(task)

	if id, ok := patch.ProjectID.Get(); ok {
		p, found := s.projectLocked(id)
		if !found {
			return errorJSON(c, http.StatusBadRequest, "unknown project")
		}
		ref := p.Ref()
		task.Project = &ref
	}
	if email, ok := patch.AssigneeEmail.Get(); ok {
		rec, found := s.users[model.NormalizeEmail(email)]
		if !found {
			return errorJSON(c, http.StatusBadRequest, "unknown assignee")
		}
		ref := rec.user.Ref()
		task.Assignee = &ref
	}

	s.tasks[i] = task
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	i := s.taskIndexLocked(id)
	if i < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	delete(s.comments, id)
	delete(s.attachments, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListComments(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if s.taskIndexLocked(id) < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	comments := s.comments[id]
	if comments == nil {
		comments = []model.Comment{}
	}
	return c.JSON(http.StatusOK, comments)
}

func (s *Server) handleAddComment(c echo.Context) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return errorJSON(c, http.StatusBadRequest, "content is required")
	}
	author := s.currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if s.taskIndexLocked(id) < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	comment := model.Comment{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Author:    author.Ref(),
		Timestamp: s.now(),
	}
	s.comments[id] = append(s.comments[id], comment)
	return c.JSON(http.StatusCreated, comment)
}

func (s *Server) handleDeleteComment(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	comments := s.comments[id]
	for i, cm := range comments {
		if cm.ID == c.Param("commentId") {
			s.comments[id] = append(comments[:i], comments[i+1:]...)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return errorJSON(c, http.StatusNotFound, "comment not found")
}

func (s *Server) handleListAttachments(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if s.taskIndexLocked(id) < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	attachments := s.attachments[id]
	if attachments == nil {
		attachments = []model.Attachment{}
	}
	return c.JSON(http.StatusOK, attachments)
}

func (s *Server) handleUploadAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "file is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if s.taskIndexLocked(id) < 0 {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	attachmentID := uuid.NewString()
	attachment := model.Attachment{
		ID:         attachmentID,
		FileName:   file.Filename,
		FileType:   file.Header.Get("Content-Type"),
		URL:        path.Join("/files", attachmentID, file.Filename),
		TaskID:     id,
		UploadedAt: s.now(),
	}
	s.attachments[id] = append(s.attachments[id], attachment)
	return c.JSON(http.StatusCreated, attachment)
}

func (s *Server) handleDeleteAttachment(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	attachments := s.attachments[id]
	for i, a := range attachments {
		if a.ID == c.Param("attachmentId") {
			s.attachments[id] = append(attachments[:i], attachments[i+1:]...)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return errorJSON(c, http.StatusNotFound, "attachment not found")
}
