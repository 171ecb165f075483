package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/model"
)

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// List returns every task visible to the current session
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get finds one task. The API has no single-task read, so it filters the list.
func (c *Client) Get(ctx context.Context, id string) (model.Task, error) {
	tasks, err := c.List(ctx)
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, &Error{Status: http.StatusNotFound, Kind: ErrNotFound, Message: fmt.Sprintf("task %s not found", id)}
}

// Create adds a task
func (c *Client) Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return model.Task{}, err
	}
	c.logger.Info("Task created", zap.String("id", task.ID), zap.String("title", task.Title))
	return task, nil
}

// UpdateStatus changes only the task status
func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), model.StatusUpdate{Status: status}, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update sends a partial update. Unset patch fields are not transmitted.
func (c *Client) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), patch, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Remove deletes a task. The server drops its comments and attachments too.
func (c *Client) Remove(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil); err != nil {
		return err
	}
	c.logger.Info("Task deleted", zap.String("id", id))
	return nil
}

// ListComments returns comments in server order
func (c *Client) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment appends a comment to a task
func (c *Client) AddComment(ctx context.Context, taskID, content string) (model.Comment, error) {
	var comment model.Comment
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/comments", body, &comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes a comment
func (c *Client) DeleteComment(ctx context.Context, taskID, commentID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(taskID)+"/comments/"+url.PathEscape(commentID), nil, nil)
}

// ListAttachments returns the files attached to a task
func (c *Client) ListAttachments(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var attachments []model.Attachment
	if err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/attachments", nil, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UploadAttachment streams r to the server as a multipart "file" part
func (c *Client) UploadAttachment(ctx context.Context, taskID, fileName string, r io.Reader) (model.Attachment, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(fileName))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, taskPath(taskID)+"/attachments", pr)
	if err != nil {
		_ = pr.Close()
		return model.Attachment{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var attachment model.Attachment
	if err := c.send(req, &attachment); err != nil {
		return model.Attachment{}, err
	}
	c.logger.Info("Attachment uploaded",
		zap.String("task_id", taskID),
		zap.String("file", attachment.FileName),
	)
	return attachment, nil
}

// DeleteAttachment removes an attachment
func (c *Client) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(taskID)+"/attachments/"+url.PathEscape(attachmentID), nil, nil)
}
