package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/edit"
	"github.com/existflow/taskflow/internal/model"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, show, move, edit and delete tasks",
	Long: `Work with single tasks. Task ids may be shortened to any unique prefix.

Examples:
  taskflow task create "Write release notes" --project 42 --assignee amy@example.com
  taskflow task move 3f2a DONE
  taskflow task edit 3f2a --title "Release notes" --no-assignee
  taskflow task delete 3f2a`,
}

var taskCreateCmd = &cobra.Command{
	Use:     "create [title]",
	Aliases: []string{"add", "new"},
	Short:   "Create a task",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTaskCreate,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task with its comments and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task to another column",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change task fields; omitted flags leave fields as they are",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

func init() {
	taskCreateCmd.Flags().StringP("project", "P", "", "Project id (defaults to the current context)")
	taskCreateCmd.Flags().StringP("assignee", "a", "", "Assignee email")
	taskCreateCmd.Flags().StringP("priority", "p", "MEDIUM", "Priority (LOW, MEDIUM, HIGH)")
	taskCreateCmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD)")
	taskCreateCmd.Flags().String("description", "", "Description")

	taskEditCmd.Flags().String("title", "", "New title")
	taskEditCmd.Flags().String("description", "", "New description")
	taskEditCmd.Flags().String("status", "", "New status (TO_DO, IN_PROGRESS, DONE)")
	taskEditCmd.Flags().String("priority", "", "New priority (LOW, MEDIUM, HIGH, NONE)")
	taskEditCmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")
	taskEditCmd.Flags().Bool("no-due", false, "Clear the due date")
	taskEditCmd.Flags().String("assignee", "", "New assignee email")
	taskEditCmd.Flags().Bool("no-assignee", false, "Unassign the task")
	taskEditCmd.Flags().String("project", "", "Move to project id")
	taskEditCmd.Flags().Bool("no-project", false, "Remove the task from its project")

	taskDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}

// loadBoard fetches the task list into a fresh board
func loadBoard(ctx context.Context, e *env) (*board.Board, error) {
	b := board.New(e.client, board.Options{Logger: e.logger, Metrics: e.metrics})
	if err := b.Load(ctx); err != nil {
		return nil, failure("failed to load tasks", err)
	}
	return b, nil
}

// findTask resolves a full id or a unique id prefix against the loaded board
func findTask(b *board.Board, ref string) (model.Task, error) {
	if t, ok := b.Cache().Get(ref); ok {
		return t, nil
	}
	var matches []model.Task
	for _, t := range b.Cache().Snapshot() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("task not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// loadDirectory fetches projects and users. Without it assignees are not
// checked locally; the server still validates them.
func loadDirectory(ctx context.Context, e *env) edit.Directory {
	dir, err := edit.LoadDirectory(ctx, e.client)
	if err != nil {
		e.logger.Warn("Failed to load directory", zap.Error(err))
		return edit.Directory{}
	}
	return dir
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()

	form := edit.NewCreateForm(loadDirectory(ctx, e))
	form.Title = strings.Join(args, " ")
	form.Description, _ = cmd.Flags().GetString("description")

	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		projectID = GetCurrentContext()
	}
	if err := form.SetProject(projectID); err != nil {
		return err
	}
	if assignee, _ := cmd.Flags().GetString("assignee"); assignee != "" {
		if err := form.SetAssignee(assignee); err != nil {
			return err
		}
	}
	priority, _ := cmd.Flags().GetString("priority")
	if form.Priority, err = model.ParsePriority(priority); err != nil {
		return err
	}
	if due, _ := cmd.Flags().GetString("due"); due != "" {
		d, err := model.ParseDate(due)
		if err != nil {
			return err
		}
		form.DueDate = &d
	}

	created, err := form.Submit(ctx, e.client, nil, e.logger)
	if err != nil {
		if errors.Is(err, edit.ErrTitleRequired) || errors.Is(err, edit.ErrProjectRequired) {
			return err
		}
		return failure("failed to create task", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s: \"%s\" [%s]\n", created.ID, created.Title, created.Status.Label())
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	b, err := loadBoard(ctx, e)
	if err != nil {
		return err
	}
	t, err := findTask(b, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", t.Title)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "ID:       %s\n", t.ID)
	fmt.Fprintf(out, "Status:   %s\n", t.Status.Label())
	fmt.Fprintf(out, "Priority: %s\n", t.Priority)
	if t.Project != nil {
		fmt.Fprintf(out, "Project:  %s (%s)\n", t.Project.Name, t.Project.ID)
	}
	if email := t.AssigneeEmail(); email != "" {
		fmt.Fprintf(out, "Assignee: %s\n", email)
	}
	if t.DueDate != nil {
		fmt.Fprintf(out, "Due:      %s\n", t.DueDate)
	}
	if t.Description != "" {
		fmt.Fprintf(out, "\n%s\n", t.Description)
	}

	comments, err := e.client.ListComments(ctx, t.ID)
	if err != nil {
		e.logger.Warn("Failed to load comments", zap.Error(err))
	} else if len(comments) > 0 {
		fmt.Fprintf(out, "\n💬 Comments (%d)\n", len(comments))
		for _, c := range comments {
			fmt.Fprintf(out, "  %s  %s: %s\n", c.Timestamp.Local().Format("Jan 2 15:04"), c.Author.Email, c.Content)
		}
	}

	attachments, err := e.client.ListAttachments(ctx, t.ID)
	if err != nil {
		e.logger.Warn("Failed to load attachments", zap.Error(err))
	} else if len(attachments) > 0 {
		fmt.Fprintf(out, "\n📎 Attachments (%d)\n", len(attachments))
		for _, a := range attachments {
			fmt.Fprintf(out, "  %s  %s\n", a.ID, a.FileName)
		}
	}
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	status, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}

	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	b, err := loadBoard(ctx, e)
	if err != nil {
		return err
	}
	t, err := findTask(b, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mv, err := b.Start(board.DragEnd{TaskID: t.ID, OverID: string(status)})
	if err != nil {
		return err
	}
	if mv == nil {
		fmt.Fprintf(out, "\"%s\" is already in %s\n", t.Title, status.Label())
		return nil
	}
	if err := mv.Settle(ctx); err != nil {
		return failure(fmt.Sprintf("could not move task to %s", status.Label()), err)
	}

	fmt.Fprintf(out, "✓ Moved \"%s\": %s → %s\n", t.Title, mv.From.Label(), mv.To.Label())
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	b, err := loadBoard(ctx, e)
	if err != nil {
		return err
	}
	t, err := findTask(b, args[0])
	if err != nil {
		return err
	}

	s := edit.NewSession(b, loadDirectory(ctx, e), e.logger)
	s.Reset(t)
	if err := applyEditFlags(cmd, s); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !s.Dirty() {
		fmt.Fprintln(out, "Nothing to change.")
		return nil
	}
	updated, err := s.Submit(ctx)
	if err != nil {
		return failure("failed to update task", err)
	}

	fmt.Fprintf(out, "✓ Updated %s: \"%s\"\n", updated.ID, updated.Title)
	return nil
}

// applyEditFlags maps the changed flags onto session setters. Project is
// applied before assignee so the assignee is checked against the new project.
func applyEditFlags(cmd *cobra.Command, s *edit.Session) error {
	flags := cmd.Flags()
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}
	set := func(name string) bool {
		if !flags.Changed(name) {
			return false
		}
		if b, err := flags.GetBool(name); err == nil {
			return b
		}
		return true
	}

	if set("title") {
		s.SetTitle(str("title"))
	}
	if set("description") {
		s.SetDescription(str("description"))
	}
	if set("status") {
		st, err := model.ParseStatus(str("status"))
		if err != nil {
			return err
		}
		if err := s.SetStatus(st); err != nil {
			return err
		}
	}
	if set("priority") {
		p, err := model.ParsePriority(str("priority"))
		if err != nil {
			return err
		}
		s.SetPriority(p)
	}
	switch {
	case set("no-due"):
		s.ClearDueDate()
	case set("due"):
		d, err := model.ParseDate(str("due"))
		if err != nil {
			return err
		}
		s.SetDueDate(d)
	}
	switch {
	case set("no-project"):
		s.ClearProject()
	case set("project"):
		if err := s.SetProject(str("project")); err != nil {
			return err
		}
	}
	switch {
	case set("no-assignee"):
		s.ClearAssignee()
	case set("assignee"):
		if err := s.SetAssignee(str("assignee")); err != nil {
			return err
		}
	}
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	b, err := loadBoard(ctx, e)
	if err != nil {
		return err
	}
	t, err := findTask(b, args[0])
	if err != nil {
		return err
	}

	var confirm edit.Confirmer = newPrompter(cmd)
	if yes, _ := cmd.Flags().GetBool("yes"); yes || !cfg.ConfirmDelete {
		confirm = edit.ConfirmFunc(func(string) bool { return true })
	}

	s := edit.NewSession(b, edit.Directory{}, e.logger)
	s.Reset(t)
	deleted, err := s.Delete(ctx, confirm)
	if err != nil {
		return failure("failed to delete task", err)
	}

	out := cmd.OutOrStdout()
	if !deleted {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	fmt.Fprintf(out, "🗑️  Deleted: \"%s\"\n", t.Title)
	return nil
}

// formatTime renders server timestamps in local time
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
