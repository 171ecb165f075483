package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"ls", "list"},
	Short:   "Print the board",
	Long: `Print the Kanban board, optionally filtered.

Filters default to the current context; pass ALL to disable one.

Examples:
  taskflow board
  taskflow board --project 42 --status IN_PROGRESS
  taskflow board --assignee amy@example.com --priority HIGH`,
	RunE: runBoard,
}

var (
	boardProject  string
	boardStatus   string
	boardAssignee string
	boardPriority string
)

func init() {
	boardCmd.Flags().StringVarP(&boardProject, "project", "P", "", "Filter by project id (ALL for every project)")
	boardCmd.Flags().StringVarP(&boardStatus, "status", "s", "", "Filter by status (TO_DO, IN_PROGRESS, DONE)")
	boardCmd.Flags().StringVarP(&boardAssignee, "assignee", "a", "", "Filter by assignee email")
	boardCmd.Flags().StringVarP(&boardPriority, "priority", "p", "", "Filter by priority (LOW, MEDIUM, HIGH)")
}

func runBoard(cmd *cobra.Command, args []string) error {
	project := boardProject
	if !cmd.Flags().Changed("project") {
		project = GetCurrentContext()
	}
	filter, err := model.ParseFilter(project, boardStatus, boardAssignee, boardPriority)
	if err != nil {
		return err
	}

	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	b := board.New(e.client, board.Options{Logger: e.logger, Metrics: e.metrics})
	defer b.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := b.Load(ctx); err != nil {
		return failure("failed to load tasks", err)
	}
	b.SetFilter(filter)

	out := cmd.OutOrStdout()
	cols := b.Columns()
	if cols.Len() == 0 && len(cols.Unrecognized) == 0 {
		fmt.Fprintf(out, "No tasks found (%s). Add one with: taskflow task create \"Your task\"\n", filter)
		return nil
	}

	printColumns(out, cols, time.Now())
	return nil
}

func printColumns(out io.Writer, cols board.Columns, now time.Time) {
	for _, status := range model.Statuses {
		printColumn(out, status.Label(), cols.Bucket(status), now)
	}
	if len(cols.Unrecognized) > 0 {
		printColumn(out, "Unrecognized status", cols.Unrecognized, now)
	}
}

func printColumn(out io.Writer, title string, tasks []model.Task, now time.Time) {
	fmt.Fprintf(out, "\n📋 %s (%d)\n", title, len(tasks))
	fmt.Fprintln(out, strings.Repeat("─", 72))
	for _, t := range tasks {
		printTask(out, t, now)
	}
}

func printTask(out io.Writer, t model.Task, now time.Time) {
	// Priority indicator
	priority := ""
	switch t.Priority {
	case model.PriorityHigh:
		priority = "▲ HIGH"
	case model.PriorityMedium:
		priority = "  MEDIUM"
	case model.PriorityLow:
		priority = "  LOW"
	}

	// Due date
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Format("Jan 2")
		if t.IsOverdue(now) {
			due = "! " + due
		}
	}

	assignee := t.AssigneeEmail()
	if assignee == "" {
		assignee = "-"
	}

	fmt.Fprintf(out, "  %-8s  %-36s  %-22s  %-8s  %s\n", shortID(t.ID), truncate(t.Title, 36), truncate(assignee, 22), due, priority)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
