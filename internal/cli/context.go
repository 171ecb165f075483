package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskflow/internal/config"
	"github.com/existflow/taskflow/internal/model"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage project context",
	Long: `Set or view the current project context.

When a context is set, the board opens filtered to that project and new
tasks go to it by default.

Examples:
  taskflow context              # Show current context
  taskflow context ls           # List all projects
  taskflow context set 42       # Set context to project 42
  taskflow context clear        # Clear context (all projects)`,
	RunE: runContextShow,
}

var contextLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all projects",
	RunE:    runContextList,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project-id]",
	Short: "Set the current project context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current context",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextLsCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func contextFilePath() string {
	return filepath.Join(config.Dir(), "context")
}

// GetCurrentContext returns the current project context (empty means all projects)
func GetCurrentContext() string {
	data, err := os.ReadFile(contextFilePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetContext saves the current context
func SetContext(projectID string) error {
	path := contextFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(projectID), 0644)
}

// ClearContext removes the context file
func ClearContext() error {
	if err := os.Remove(contextFilePath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// defaultFilter is the board filter implied by the context
func defaultFilter() model.Filter {
	return model.Filter{ProjectID: GetCurrentContext()}
}

func runContextShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	projectID := GetCurrentContext()
	if projectID == "" {
		fmt.Fprintln(out, "📥 Current context: all projects (default)")
		return nil
	}

	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	project, err := e.client.Project(ctx, projectID)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Context set to '%s' but project not found\n", projectID)
		return nil
	}

	fmt.Fprintf(out, "📁 Current context: %s (%s)\n", project.Name, project.ID)
	return nil
}

func runContextList(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	projects, err := e.client.Projects(ctx)
	if err != nil {
		return failure("failed to list projects", err)
	}

	out := cmd.OutOrStdout()
	current := GetCurrentContext()
	fmt.Fprintln(out)
	for _, p := range projects {
		marker := "  "
		if p.ID == current {
			marker = "❯ "
		}
		fmt.Fprintf(out, "%s%-15s  %-20s  %d members\n", marker, p.ID, p.Name, len(p.AllowedAssignees()))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use 'taskflow context set <project-id>' to switch context")

	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	project, err := e.client.Project(ctx, projectID)
	if err != nil {
		return failure(fmt.Sprintf("project not found: %s", projectID), err)
	}

	if err := SetContext(project.ID); err != nil {
		return fmt.Errorf("failed to set context: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "📁 Switched to: %s\n", project.Name)
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	if err := ClearContext(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "📥 Context cleared, showing all projects")
	return nil
}
