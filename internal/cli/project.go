package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskflow/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Create, list, and update the projects tasks belong to.`,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all projects",
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show a project with its members",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectCreateCmd = &cobra.Command{
	Use:     "create [name]",
	Aliases: []string{"new"},
	Short:   "Create a new project",
	Long: `Create a new project. The manager defaults to you.

Examples:
  taskflow project create "Website" --member amy@example.com --member bob@example.com
  taskflow project create "Ops" --webhook https://hooks.example.com/ops --event "Task Completed"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProjectCreate,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [project-id]",
	Short: "Update a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
}

func init() {
	for _, c := range []*cobra.Command{projectCreateCmd, projectUpdateCmd} {
		c.Flags().String("description", "", "Project description")
		c.Flags().String("manager", "", "Manager email")
		c.Flags().StringSlice("member", nil, "Member email (repeatable)")
		c.Flags().String("webhook", "", "Webhook URL for notifications")
		c.Flags().StringSlice("event", nil, fmt.Sprintf("Webhook event (repeatable): %s", strings.Join(model.NotificationEvents, ", ")))
	}
	projectUpdateCmd.Flags().String("name", "", "New project name")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectUpdateCmd)
}

func runProjectList(cmd *cobra.Command, args []string) error {
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
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found. Create one with: taskflow project create \"Name\"")
		return nil
	}

	fmt.Fprintln(out)
	for _, p := range projects {
		manager := "-"
		if p.Manager != nil {
			manager = p.Manager.Email
		}
		fmt.Fprintf(out, "  %-15s  %-24s  %-24s  %d members\n", p.ID, truncate(p.Name, 24), truncate(manager, 24), len(p.Members))
	}
	fmt.Fprintln(out)
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	p, err := e.client.Project(ctx, args[0])
	if err != nil {
		return failure("failed to load project", err)
	}

	printProject(cmd, p)
	return nil
}

func printProject(cmd *cobra.Command, p model.Project) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📁 %s (%s)\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Fprintf(out, "   %s\n", p.Description)
	}
	if p.Manager != nil {
		fmt.Fprintf(out, "Manager: %s\n", p.Manager.Email)
	}
	if len(p.Members) > 0 {
		emails := make([]string, 0, len(p.Members))
		for _, m := range p.Members {
			emails = append(emails, m.Email)
		}
		fmt.Fprintf(out, "Members: %s\n", strings.Join(emails, ", "))
	}
	if p.WebhookURL != "" {
		fmt.Fprintf(out, "Webhook: %s [%s]\n", p.WebhookURL, strings.Join(p.NotificationEvents, ", "))
	}
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()

	req := model.ProjectRequest{Name: strings.Join(args, " ")}
	if err := applyProjectFlags(ctx, cmd, e, &req); err != nil {
		return err
	}

	p, err := e.client.CreateProject(ctx, req)
	if err != nil {
		return failure("failed to create project", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project: %s (%s)\n", p.Name, p.ID)
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	current, err := e.client.Project(ctx, args[0])
	if err != nil {
		return failure("failed to load project", err)
	}

	// PUT replaces the project, so start from what is there
	req := model.ProjectRequest{
		Name:               current.Name,
		Description:        current.Description,
		WebhookURL:         current.WebhookURL,
		NotificationEvents: current.NotificationEvents,
	}
	if current.Manager != nil {
		req.ManagerID = current.Manager.ID
	}
	for _, m := range current.Members {
		if m.ID != "" {
			req.MemberIDs = append(req.MemberIDs, m.ID)
		}
	}
	if cmd.Flags().Changed("name") {
		req.Name, _ = cmd.Flags().GetString("name")
	}
	if err := applyProjectFlags(ctx, cmd, e, &req); err != nil {
		return err
	}

	p, err := e.client.UpdateProject(ctx, current.ID, req)
	if err != nil {
		return failure("failed to update project", err)
	}

	printProject(cmd, p)
	return nil
}

func applyProjectFlags(ctx context.Context, cmd *cobra.Command, e *env, req *model.ProjectRequest) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		req.Description, _ = flags.GetString("description")
	}
	if flags.Changed("webhook") {
		req.WebhookURL, _ = flags.GetString("webhook")
	}
	if flags.Changed("event") {
		events, _ := flags.GetStringSlice("event")
		for _, ev := range events {
			if !validEvent(ev) {
				return fmt.Errorf("unknown notification event %q", ev)
			}
		}
		req.NotificationEvents = events
	}

	if !flags.Changed("manager") && !flags.Changed("member") {
		return nil
	}
	users, err := e.client.Users(ctx)
	if err != nil {
		return failure("failed to list users", err)
	}
	byEmail := make(map[string]model.User, len(users))
	for _, u := range users {
		byEmail[model.NormalizeEmail(u.Email)] = u
	}
	lookup := func(email string) (string, error) {
		u, ok := byEmail[model.NormalizeEmail(email)]
		if !ok {
			return "", fmt.Errorf("unknown user: %s", email)
		}
		return u.ID, nil
	}

	if flags.Changed("manager") {
		email, _ := flags.GetString("manager")
		id, err := lookup(email)
		if err != nil {
			return err
		}
		req.ManagerID = id
	}
	if flags.Changed("member") {
		emails, _ := flags.GetStringSlice("member")
		req.MemberIDs = nil
		for _, email := range emails {
			id, err := lookup(email)
			if err != nil {
				return err
			}
			req.MemberIDs = append(req.MemberIDs, id)
		}
	}
	return nil
}

func validEvent(ev string) bool {
	for _, known := range model.NotificationEvents {
		if strings.EqualFold(known, ev) {
			return true
		}
	}
	return false
}
