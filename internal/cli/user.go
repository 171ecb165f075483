package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskflow/internal/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Browse the user directory",
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	RunE:    runUserList,
}

var userSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search users by name or email",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSearch,
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Show the badges you have earned",
	RunE:  runBadges,
}

func init() {
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSearchCmd)
}

func runUserList(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	users, err := e.client.Users(ctx)
	if err != nil {
		return failure("failed to list users", err)
	}
	printUsers(cmd, users)
	return nil
}

func runUserSearch(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	users, err := e.client.SearchUsers(ctx, args[0])
	if err != nil {
		return failure("failed to search users", err)
	}
	printUsers(cmd, users)
	return nil
}

func printUsers(cmd *cobra.Command, users []model.User) {
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return
	}
	for _, u := range users {
		fmt.Fprintf(out, "  %-20s  %s\n", truncate(u.Username, 20), u.Email)
	}
}

func runBadges(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	badges, err := e.client.Badges(ctx)
	if err != nil {
		return failure("failed to load badges", err)
	}

	out := cmd.OutOrStdout()
	if len(badges) == 0 {
		fmt.Fprintln(out, "No badges yet. Finish some tasks!")
		return nil
	}
	for _, b := range badges {
		icon := b.Icon
		if icon == "" {
			icon = "🏅"
		}
		fmt.Fprintf(out, "  %s %s: %s\n", icon, b.Name, b.Description)
	}
	return nil
}
