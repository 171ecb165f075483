package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage task comments",
}

var commentListCmd = &cobra.Command{
	Use:     "list [task-id]",
	Aliases: []string{"ls"},
	Short:   "List comments on a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runCommentList,
}

var commentAddCmd = &cobra.Command{
	Use:   "add [task-id] [text]",
	Short: "Comment on a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCommentAdd,
}

var commentDeleteCmd = &cobra.Command{
	Use:     "delete [task-id] [comment-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a comment",
	Args:    cobra.ExactArgs(2),
	RunE:    runCommentDelete,
}

func init() {
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentDeleteCmd)
}

func runCommentList(cmd *cobra.Command, args []string) error {
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

	comments, err := e.client.ListComments(ctx, t.ID)
	if err != nil {
		return failure("failed to list comments", err)
	}

	out := cmd.OutOrStdout()
	if len(comments) == 0 {
		fmt.Fprintf(out, "No comments on \"%s\".\n", t.Title)
		return nil
	}
	for _, c := range comments {
		fmt.Fprintf(out, "  %-8s  %s  %s\n", shortID(c.ID), formatTime(c.Timestamp), c.Author.Email)
		fmt.Fprintf(out, "            %s\n", c.Content)
	}
	return nil
}

func runCommentAdd(cmd *cobra.Command, args []string) error {
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

	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("comment text is required")
	}
	c, err := e.client.AddComment(ctx, t.ID, text)
	if err != nil {
		return failure("failed to add comment", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "💬 Comment %s added to \"%s\"\n", c.ID, t.Title)
	return nil
}

func runCommentDelete(cmd *cobra.Command, args []string) error {
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

	if err := e.client.DeleteComment(ctx, t.ID, args[1]); err != nil {
		return failure("failed to delete comment", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Comment %s deleted\n", args[1])
	return nil
}
