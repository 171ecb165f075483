package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:     "attach",
	Aliases: []string{"attachment"},
	Short:   "Manage task attachments",
}

var attachListCmd = &cobra.Command{
	Use:     "list [task-id]",
	Aliases: []string{"ls"},
	Short:   "List attachments of a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runAttachList,
}

var attachUploadCmd = &cobra.Command{
	Use:   "upload [task-id] [file]",
	Short: "Upload a file to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttachUpload,
}

var attachDeleteCmd = &cobra.Command{
	Use:     "delete [task-id] [attachment-id]",
	Aliases: []string{"rm"},
	Short:   "Delete an attachment",
	Args:    cobra.ExactArgs(2),
	RunE:    runAttachDelete,
}

func init() {
	attachCmd.AddCommand(attachListCmd)
	attachCmd.AddCommand(attachUploadCmd)
	attachCmd.AddCommand(attachDeleteCmd)
}

func runAttachList(cmd *cobra.Command, args []string) error {
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

	attachments, err := e.client.ListAttachments(ctx, t.ID)
	if err != nil {
		return failure("failed to list attachments", err)
	}

	out := cmd.OutOrStdout()
	if len(attachments) == 0 {
		fmt.Fprintf(out, "No attachments on \"%s\".\n", t.Title)
		return nil
	}
	for _, a := range attachments {
		fmt.Fprintf(out, "  %-8s  %-30s  %-20s  %s\n", shortID(a.ID), truncate(a.FileName, 30), a.FileType, formatTime(a.UploadedAt))
	}
	return nil
}

func runAttachUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

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

	a, err := e.client.UploadAttachment(ctx, t.ID, filepath.Base(args[1]), f)
	if err != nil {
		return failure("failed to upload attachment", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "📎 Uploaded %s to \"%s\" (%s)\n", a.FileName, t.Title, a.ID)
	return nil
}

func runAttachDelete(cmd *cobra.Command, args []string) error {
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

	if err := e.client.DeleteAttachment(ctx, t.ID, args[1]); err != nil {
		return failure("failed to delete attachment", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Attachment %s deleted\n", args[1])
	return nil
}
