package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/taskflow/internal/api"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage your session with the TaskFlow server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the TaskFlow server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the TaskFlow server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset email",
	RunE:  runForgotPassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [token]",
	Short: "Set a new password using a reset token",
	Args:  cobra.ExactArgs(1),
	RunE:  runResetPassword,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE:  runWhoami,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(forgotPasswordCmd)
	authCmd.AddCommand(resetPasswordCmd)
	authCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("username", "", "Display name")
	forgotPasswordCmd.Flags().String("email", "", "Account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	p := newPrompter(cmd)
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = p.line("Email: ")
	}
	password := p.password("Password: ")

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := e.client.Login(ctx, email, password); err != nil {
		return failure("login failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Logged in successfully!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	if !e.client.LoggedIn() {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := e.client.Logout(ctx); err != nil {
		e.logger.Warn("Server logout failed, token cleared locally")
	}

	fmt.Fprintln(out, "✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	p := newPrompter(cmd)
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = p.line("Username: ")
	}
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = p.line("Email: ")
	}
	password := p.password("Password: ")
	confirm := p.password("Confirm Password: ")
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := e.client.Register(ctx, api.Credentials{Username: username, Email: email, Password: password}); err != nil {
		return failure("registration failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Account created! Log in with: taskflow auth login")
	return nil
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = newPrompter(cmd).line("Email: ")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := e.client.ForgotPassword(ctx, email); err != nil {
		return failure("password reset request failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "📬 If the account exists, a reset link is on its way.")
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	p := newPrompter(cmd)
	password := p.password("New Password: ")
	confirm := p.password("Confirm Password: ")
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := e.client.ResetPassword(ctx, args[0], password); err != nil {
		return failure("password reset failed", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Password updated. Log in with: taskflow auth login")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	e, err := requireLogin()
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.client.Session()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in as %s\n", s.Email)
	fmt.Fprintf(out, "Server: %s\n", e.client.BaseURL())
	if !s.ExpiresAt.IsZero() {
		state := "expires"
		if s.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(out, "Session %s %s\n", state, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
