package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/config"
	"github.com/existflow/taskflow/internal/logger"
	"github.com/existflow/taskflow/internal/tui"
)

var (
	serverURL  string
	logLevel   string
	logFile    string
	logConsole bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "TaskFlow - Kanban task board in the terminal",
	Long: `TaskFlow is a terminal client for the TaskFlow task management server.

Run 'taskflow' without arguments to launch the interactive board.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.L().Warn("Failed to load config, using defaults", zap.Error(err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
			configChanged = true
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.L().Warn("Failed to save config", zap.Error(err))
			}
		}

		logConfig := logger.DefaultConfig()
		logConfig.Level = cfg.LogLevel
		logConfig.FilePath = cfg.LogFile
		logConfig.Console = cfg.LogConsole
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.L().Info("TaskFlow started", zap.String("command", cmd.CommandPath()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.client.LoggedIn() {
			return errNotLoggedIn
		}

		logger.L().Info("Launching TUI")
		m := tui.NewModel(e.client, tui.Options{
			Logger:          e.logger,
			Metrics:         e.metrics,
			RefreshInterval: cfg.RefreshInterval,
			BadgeInterval:   cfg.BadgeInterval,
			RequestTimeout:  cfg.RequestTimeout,
			ConfirmDelete:   cfg.ConfirmDelete,
			Filter:          defaultFilter(),
		})
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.L().Error("TUI error", zap.Error(err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		m.Close()

		logger.L().Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.L().Info("TaskFlow exiting", zap.String("command", cmd.CommandPath()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "TaskFlow API URL (e.g. https://tasks.example.com/api)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(contextCmd)
}
