package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/config"
	"github.com/existflow/taskflow/internal/db"
	"github.com/existflow/taskflow/internal/logger"
	"github.com/existflow/taskflow/internal/metrics"
)

var errNotLoggedIn = errors.New("not logged in, run: taskflow auth login")

// env is what a command needs to talk to the server
type env struct {
	db       *db.DB
	client   *api.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func openEnv() (*env, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log := logger.L()
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, log)
	client := api.New(api.Options{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout,
		Tokens:  db.NewTokenStore(dbConn),
		Logger:  log,
		Metrics: m,
	})
	return &env{db: dbConn, client: client, logger: log, metrics: m, registry: registry}, nil
}

// Close writes the metrics textfile when configured and closes the database
func (e *env) Close() {
	if cfg != nil && cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, e.registry); err != nil {
			e.logger.Warn("Failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}
	_ = e.db.Close()
	e.logger.Debug("Database closed")
}

// requireLogin opens the env and fails when no token is stored
func requireLogin() (*env, error) {
	e, err := openEnv()
	if err != nil {
		return nil, err
	}
	if !e.client.LoggedIn() {
		e.Close()
		return nil, errNotLoggedIn
	}
	return e, nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg != nil && cfg.RequestTimeout > 0 {
		// uploads and multi-request commands get a few request timeouts
		return context.WithTimeout(ctx, 4*cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// failure turns an API error into the message shown to the user
func failure(action string, err error) error {
	return fmt.Errorf("%s: %s", action, api.Describe(err))
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout(), fd: -1}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

func (p *prompter) line(label string) string {
	fmt.Fprint(p.out, label)
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

// password reads without echo on a terminal and falls back to a plain line
func (p *prompter) password(label string) string {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	b, _ := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	return string(b)
}

// Confirm implements edit.Confirmer
func (p *prompter) Confirm(prompt string) bool {
	answer := p.line(prompt + " [y/N]: ")
	return answer == "y" || answer == "Y" || strings.EqualFold(answer, "yes")
}
