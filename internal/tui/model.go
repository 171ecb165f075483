// Package tui is the interactive Kanban board.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/edit"
	"github.com/existflow/taskflow/internal/metrics"
	"github.com/existflow/taskflow/internal/model"
	"github.com/existflow/taskflow/internal/poll"
)

// Backend is the server API the board needs
type Backend interface {
	board.Repository
	edit.DirectorySource
	edit.Creator
	poll.BadgeSource
}

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeEdit
	ModeAddTask
	ModeConfirmDelete
	ModeHelp
)

// editField is the focused row of the edit modal
type editField int

const (
	fieldTitle editField = iota
	fieldStatus
	fieldPriority
	fieldAssignee
	fieldProject
	fieldCount
)

// Options configures the board UI
type Options struct {
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	RefreshInterval time.Duration
	BadgeInterval   time.Duration
	RequestTimeout  time.Duration
	ConfirmDelete   bool
	Filter          model.Filter
}

// Model is the main TUI model
type Model struct {
	backend Backend
	board   *board.Board
	poller  *poll.Poller
	notices chan board.Notice
	done    chan struct{}
	once    *sync.Once
	logger  *zap.Logger
	opts    Options

	dir      edit.Directory
	session  *edit.Session
	create   *edit.CreateForm
	deleting *model.Task

	// UI state
	width  int
	height int
	mode   Mode
	column int
	rows   [3]int
	field  editField

	// Input
	input textinput.Model

	loading bool
	message string
	level   board.Level
}

// NewModel creates the board UI over backend. Call Close once the program exits.
func NewModel(backend Backend, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	opts.Logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		backend: backend,
		notices: make(chan board.Notice, 16),
		done:    make(chan struct{}),
		once:    &sync.Once{},
		logger:  opts.Logger,
		opts:    opts,
		input:   ti,
		loading: true,
	}

	notify := board.NotifierFunc(func(n board.Notice) {
		// drop rather than block a background job when nobody is reading
		select {
		case m.notices <- n:
		default:
			opts.Logger.Warn("Dropped notice", zap.String("message", n.Message))
		}
	})
	m.board = board.New(backend, board.Options{Notifier: notify, Logger: opts.Logger, Metrics: opts.Metrics})
	m.board.SetFilter(opts.Filter)

	poller, err := poll.New(m.board, backend, poll.Options{
		RefreshInterval: opts.RefreshInterval,
		BadgeInterval:   opts.BadgeInterval,
		RequestTimeout:  opts.RequestTimeout,
		Logger:          opts.Logger,
	})
	if err != nil {
		opts.Logger.Warn("Background polling disabled", zap.Error(err))
	} else {
		m.poller = poller
	}
	return m
}

// Close stops background polling and detaches the board
func (m Model) Close() {
	m.once.Do(func() {
		if m.poller != nil {
			m.poller.Stop()
		}
		if m.session != nil {
			m.session.Close()
		}
		m.board.Close()
		close(m.done)
		m.logger.Info("TUI model closed")
	})
}

// Board returns the board the UI renders
func (m Model) Board() *board.Board { return m.board }

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.RequestTimeout)
}

// selected returns the task under the cursor
func (m Model) selected() (model.Task, bool) {
	col := m.board.Columns().Bucket(model.Statuses[m.column])
	if len(col) == 0 {
		return model.Task{}, false
	}
	row := clamp(m.rows[m.column], len(col))
	return col[row], true
}

// clampRows keeps every cursor inside its column after the list changed
func (m *Model) clampRows() {
	cols := m.board.Columns()
	for i, st := range model.Statuses {
		m.rows[i] = clamp(m.rows[i], len(cols.Bucket(st)))
	}
}

func (m *Model) setMessage(level board.Level, msg string) {
	m.level = level
	m.message = msg
}
