// Package board keeps the Kanban board state: the shared task cache, the
// filtered column projection and optimistic moves.
package board

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/metrics"
	"github.com/existflow/taskflow/internal/model"
)

// Options configures a Board
type Options struct {
	Notifier Notifier
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Board ties the cache, the filter and the move coordinator together
type Board struct {
	cache       *Cache
	repo        Repository
	coordinator *Coordinator
	notifier    Notifier
	logger      *zap.Logger

	mu     sync.RWMutex
	filter model.Filter
}

// New creates a board over repo. Call Load to fill it.
func New(repo Repository, opts Options) *Board {
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cache := NewCache()
	return &Board{
		cache:       cache,
		repo:        repo,
		coordinator: NewCoordinator(cache, repo, opts.Notifier, opts.Logger, opts.Metrics),
		notifier:    opts.Notifier,
		logger:      opts.Logger,
	}
}

// Cache returns the shared task cache
func (b *Board) Cache() *Cache { return b.cache }

// Repository returns the remote store the board writes through
func (b *Board) Repository() Repository { return b.repo }

// Notifier returns the notifier used for board notices
func (b *Board) Notifier() Notifier { return b.notifier }

// Coordinator returns the move coordinator
func (b *Board) Coordinator() *Coordinator { return b.coordinator }

// Load fetches the task list. It is Refresh under the name used at mount.
func (b *Board) Load(ctx context.Context) error {
	return b.Refresh(ctx)
}

// Refresh fetches the task list. On failure the previous list stays and an
// error notice is raised.
func (b *Board) Refresh(ctx context.Context) error {
	applied, err := Refresh(ctx, b.cache, b.repo)
	if err != nil {
		b.logger.Warn("Failed to load tasks", zap.Error(err))
		if !b.cache.Closed() {
			b.notifier.Notify(Notice{
				Level:   LevelError,
				Message: fmt.Sprintf("Could not load tasks: %s", api.Describe(err)),
			})
		}
		return err
	}
	if !applied {
		b.logger.Debug("Dropped stale task list")
	}
	return nil
}

// Filter returns the active filter
func (b *Board) Filter() model.Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// SetFilter replaces the active filter
func (b *Board) SetFilter(f model.Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f.Normalize()
}

// Columns projects the cached tasks through the active filter
func (b *Board) Columns() Columns {
	return Project(b.cache.Snapshot(), b.Filter())
}

// Start begins a move; see Coordinator.Start
func (b *Board) Start(ev DragEnd) (*Move, error) {
	return b.coordinator.Start(ev)
}

// Move handles a drag-end from start to settlement
func (b *Board) Move(ctx context.Context, ev DragEnd) error {
	return b.coordinator.Move(ctx, ev)
}

// Close detaches the board: late responses no longer change the cache
func (b *Board) Close() {
	b.cache.Close()
}
