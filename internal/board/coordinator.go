package board

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/metrics"
	"github.com/existflow/taskflow/internal/model"
)

// Repository is the remote task store the board writes through
type Repository interface {
	List(ctx context.Context) ([]model.Task, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Remove(ctx context.Context, id string) error
}

// DragEnd reports where a card was dropped. OverID is a bucket (a status),
// another task's id (meaning that task's bucket), or empty when the card
// was dropped outside the board.
type DragEnd struct {
	TaskID string
	OverID string
}

// Coordinator turns drag-ends into optimistic status updates
type Coordinator struct {
	cache    *Cache
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCoordinator creates a Coordinator writing to cache and repo
func NewCoordinator(cache *Cache, repo Repository, notifier Notifier, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{cache: cache, repo: repo, notifier: notifier, logger: logger, metrics: m}
}

// Move is an optimistic status change waiting for the server
type Move struct {
	TaskID string
	From   model.Status
	To     model.Status

	c       *Coordinator
	settled atomic.Bool
}

// Target resolves the bucket a drag-end points at
func (c *Coordinator) Target(ev DragEnd) (model.Status, bool) {
	if ev.OverID == "" {
		return "", false
	}
	if st := model.Status(ev.OverID); st.Valid() {
		return st, true
	}
	if t, ok := c.cache.Get(ev.OverID); ok && t.Status.Valid() {
		return t.Status, true
	}
	return "", false
}

// Start applies the optimistic half of a move. It returns a nil Move and a
// nil error when the drop changes nothing (dropped outside, or onto the
// card's own bucket); no request is due in that case.
func (c *Coordinator) Start(ev DragEnd) (*Move, error) {
	if ev.TaskID == "" || ev.TaskID == ev.OverID {
		c.metrics.RecordMove(metrics.MoveNoop)
		return nil, nil
	}
	to, ok := c.Target(ev)
	if !ok {
		c.metrics.RecordMove(metrics.MoveNoop)
		return nil, nil
	}

	switch st := c.cache.State(ev.TaskID).(type) {
	case nil:
		return nil, ErrUnknownTask
	case Pending:
		c.metrics.RecordMove(metrics.MoveRejected)
		return nil, ErrMoveInFlight
	case Settled:
		if !st.Status.Valid() {
			c.metrics.RecordMove(metrics.MoveRejected)
			return nil, ErrUnrecognized
		}
		if st.Status == to {
			c.metrics.RecordMove(metrics.MoveNoop)
			return nil, nil
		}
	}

	from, err := c.cache.BeginMove(ev.TaskID, to)
	if err != nil {
		c.metrics.RecordMove(metrics.MoveRejected)
		return nil, err
	}

	c.logger.Debug("Move started",
		zap.String("task_id", ev.TaskID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return &Move{TaskID: ev.TaskID, From: from, To: to, c: c}, nil
}

// Settle sends the status update and reconciles the cache with the outcome.
// On failure the task is rolled back, one error notice is raised, and the
// error is returned. On success the task list is fetched again.
func (m *Move) Settle(ctx context.Context) error {
	if !m.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	c := m.c

	updated, err := c.repo.UpdateStatus(ctx, m.TaskID, m.To)
	if err != nil {
		c.cache.SettleMove(m.TaskID, false)
		c.metrics.RecordMove(metrics.MoveRolledBack)
		c.logger.Warn("Move rolled back",
			zap.String("task_id", m.TaskID),
			zap.String("from", string(m.From)),
			zap.String("to", string(m.To)),
			zap.Error(err),
		)
		c.notifier.Notify(Notice{
			Level:   LevelError,
			Message: fmt.Sprintf("Could not move task to %s: %s", m.To.Label(), api.Describe(err)),
		})
		return fmt.Errorf("move task %s: %w", m.TaskID, err)
	}

	c.cache.SettleMove(m.TaskID, true)
	c.cache.Merge(updated)
	c.metrics.RecordMove(metrics.MoveSucceeded)
	c.logger.Info("Task moved",
		zap.String("task_id", m.TaskID),
		zap.String("to", string(m.To)),
	)

	if _, err := Refresh(ctx, c.cache, c.repo); err != nil {
		c.logger.Warn("Refresh after move failed", zap.Error(err))
	}
	return nil
}

// Move runs Start and Settle
func (c *Coordinator) Move(ctx context.Context, ev DragEnd) error {
	mv, err := c.Start(ev)
	if err != nil || mv == nil {
		return err
	}
	return mv.Settle(ctx)
}

// Refresh fetches the task list into cache. The result is dropped when a
// newer fetch has already been applied; applied reports which happened.
func Refresh(ctx context.Context, cache *Cache, repo Repository) (applied bool, err error) {
	seq := cache.BeginFetch()
	tasks, err := repo.List(ctx)
	if err != nil {
		return false, err
	}
	return cache.Apply(seq, tasks), nil
}
