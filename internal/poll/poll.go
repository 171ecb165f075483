// Package poll runs the background jobs of an open board: periodic task
// list refresh and badge polling.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/board"
	"github.com/existflow/taskflow/internal/model"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultBadgeInterval   = 5 * time.Second
)

// BadgeSource returns the current user's badges
type BadgeSource interface {
	Badges(ctx context.Context) ([]model.Badge, error)
}

// Options configures a Poller. A negative interval disables that job.
type Options struct {
	RefreshInterval time.Duration
	BadgeInterval   time.Duration
	RequestTimeout  time.Duration
	Logger          *zap.Logger
}

// Poller schedules the background jobs on a cron scheduler
type Poller struct {
	cron    *cron.Cron
	board   *board.Board
	badges  BadgeSource
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	seen    map[string]struct{}
	primed  bool
	failing bool
}

// New creates a Poller for b. badges may be nil to skip badge polling.
func New(b *board.Board, badges BadgeSource, opts Options) (*Poller, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.BadgeInterval == 0 {
		opts.BadgeInterval = DefaultBadgeInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	p := &Poller{
		cron:    cron.New(),
		board:   b,
		badges:  badges,
		logger:  opts.Logger,
		timeout: opts.RequestTimeout,
		seen:    make(map[string]struct{}),
	}

	if opts.RefreshInterval > 0 {
		if _, err := p.cron.AddFunc(every(opts.RefreshInterval), p.refreshJob); err != nil {
			return nil, fmt.Errorf("schedule refresh: %w", err)
		}
	}
	if badges != nil && opts.BadgeInterval > 0 {
		if _, err := p.cron.AddFunc(every(opts.BadgeInterval), p.badgeJob); err != nil {
			return nil, fmt.Errorf("schedule badge polling: %w", err)
		}
	}
	return p, nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// Start runs the scheduler in the background
func (p *Poller) Start() {
	p.logger.Debug("Starting poller", zap.Int("jobs", len(p.cron.Entries())))
	p.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Debug("Poller stopped")
}

func (p *Poller) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.Refresh(ctx)
}

func (p *Poller) badgeJob() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_, _ = p.CheckBadges(ctx)
}

// Refresh fetches the task list once. Only the first failure of a run of
// failures raises a notice.
func (p *Poller) Refresh(ctx context.Context) error {
	_, err := board.Refresh(ctx, p.board.Cache(), p.board.Repository())

	p.mu.Lock()
	wasFailing := p.failing
	p.failing = err != nil
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Background refresh failed", zap.Error(err))
		if !wasFailing && !p.board.Cache().Closed() {
			p.board.Notifier().Notify(board.Notice{
				Level:   board.LevelError,
				Message: fmt.Sprintf("Could not load tasks: %s", api.Describe(err)),
			})
		}
		return err
	}
	if wasFailing {
		p.logger.Info("Background refresh recovered")
	}
	return nil
}

// CheckBadges polls the badge list and returns badges not seen before. The
// first poll only records what the user already has.
func (p *Poller) CheckBadges(ctx context.Context) ([]model.Badge, error) {
	badges, err := p.badges.Badges(ctx)
	if err != nil {
		p.logger.Debug("Badge poll failed", zap.Error(err))
		return nil, err
	}

	p.mu.Lock()
	var earned []model.Badge
	for _, b := range badges {
		if _, ok := p.seen[b.ID]; ok {
			continue
		}
		p.seen[b.ID] = struct{}{}
		if p.primed {
			earned = append(earned, b)
		}
	}
	p.primed = true
	p.mu.Unlock()

	for _, b := range earned {
		p.logger.Info("Badge earned", zap.String("badge_id", b.ID), zap.String("name", b.Name))
		p.board.Notifier().Notify(board.Notice{
			Level:   board.LevelInfo,
			Message: fmt.Sprintf("You earned a new badge: %s!", b.Name),
		})
	}
	return earned, nil
}
