package board

import (
	"errors"
	"sync"

	"github.com/existflow/taskflow/internal/model"
)

var (
	ErrUnknownTask    = errors.New("task is not on the board")
	ErrMoveInFlight   = errors.New("task is already being moved")
	ErrRemoveInFlight = errors.New("task is already being deleted")
	ErrClosed         = errors.New("board is closed")
	ErrAlreadySettled = errors.New("move already settled")
	ErrUnrecognized   = errors.New("task has an unrecognized status and cannot be moved")
)

// MoveState is the per-task move state: Settled or Pending
type MoveState interface {
	isMoveState()
}

// Settled is a task with no move in flight
type Settled struct {
	Status model.Status
}

// Pending is a task shown in To while the server has not confirmed the move from From
type Pending struct {
	From model.Status
	To   model.Status
}

func (Settled) isMoveState() {}
func (Pending) isMoveState() {}

type removal struct {
	task  model.Task
	index int
}

// Cache is the shared task list. Every write happens under one lock, so a
// reader never sees a half-applied change.
type Cache struct {
	mu sync.RWMutex

	order []string
	tasks map[string]model.Task

	pending  map[string]Pending
	removing map[string]removal

	issued  uint64
	applied uint64
	closed  bool
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		tasks:    make(map[string]model.Task),
		pending:  make(map[string]Pending),
		removing: make(map[string]removal),
	}
}

// BeginFetch returns the sequence number to pass to Apply for one list request
func (c *Cache) BeginFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Apply replaces the list with the result of fetch seq. It returns false and
// changes nothing when a newer fetch was already applied, a confirmed write
// landed after seq was issued, or the cache is closed. In-flight moves and
// removals are laid over the new list.
func (c *Cache) Apply(seq uint64, tasks []model.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq <= c.applied {
		return false
	}
	c.applied = seq

	c.order = make([]string, 0, len(tasks))
	c.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		if _, gone := c.removing[t.ID]; gone {
			continue
		}
		if p, ok := c.pending[t.ID]; ok {
			t.Status = p.To
		}
		if _, dup := c.tasks[t.ID]; !dup {
			c.order = append(c.order, t.ID)
		}
		c.tasks[t.ID] = t
	}
	return true
}

// BeginMove sets the task's status to to and records the move as pending
func (c *Cache) BeginMove(id string, to model.Status) (model.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	t, ok := c.tasks[id]
	if !ok {
		return "", ErrUnknownTask
	}
	if _, busy := c.pending[id]; busy {
		return "", ErrMoveInFlight
	}

	from := t.Status
	t.Status = to
	c.tasks[id] = t
	c.pending[id] = Pending{From: from, To: to}
	return from, nil
}

// SettleMove ends a pending move. On failure the task goes back to exactly
// the status it had when the move began.
func (c *Cache) SettleMove(id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, found := c.pending[id]
	if !found {
		return
	}
	delete(c.pending, id)
	if c.closed {
		return
	}
	if ok {
		c.supersedeFetchesLocked()
		return
	}
	if t, present := c.tasks[id]; present {
		t.Status = p.From
		c.tasks[id] = t
	}
}

// BeginRemove takes the task off the board until SettleRemove
func (c *Cache) BeginRemove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, busy := c.removing[id]; busy {
		return ErrRemoveInFlight
	}
	if _, busy := c.pending[id]; busy {
		return ErrMoveInFlight
	}
	t, ok := c.tasks[id]
	if !ok {
		return ErrUnknownTask
	}

	index := c.indexLocked(id)
	c.removing[id] = removal{task: t, index: index}
	if index < len(c.order) {
		c.order = append(c.order[:index], c.order[index+1:]...)
	}
	delete(c.tasks, id)
	return nil
}

// SettleRemove ends a removal. On failure the task is put back where it was.
func (c *Cache) SettleRemove(id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, found := c.removing[id]
	if !found {
		return
	}
	delete(c.removing, id)
	if c.closed {
		return
	}
	if ok {
		c.supersedeFetchesLocked()
		return
	}
	if _, present := c.tasks[id]; present {
		return
	}

	index := min(r.index, len(c.order))
	c.order = append(c.order, "")
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = id
	c.tasks[id] = r.task
}

// Merge inserts or replaces one task by id with a server-confirmed copy
func (c *Cache) Merge(t model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || t.ID == "" {
		return
	}
	if _, gone := c.removing[t.ID]; gone {
		return
	}
	if p, ok := c.pending[t.ID]; ok {
		t.Status = p.To
	}
	if _, ok := c.tasks[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.tasks[t.ID] = t
	c.supersedeFetchesLocked()
}

// supersedeFetchesLocked drops every list request issued before a confirmed
// write, since those responses may predate it.
func (c *Cache) supersedeFetchesLocked() {
	c.applied = c.issued
}

// Close stops the cache from taking further writes
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called
func (c *Cache) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Snapshot returns the tasks in list order
func (c *Cache) Snapshot() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tasks[id])
	}
	return out
}

// Get returns one task
func (c *Cache) Get(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	return t, ok
}

// State returns the move state of a task, or nil if it is not cached
func (c *Cache) State(id string) MoveState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.pending[id]; ok {
		return p
	}
	if t, ok := c.tasks[id]; ok {
		return Settled{Status: t.Status}
	}
	return nil
}

// Len returns the number of cached tasks
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *Cache) indexLocked(id string) int {
	for i, o := range c.order {
		if o == id {
			return i
		}
	}
	return len(c.order)
}
