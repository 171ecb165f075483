package board

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/existflow/taskflow/internal/api"
	"github.com/existflow/taskflow/internal/metrics"
	"github.com/existflow/taskflow/internal/model"
)

func newTestCoordinator(repo Repository, tasks ...model.Task) (*Coordinator, *Cache, *Recorder) {
	cache := loadedCache(tasks...)
	rec := &Recorder{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	return NewCoordinator(cache, repo, rec, zap.NewNop(), m), cache, rec
}

func TestMoveFailureRollsBackScenario(t *testing.T) {
	repo := &MockRepository{}
	repo.On("UpdateStatus", mock.Anything, "a", model.StatusInProgress).
		Return(model.Task{}, &api.Error{Status: 400, Kind: api.ErrValidation, Message: "nope"})

	c, cache, rec := newTestCoordinator(repo, task("a", model.StatusToDo))

	err := c.Move(context.Background(), DragEnd{TaskID: "a", OverID: string(model.StatusInProgress)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrValidation))

	got, _ := cache.Get("a")
	assert.Equal(t, model.StatusToDo, got.Status)
	assert.Equal(t, 1, rec.Count(LevelError))
	assert.Len(t, rec.Notices(), 1)
	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestMoveSuccessRefetches(t *testing.T) {
	repo := &MockRepository{}
	moved := task("a", model.StatusDone)
	repo.On("UpdateStatus", mock.Anything, "a", model.StatusDone).Return(moved, nil).Once()
	repo.On("List", mock.Anything).Return([]model.Task{moved, task("b", model.StatusToDo), task("new", model.StatusToDo)}, nil).Once()

	c, cache, rec := newTestCoordinator(repo, task("a", model.StatusToDo), task("b", model.StatusToDo))

	require.NoError(t, c.Move(context.Background(), DragEnd{TaskID: "a", OverID: "DONE"}))

	assert.Equal(t, Settled{Status: model.StatusDone}, cache.State("a"))
	assert.Equal(t, []string{"a", "b", "new"}, ids(cache.Snapshot()))
	assert.Empty(t, rec.Notices())
	repo.AssertExpectations(t)
}

func TestStaleListAfterConfirmedMoveIsDropped(t *testing.T) {
	repo := &MockRepository{}
	repo.On("UpdateStatus", mock.Anything, "a", model.StatusDone).Return(task("a", model.StatusDone), nil).Once()
	repo.On("List", mock.Anything).Return(nil, &api.Error{Kind: api.ErrNetwork, Message: "offline"}).Once()

	c, cache, _ := newTestCoordinator(repo, task("a", model.StatusToDo))
	poll := cache.BeginFetch()

	require.NoError(t, c.Move(context.Background(), DragEnd{TaskID: "a", OverID: "DONE"}))

	assert.False(t, cache.Apply(poll, []model.Task{task("a", model.StatusToDo)}))
	assert.Equal(t, Settled{Status: model.StatusDone}, cache.State("a"))
	repo.AssertExpectations(t)
}

func TestUnrecognizedTaskCannotMove(t *testing.T) {
	repo := &MockRepository{}
	c, cache, rec := newTestCoordinator(repo, task("a", "ARCHIVED"))

	mv, err := c.Start(DragEnd{TaskID: "a", OverID: "DONE"})
	assert.Nil(t, mv)
	assert.ErrorIs(t, err, ErrUnrecognized)

	assert.Equal(t, Settled{Status: "ARCHIVED"}, cache.State("a"))
	assert.Empty(t, rec.Notices())
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelfDropIssuesNoRequest(t *testing.T) {
	tests := []struct {
		name string
		ev   DragEnd
	}{
		{"own bucket", DragEnd{TaskID: "a", OverID: "TO_DO"}},
		{"onto itself", DragEnd{TaskID: "a", OverID: "a"}},
		{"onto a card in the same bucket", DragEnd{TaskID: "a", OverID: "b"}},
		{"dropped outside", DragEnd{TaskID: "a", OverID: ""}},
		{"unknown target", DragEnd{TaskID: "a", OverID: "nowhere"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{}
			c, cache, rec := newTestCoordinator(repo, task("a", model.StatusToDo), task("b", model.StatusToDo))
			before := cache.Snapshot()

			mv, err := c.Start(tt.ev)
			require.NoError(t, err)
			assert.Nil(t, mv)
			require.NoError(t, c.Move(context.Background(), tt.ev))

			assert.Equal(t, before, cache.Snapshot())
			assert.Empty(t, rec.Notices())
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDropOntoCardTargetsItsBucket(t *testing.T) {
	repo := &MockRepository{}
	repo.On("UpdateStatus", mock.Anything, "a", model.StatusDone).Return(task("a", model.StatusDone), nil)
	repo.On("List", mock.Anything).Return([]model.Task{task("a", model.StatusDone), task("b", model.StatusDone)}, nil)

	c, cache, _ := newTestCoordinator(repo, task("a", model.StatusToDo), task("b", model.StatusDone))

	mv, err := c.Start(DragEnd{TaskID: "a", OverID: "b"})
	require.NoError(t, err)
	require.NotNil(t, mv)
	assert.Equal(t, model.StatusToDo, mv.From)
	assert.Equal(t, model.StatusDone, mv.To)
	assert.Equal(t, Pending{From: model.StatusToDo, To: model.StatusDone}, cache.State("a"))

	require.NoError(t, mv.Settle(context.Background()))
	assert.ErrorIs(t, mv.Settle(context.Background()), ErrAlreadySettled)
	repo.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestOverlappingMoveRejected(t *testing.T) {
	repo := &MockRepository{}
	c, cache, _ := newTestCoordinator(repo, task("a", model.StatusToDo))

	first, err := c.Start(DragEnd{TaskID: "a", OverID: "IN_PROGRESS"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.Start(DragEnd{TaskID: "a", OverID: "DONE"})
	assert.ErrorIs(t, err, ErrMoveInFlight)
	assert.Nil(t, second)
	assert.Equal(t, Pending{From: model.StatusToDo, To: model.StatusInProgress}, cache.State("a"))

	// dropping back onto the pending target is still an overlapping move
	_, err = c.Start(DragEnd{TaskID: "a", OverID: "IN_PROGRESS"})
	assert.ErrorIs(t, err, ErrMoveInFlight)
}

func TestMoveUnknownTask(t *testing.T) {
	c, _, _ := newTestCoordinator(&MockRepository{}, task("a", model.StatusToDo))

	_, err := c.Start(DragEnd{TaskID: "ghost", OverID: "DONE"})
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRefreshFailureAfterMoveKeepsMove(t *testing.T) {
	repo := &MockRepository{}
	repo.On("UpdateStatus", mock.Anything, "a", model.StatusDone).Return(task("a", model.StatusDone), nil)
	repo.On("List", mock.Anything).Return(nil, &api.Error{Kind: api.ErrNetwork, Message: "down"})

	c, cache, rec := newTestCoordinator(repo, task("a", model.StatusToDo))

	require.NoError(t, c.Move(context.Background(), DragEnd{TaskID: "a", OverID: "DONE"}))
	assert.Equal(t, Settled{Status: model.StatusDone}, cache.State("a"))
	assert.Zero(t, rec.Count(LevelError))
}

// For any start status and target, a failed update leaves the cached status
// exactly where it was before the drag.
func TestProperty_FailedMoveRestoresStatus(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("rollback is exact", prop.ForAll(
		func(fromIdx, toIdx int) bool {
			from := model.Statuses[fromIdx]
			to := model.Statuses[toIdx]

			repo := &MockRepository{}
			repo.On("UpdateStatus", mock.Anything, "a", to).Return(model.Task{}, errors.New("boom"))
			c, cache, rec := newTestCoordinator(repo, task("a", from), task("b", model.StatusDone))
			before := cache.Snapshot()

			err := c.Move(context.Background(), DragEnd{TaskID: "a", OverID: string(to)})
			if from == to {
				return err == nil && len(repo.Calls) == 0 && len(rec.Notices()) == 0
			}
			after := cache.Snapshot()
			return err != nil &&
				statuses(after)["a"] == from &&
				assert.ObjectsAreEqual(before, after) &&
				rec.Count(LevelError) == 1
		},
		gen.IntRange(0, 2),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
