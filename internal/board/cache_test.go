package board

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/taskflow/internal/model"
)

func TestCacheDropsStaleFetch(t *testing.T) {
	c := NewCache()
	older := c.BeginFetch()
	newer := c.BeginFetch()

	assert.True(t, c.Apply(newer, []model.Task{task("a", model.StatusDone)}))
	assert.False(t, c.Apply(older, []model.Task{task("a", model.StatusToDo), task("b", model.StatusToDo)}))

	assert.Equal(t, []string{"a"}, ids(c.Snapshot()))
	assert.Equal(t, Settled{Status: model.StatusDone}, c.State("a"))
}

func TestCacheApplyOverlaysPendingMove(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo), task("b", model.StatusToDo))
	from, err := c.BeginMove("a", model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusToDo, from)

	// a list fetched before the server saw the move
	c.Apply(c.BeginFetch(), []model.Task{task("a", model.StatusToDo), task("b", model.StatusDone)})

	got, _ := c.Get("a")
	assert.Equal(t, model.StatusInProgress, got.Status)
	got, _ = c.Get("b")
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, Pending{From: model.StatusToDo, To: model.StatusInProgress}, c.State("a"))
}

func TestCacheMoveRollbackIsExact(t *testing.T) {
	c := loadedCache(task("a", model.StatusDone))

	_, err := c.BeginMove("a", model.StatusToDo)
	require.NoError(t, err)
	_, err = c.BeginMove("a", model.StatusInProgress)
	assert.ErrorIs(t, err, ErrMoveInFlight)

	c.SettleMove("a", false)
	assert.Equal(t, Settled{Status: model.StatusDone}, c.State("a"))

	_, err = c.BeginMove("missing", model.StatusToDo)
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestCacheRemoveAndRestore(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo), task("b", model.StatusToDo), task("c", model.StatusDone))

	require.NoError(t, c.BeginRemove("b"))
	assert.Equal(t, []string{"a", "c"}, ids(c.Snapshot()))
	assert.ErrorIs(t, c.BeginRemove("b"), ErrRemoveInFlight)

	// a stale list still containing b must not bring it back
	c.Apply(c.BeginFetch(), []model.Task{task("a", model.StatusToDo), task("b", model.StatusToDo), task("c", model.StatusDone)})
	assert.Equal(t, []string{"a", "c"}, ids(c.Snapshot()))

	c.SettleRemove("b", false)
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Snapshot()))

	require.NoError(t, c.BeginRemove("a"))
	c.SettleRemove("a", true)
	assert.Equal(t, []string{"b", "c"}, ids(c.Snapshot()))
	assert.Nil(t, c.State("a"))
}

func TestCacheRemoveBlockedByMove(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo))
	_, err := c.BeginMove("a", model.StatusDone)
	require.NoError(t, err)

	assert.ErrorIs(t, c.BeginRemove("a"), ErrMoveInFlight)
}

func TestCacheMerge(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo))

	updated := task("a", model.StatusToDo)
	updated.Title = "Renamed"
	c.Merge(updated)
	c.Merge(task("b", model.StatusDone))

	got, _ := c.Get("a")
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"a", "b"}, ids(c.Snapshot()))
}

func TestCacheDropsFetchIssuedBeforeConfirmedWrite(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo), task("b", model.StatusToDo), task("c", model.StatusToDo))

	beforeMove := c.BeginFetch()
	_, err := c.BeginMove("a", model.StatusDone)
	require.NoError(t, err)
	c.SettleMove("a", true)
	assert.False(t, c.Apply(beforeMove, []model.Task{task("a", model.StatusToDo), task("b", model.StatusToDo), task("c", model.StatusToDo)}))
	assert.Equal(t, Settled{Status: model.StatusDone}, c.State("a"))

	beforeMerge := c.BeginFetch()
	renamed := task("b", model.StatusToDo)
	renamed.Title = "Renamed"
	c.Merge(renamed)
	assert.False(t, c.Apply(beforeMerge, []model.Task{task("a", model.StatusDone), task("b", model.StatusToDo), task("c", model.StatusToDo)}))
	got, _ := c.Get("b")
	assert.Equal(t, "Renamed", got.Title)

	beforeRemove := c.BeginFetch()
	require.NoError(t, c.BeginRemove("c"))
	c.SettleRemove("c", true)
	assert.False(t, c.Apply(beforeRemove, []model.Task{task("a", model.StatusDone), renamed, task("c", model.StatusToDo)}))
	assert.Equal(t, []string{"a", "b"}, ids(c.Snapshot()))

	// a list requested after the writes still applies
	assert.True(t, c.Apply(c.BeginFetch(), []model.Task{task("a", model.StatusDone), renamed}))
}

func TestCacheClosedIgnoresWrites(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo))
	seq := c.BeginFetch()
	_, err := c.BeginMove("a", model.StatusDone)
	require.NoError(t, err)

	c.Close()

	assert.False(t, c.Apply(seq, nil))
	c.SettleMove("a", false)
	c.Merge(task("z", model.StatusToDo))
	_, err = c.BeginMove("a", model.StatusToDo)
	assert.ErrorIs(t, err, ErrClosed)

	got, _ := c.Get("a")
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, 1, c.Len())
}

func TestCacheConcurrentReadersSeeWholeTasks(t *testing.T) {
	c := loadedCache(task("a", model.StatusToDo))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if _, err := c.BeginMove("a", model.StatusDone); err == nil {
				c.SettleMove("a", false)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			switch st := c.State("a").(type) {
			case Settled:
				assert.Equal(t, model.StatusToDo, st.Status)
			case Pending:
				assert.Equal(t, Pending{From: model.StatusToDo, To: model.StatusDone}, st)
			default:
				t.Errorf("unexpected state %T", st)
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, Settled{Status: model.StatusToDo}, c.State("a"))
}
