package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/pkg/constants"
)

type countingTask struct {
	runs    *atomic.Int32
	err     error
	gotSeed atomic.Value
}

func (t *countingTask) Run(_ context.Context, params map[string]any) error {
	t.runs.Add(1)
	if v, ok := params["seed"]; ok {
		t.gotSeed.Store(v)
	}
	return t.err
}

func (t *countingTask) Identifier() string { return "test:counting" }

func register(name string, task *countingTask) {
	tasks.Register(name, func(*svc.ServiceContext) core.Task { return task })
}

func waitStatus(t *testing.T, s *Scheduler, name, status string) JobStats {
	t.Helper()
	var st JobStats
	require.Eventually(t, func() bool {
		var ok bool
		st, ok = s.Stats.Get(name)
		return ok && st.Status == status && st.RunCount > 0
	}, 2*time.Second, 10*time.Millisecond)
	return st
}

func TestAddJobAndManualRun(t *testing.T) {
	task := &countingTask{runs: &atomic.Int32{}}
	register("test:engine_ok", task)

	s := NewScheduler(nil)
	require.NoError(t, s.AddJob("0 0 3 * * *", "test:engine_ok", "nightly", map[string]any{"seed": "a"}, string(constants.TaskTypeYAML)))

	st, ok := s.Stats.Get("nightly")
	require.True(t, ok)
	assert.Equal(t, "Pending", st.LastResult)
	assert.NotEmpty(t, st.NextRunTime)
	assert.Equal(t, string(constants.TaskTypeYAML), st.Source)

	require.NoError(t, s.ManualRun("nightly", map[string]any{"seed": "b"}))
	st = waitStatus(t, s, "nightly", "Idle")
	assert.Equal(t, "Success", st.LastResult)
	assert.Equal(t, int32(1), task.runs.Load())
	assert.Equal(t, "b", task.gotSeed.Load())
}

func TestManualRunUnscheduledTask(t *testing.T) {
	task := &countingTask{runs: &atomic.Int32{}, err: errors.New("boom")}
	register("test:engine_fail", task)

	s := NewScheduler(nil)
	require.NoError(t, s.ManualRun("test:engine_fail", nil))

	st := waitStatus(t, s, "test:engine_fail", "Error")
	assert.Equal(t, "Error: boom", st.LastResult)
	assert.Equal(t, "manual", st.CronExpr)
	assert.Equal(t, string(constants.TaskTypeAPI), st.Source)
}

func TestManualRunUnknown(t *testing.T) {
	s := NewScheduler(nil)
	assert.Error(t, s.ManualRun("test:nope", nil))
	_, ok := s.Stats.Get("test:nope")
	assert.False(t, ok)
}

func TestAddJobBadCron(t *testing.T) {
	register("test:engine_cron", &countingTask{runs: &atomic.Int32{}})
	s := NewScheduler(nil)
	assert.Error(t, s.AddJob("not a cron", "test:engine_cron", "bad", nil, string(constants.TaskTypeYAML)))
	assert.Empty(t, s.Stats.GetAll())
}

func TestStatsGetAllSorted(t *testing.T) {
	m := NewStatManager()
	m.Set("b", &JobStats{Name: "b"})
	m.Set("a", &JobStats{Name: "a"})
	assert.True(t, m.Update("a", func(s *JobStats) { s.RunCount = 3 }))
	assert.False(t, m.Update("c", func(*JobStats) {}))

	all := m.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, int64(3), all[0].RunCount)
}

type blockingTask struct {
	runs    atomic.Int32
	release chan struct{}
}

func (t *blockingTask) Run(ctx context.Context, _ map[string]any) error {
	t.runs.Add(1)
	select {
	case <-t.release:
	case <-ctx.Done():
	}
	return nil
}

func (t *blockingTask) Identifier() string { return "test:blocking" }

func TestRunningJobIsNotStartedTwice(t *testing.T) {
	task := &blockingTask{release: make(chan struct{})}
	tasks.Register("test:engine_blocking", func(*svc.ServiceContext) core.Task { return task })

	s := NewScheduler(nil)
	require.NoError(t, s.AddJob("@every 1h", "test:engine_blocking", "batch", nil, string(constants.TaskTypeYAML)))

	require.NoError(t, s.ManualRun("batch", nil))
	assert.ErrorIs(t, s.ManualRun("batch", nil), ErrJobRunning)

	// cron 触发落在执行期间也直接跳过
	s.runTaskWithStats("batch", task, nil)

	close(task.release)
	st := waitStatus(t, s, "batch", StatusIdle)
	assert.Equal(t, int64(1), st.RunCount)
	assert.Equal(t, int32(1), task.runs.Load())

	// 结束后可以再次触发
	task.release = make(chan struct{})
	close(task.release)
	require.NoError(t, s.ManualRun("batch", nil))
	require.Eventually(t, func() bool { return task.runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestTryStart(t *testing.T) {
	m := NewStatManager()
	assert.False(t, m.TryStart("missing", time.Now()))

	m.Set("a", &JobStats{Name: "a", Status: StatusError})
	assert.True(t, m.TryStart("a", time.Now()))
	assert.False(t, m.TryStart("a", time.Now()))

	st, _ := m.Get("a")
	assert.Equal(t, StatusRunning, st.Status)
	assert.Equal(t, int64(1), st.RunCount)
}
