package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"sync"
	"time"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/pkg/constants"

	"github.com/robfig/cron/v3"
)

// DefaultRunTimeout 单次任务最长执行时间，批量任务之间有休眠，给长一点
const DefaultRunTimeout = 65 * time.Minute

type registeredJob struct {
	task   core.Task
	params map[string]any
}

type Scheduler struct {
	cron       *cron.Cron
	svcCtx     *svc.ServiceContext
	Stats      *StatManager
	RunTimeout time.Duration

	mu         sync.RWMutex
	registered map[string]registeredJob
}

func NewScheduler(svcCtx *svc.ServiceContext) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		svcCtx:     svcCtx,
		Stats:      NewStatManager(),
		RunTimeout: DefaultRunTimeout,
		registered: make(map[string]registeredJob),
	}
}

// AddJob 添加定时任务
func (s *Scheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	taskInstance, err := tasks.GetTask(taskName, s.svcCtx)
	if err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.runTaskWithStats(uniqueJobName, taskInstance, params)
	})
	if err != nil {
		return err
	}

	next := s.cron.Entry(entryID).Schedule.Next(time.Now())
	s.Stats.Set(uniqueJobName, &JobStats{
		Name:        uniqueJobName,
		CronExpr:    cronExpr,
		Status:      StatusIdle,
		LastResult:  "Pending",
		Source:      source,
		NextRunTime: next.Format(timeLayout),
	})

	s.mu.Lock()
	s.registered[uniqueJobName] = registeredJob{task: taskInstance, params: params}
	s.mu.Unlock()
	return nil
}

// ErrJobRunning 同一任务上一次执行尚未结束
var ErrJobRunning = errors.New("job is already running")

// runTaskWithStats cron 触发入口，上一次还在跑时直接跳过
func (s *Scheduler) runTaskWithStats(name string, task core.Task, params map[string]any) {
	if !s.Stats.TryStart(name, time.Now()) {
		log.Printf("⏭️ [Schedule] Skip %s: previous run still in progress", name)
		return
	}
	s.execute(name, task, params)
}

// execute 执行并记录状态，调用前必须已经 TryStart
func (s *Scheduler) execute(name string, task core.Task, params map[string]any) {
	log.Printf("🚀 [Schedule] Starting job: %s", name)

	ctx, cancel := context.WithTimeout(context.Background(), s.RunTimeout)
	defer cancel()

	err := task.Run(ctx, params)

	s.Stats.Update(name, func(st *JobStats) {
		if err != nil {
			st.LastResult = fmt.Sprintf("Error: %v", err)
			st.Status = StatusError
		} else {
			st.LastResult = "Success"
			st.Status = StatusIdle
		}
	})
	if err != nil {
		log.Printf("❌ [Schedule] Job failed: %s, err: %v", name, err)
	} else {
		log.Printf("✅ [Schedule] Job finished: %s", name)
	}
}

// ManualRun 手动触发。未进入调度的已注册任务也可以触发，override 覆盖默认参数
func (s *Scheduler) ManualRun(name string, override map[string]any) error {
	s.mu.Lock()
	reg, ok := s.registered[name]
	if !ok {
		task, err := tasks.GetTask(name, s.svcCtx)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("job not found")
		}
		reg = registeredJob{task: task}
		s.registered[name] = reg
		s.Stats.Set(name, &JobStats{
			Name:       name,
			CronExpr:   "manual",
			Status:     StatusIdle,
			LastResult: "Pending",
			Source:     string(constants.TaskTypeAPI),
		})
	}
	s.mu.Unlock()

	if !s.Stats.TryStart(name, time.Now()) {
		return ErrJobRunning
	}

	params := make(map[string]any, len(reg.params)+len(override))
	maps.Copy(params, reg.params)
	maps.Copy(params, override)

	go s.execute(name, reg.task, params)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
