package tasks

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/pkg/constants"
)

// Scheduler 调度器需要实现的最小接口
type Scheduler interface {
	AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error
}

// ApplyAutoJobs 把代码里注册的自动任务挂到调度器上
func ApplyAutoJobs(sched Scheduler) {
	mu.RLock()
	defer mu.RUnlock()

	for _, job := range autoJobs {
		err := sched.AddJob(job.Cron, job.Name, job.Name, job.Params, string(constants.TaskTypeSYSTEM))
		if err != nil {
			log.Printf("❌ [AutoLoad] Failed to load %s: %v", job.Name, err)
		} else {
			log.Printf("✅ [AutoLoad] Loaded: %s [%s]", job.Name, job.Cron)
		}
	}
}

// AutoJob 自启动任务
type AutoJob struct {
	Name    string           // 任务唯一标识
	Cron    string           // Cron 表达式
	Creator core.TaskCreator // 构造函数
	Params  map[string]any   // 默认参数
}

var (
	registry = make(map[string]core.TaskCreator) // 普通任务 (配置文件 / 命令行 / API 调用)
	autoJobs = make([]*AutoJob, 0)               // 自动任务
	mu       sync.RWMutex
)

// Register 注册普通任务
func Register(name string, creator core.TaskCreator) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = creator
}

// RegisterAuto 注册并随调度器自动启动，同时也可以手动触发
func RegisterAuto(name string, cron string, creator core.TaskCreator, defaultParams map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	registry[name] = creator
	autoJobs = append(autoJobs, &AutoJob{
		Name:    name,
		Cron:    cron,
		Creator: creator,
		Params:  defaultParams,
	})
}

// GetTask 按名称创建任务实例
func GetTask(name string, svcCtx *svc.ServiceContext) (core.Task, error) {
	mu.RLock()
	defer mu.RUnlock()
	creator, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("task implementation '%s' not found", name)
	}
	return creator(svcCtx), nil
}

// Names 已注册的任务名，按字母排序
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
