package health

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
)

const TaskName = "sys:rest_ping"

// Pinger 数据库 REST 接口的探活
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingTask 定时检查数据库 REST 接口是否可用
type PingTask struct {
	pinger Pinger
}

// 包被 import 时自动挂载，每 5 分钟执行一次
func init() {
	tasks.RegisterAuto(TaskName, "@every 5m", NewPingTask, map[string]any{"timeout": 5})
}

func NewPingTask(svcCtx *svc.ServiceContext) core.Task {
	t := &PingTask{}
	if svcCtx != nil && svcCtx.Store != nil {
		t.pinger = svcCtx.Store
	}
	return t
}

func (t *PingTask) Identifier() string {
	return TaskName
}

func (t *PingTask) Run(ctx context.Context, params map[string]any) error {
	if t.pinger == nil {
		return fmt.Errorf("%s: rest client not configured", TaskName)
	}

	timeout := 5 * time.Second
	switch v := params["timeout"].(type) {
	case int:
		timeout = time.Duration(v) * time.Second
	case float64:
		timeout = time.Duration(v * float64(time.Second))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Printf("📡 [Ping] Checking database REST endpoint ...")
	if err := t.pinger.Ping(ctx); err != nil {
		return err
	}
	log.Printf("✅ [Ping] REST endpoint reachable")
	return nil
}
