package core

import (
	"context"

	"github.com/iceymoss/seedgen/internal/svc"
)

// TaskCreator 定义任务构造函数签名
type TaskCreator func(svcCtx *svc.ServiceContext) Task

// Task 任务接口
type Task interface {
	// Run 执行任务逻辑
	// params 是从配置文件或 API 传入的动态参数，为空时使用全局配置
	Run(ctx context.Context, params map[string]any) error

	// Identifier 返回任务唯一标识 (用于日志)
	Identifier() string
}
