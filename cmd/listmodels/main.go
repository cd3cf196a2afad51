package main

import (
	"context"
	"fmt"

	"github.com/iceymoss/seedgen/internal/conf"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/internal/tasks/catalog"
	"github.com/iceymoss/seedgen/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// 出错时只打印，不改变退出码
func main() {
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️ .env not loaded, using process environment", zap.Error(err))
	}

	cfg, err := conf.LoadConfig(conf.Path())
	if err != nil {
		fmt.Println("❌ Error:", err)
		return
	}

	ctx := context.Background()
	svcCtx, err := svc.NewLLMContext(ctx, cfg)
	if err != nil {
		fmt.Println("❌ Error:", err)
		return
	}
	defer svcCtx.Close()

	task, err := tasks.GetTask(catalog.TaskName, svcCtx)
	if err != nil {
		fmt.Println("❌ Error:", err)
		return
	}
	if err := task.Run(ctx, nil); err != nil {
		fmt.Println("❌ Error:", err)
	}
}
