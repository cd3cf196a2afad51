package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/iceymoss/seedgen/internal/conf"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/internal/tasks/seed"
	"github.com/iceymoss/seedgen/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️ .env not loaded, using process environment", zap.Error(err))
	}

	cfg, err := conf.LoadConfig(conf.Path())
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcCtx, err := svc.NewServiceContext(ctx, cfg)
	if err != nil {
		logger.Fatal("❌ init services error", zap.Error(err))
	}
	defer svcCtx.Close()

	task, err := tasks.GetTask(seed.TaskName, svcCtx)
	if err != nil {
		logger.Fatal("❌ task error", zap.Error(err))
	}

	if err := task.Run(ctx, map[string]any{"trigger": "CLI"}); err != nil {
		logger.Error("❌ batch interrupted", zap.Error(err))
		return
	}
	log.Printf("🏁 Done")
}
