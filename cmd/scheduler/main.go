package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/iceymoss/seedgen/internal/conf"
	"github.com/iceymoss/seedgen/internal/server"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/pkg/logger"

	// import anonymously to register tasks to the list
	_ "github.com/iceymoss/seedgen/internal/tasks/catalog"
	_ "github.com/iceymoss/seedgen/internal/tasks/health"
	_ "github.com/iceymoss/seedgen/internal/tasks/seed"

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

	srv := server.NewServer(svcCtx)

	port := cfg.Server.Port
	log.Printf("🌐 Dashboard running at http://localhost%s", port)
	if err := srv.Run(ctx, port); err != nil {
		logger.Error("❌ Server error", zap.Error(err))
	}
}
