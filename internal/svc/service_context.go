package svc

import (
	"context"
	"fmt"
	"io"

	"github.com/iceymoss/seedgen/internal/analyzer"
	"github.com/iceymoss/seedgen/internal/conf"
	"github.com/iceymoss/seedgen/internal/pipeline"
	"github.com/iceymoss/seedgen/internal/repo"
	"github.com/iceymoss/seedgen/pkg/cache"
	"github.com/iceymoss/seedgen/pkg/db"
	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/feeds"
	"github.com/iceymoss/seedgen/pkg/fetcher"
	"github.com/iceymoss/seedgen/pkg/llm"
	"github.com/iceymoss/seedgen/pkg/logger"
	"github.com/iceymoss/seedgen/pkg/supabase"
	"github.com/iceymoss/seedgen/pkg/xerr"

	"go.uber.org/zap"
)

// ServiceContext 任务运行所需的依赖集合，启动时构建一次
type ServiceContext struct {
	Config    *conf.Config
	Generator llm.Generator
	Lister    llm.ModelLister // 仅 gemini 支持
	Fetcher   *fetcher.Fetcher
	Feeds     *feeds.Expander
	Store     *supabase.Client
	SkipCache cache.SkipCache
	Ledger    *repo.LedgerRepo
	Pipeline  *pipeline.Pipeline

	closers []io.Closer
}

// NewLLMContext 只构建模型客户端 (listmodels 使用)
func NewLLMContext(ctx context.Context, c *conf.Config) (*ServiceContext, error) {
	if err := c.ValidateLLM(); err != nil {
		return nil, err
	}
	s := &ServiceContext{Config: c}
	if err := s.initLLM(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewServiceContext 构建完整依赖
func NewServiceContext(ctx context.Context, c *conf.Config) (*ServiceContext, error) {
	if err := c.ValidateSupabase(); err != nil {
		return nil, err
	}
	s, err := NewLLMContext(ctx, c)
	if err != nil {
		return nil, err
	}

	s.Fetcher = fetcher.New(
		fetcher.WithTimeout(c.Fetcher.Timeout),
		fetcher.WithUserAgent(c.Fetcher.UserAgent),
	)
	s.Feeds = feeds.NewExpander(c.Fetcher.UserAgent)
	s.Store = supabase.New(c.Supabase.URL, c.Supabase.Key, supabase.WithTable(c.Supabase.Table))

	if c.Seed.UseSkipCache {
		if c.Redis.Addr != "" {
			rdb := db.NewRedis(c.Redis.Addr, c.Redis.Password, c.Redis.DB)
			s.closers = append(s.closers, rdb)
			s.SkipCache = cache.NewRedisCache(rdb, cache.DefaultTTL)
		} else {
			s.SkipCache = cache.NewMemoryCache(cache.DefaultTTL)
		}
	}

	if c.Ledger.DSN != "" {
		s.initLedger()
	}

	opts := []pipeline.Option{pipeline.WithMinTags(c.Seed.MinTags)}
	if s.SkipCache != nil {
		opts = append(opts, pipeline.WithSkipCache(s.SkipCache))
	}
	if c.Seed.SkipExisting {
		opts = append(opts, pipeline.WithExistenceCheck(s.Store))
	}
	s.Pipeline = pipeline.New(s.Fetcher, analyzer.New(s.Generator, c.Seed.MaxChars), s.Store, opts...)
	return s, nil
}

// initLedger 运行记录是可选项，打开失败只告警，不影响批量任务
func (s *ServiceContext) initLedger() {
	c := s.Config.Ledger
	conn, err := db.Open(c.Driver, c.DSN)
	if err != nil {
		logger.Warn("⚠️ ledger disabled: open failed", zap.String("driver", c.Driver), zap.Error(err))
		return
	}
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Warn("⚠️ ledger disabled", zap.String("driver", c.Driver), zap.Error(err))
		return
	}
	ledger := repo.NewLedgerRepo(conn)
	if err := ledger.Migrate(); err != nil {
		_ = sqlDB.Close()
		logger.Warn("⚠️ ledger disabled: migrate failed", zap.String("driver", c.Driver), zap.Error(err))
		return
	}
	s.Ledger = ledger
	s.closers = append(s.closers, sqlDB)
}

func (s *ServiceContext) initLLM(ctx context.Context) error {
	c := s.Config.LLM
	switch c.Provider {
	case "", "gemini":
		g, err := llm.NewGemini(ctx, c.ApiKey, c.Model, c.Temperature)
		if err != nil {
			return err
		}
		s.Generator = g
		s.Lister = g
		s.closers = append(s.closers, g)
	case "openai":
		o, err := llm.NewOpenAI(c.ApiKey, c.BaseURL, c.Model, c.Temperature)
		if err != nil {
			return err
		}
		s.Generator = o
	default:
		return apperr.New(xerr.CONFIG_ERROR, fmt.Sprintf("unsupported llm provider %q", c.Provider))
	}
	return nil
}

// Close 释放客户端连接
func (s *ServiceContext) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}
