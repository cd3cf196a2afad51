package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/pipeline"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/pkg/db/objects"
	"github.com/iceymoss/seedgen/pkg/logger"

	"go.uber.org/zap"
)

const TaskName = "seed:generate"

// GenerateTask 批量抓取、分析并入库
type GenerateTask struct {
	svcCtx *svc.ServiceContext
}

func init() {
	tasks.Register(TaskName, NewGenerateTask)
}

func NewGenerateTask(svcCtx *svc.ServiceContext) core.Task {
	return &GenerateTask{svcCtx: svcCtx}
}

func (t *GenerateTask) Identifier() string {
	return TaskName
}

// GenerateParams 任务参数，未传入的字段使用全局配置
type GenerateParams struct {
	URLs    []string
	Feeds   []string
	Delay   time.Duration
	Trigger string
}

func (t *GenerateTask) Run(ctx context.Context, params map[string]any) error {
	if t.svcCtx == nil || t.svcCtx.Pipeline == nil {
		return fmt.Errorf("%s: pipeline not initialized", TaskName)
	}
	p := t.parseParams(params)

	urls := p.URLs
	if len(p.Feeds) > 0 && t.svcCtx.Feeds != nil {
		urls = t.svcCtx.Feeds.Expand(ctx, urls, p.Feeds)
	}
	if len(urls) == 0 {
		logger.Warn("⚠️ no seed urls configured")
		return nil
	}

	log.Printf("🚀 [Seed] Starting batch: %d urls, delay %s", len(urls), p.Delay)

	ledger := t.svcCtx.Ledger
	var run *objects.SeedRun
	if ledger != nil {
		var err error
		if run, err = ledger.StartRun(ctx, p.Trigger, len(urls)); err != nil {
			logger.Warn("ledger start failed", zap.Error(err))
		}
	}

	// 批次可能已被取消，记录和收尾仍然要写入
	writeCtx := context.WithoutCancel(ctx)
	onOutcome := func(o pipeline.Outcome) {
		if run == nil {
			return
		}
		if err := ledger.RecordOutcome(writeCtx, run.RunID, o); err != nil {
			logger.Warn("ledger record failed", zap.String("url", o.URL), zap.Error(err))
		}
	}

	summary := t.svcCtx.Pipeline.Run(ctx, urls, p.Delay, onOutcome)

	if run != nil {
		if err := ledger.FinishRun(writeCtx, run, summary); err != nil {
			logger.Warn("ledger finish failed", zap.Error(err))
		}
	}

	printSummary(summary)
	return ctx.Err()
}

func (t *GenerateTask) parseParams(params map[string]any) GenerateParams {
	cfg := t.svcCtx.Config
	p := GenerateParams{Trigger: "cli"}
	if cfg != nil {
		p.URLs = cfg.Seed.URLs
		p.Feeds = cfg.Seed.Feeds
		p.Delay = cfg.Seed.Delay
	}

	if v := stringList(params["urls"]); len(v) > 0 {
		p.URLs = v
	}
	if v := stringList(params["feeds"]); len(v) > 0 {
		p.Feeds = v
	}
	if v, ok := params["delay"]; ok {
		if d, ok := toDuration(v); ok {
			p.Delay = d
		}
	}
	if v, ok := params["trigger"].(string); ok && v != "" {
		p.Trigger = v
	}
	return p
}

func printSummary(s *pipeline.Summary) {
	log.Printf("📊 [Seed] Batch done in %s", s.Duration.Round(time.Second))
	log.Printf("   ✅ saved: %d  🚫 rejected: %d  ❌ failed: %d  ⏭️ skipped: %d  (total %d)",
		s.Saved, s.Rejected, s.Failed, s.Skipped, s.Total)
	for _, o := range s.Outcomes {
		if o.Status == pipeline.StatusFailed {
			log.Printf("   ❌ %s [%s]: %s", o.URL, o.Stage, o.Reason)
		}
	}
}

// stringList 兼容 YAML 解析出的 []interface{} 和 API 传入的 []string
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// toDuration 支持 "15s" 这类字符串，或者按秒计的数字
func toDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		return parsed, err == nil
	case int:
		return time.Duration(d) * time.Second, true
	case int64:
		return time.Duration(d) * time.Second, true
	case float64:
		return time.Duration(d * float64(time.Second)), true
	case time.Duration:
		return d, true
	}
	return 0, false
}
