package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iceymoss/seedgen/internal/pipeline"
	"github.com/iceymoss/seedgen/pkg/db/objects"
)

// LedgerRepo 记录批量运行及每个 URL 的结果
type LedgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Migrate 自动迁移表结构
func (r *LedgerRepo) Migrate() error {
	return r.db.AutoMigrate(&objects.SeedRun{}, &objects.SeedOutcome{})
}

// StartRun 开始一次运行
func (r *LedgerRepo) StartRun(ctx context.Context, trigger string, total int) (*objects.SeedRun, error) {
	run := &objects.SeedRun{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Total:     total,
		StartTime: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// RecordOutcome 写入单个 URL 的结果
func (r *LedgerRepo) RecordOutcome(ctx context.Context, runID string, o pipeline.Outcome) error {
	row := &objects.SeedOutcome{
		RunID:      runID,
		URL:        o.URL,
		Title:      o.Title,
		Tags:       o.Tags,
		Status:     string(o.Status),
		Stage:      string(o.Stage),
		ErrorMsg:   o.Reason,
		DurationMs: o.Duration.Milliseconds(),
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// FinishRun 运行结束，回写统计
func (r *LedgerRepo) FinishRun(ctx context.Context, run *objects.SeedRun, s *pipeline.Summary) error {
	now := time.Now()
	run.EndTime = &now
	run.Saved = s.Saved
	run.Rejected = s.Rejected
	run.Failed = s.Failed
	run.Skipped = s.Skipped
	return r.db.WithContext(ctx).Save(run).Error
}

// RecentOutcomes 最近的处理结果，按时间倒序
func (r *LedgerRepo) RecentOutcomes(ctx context.Context, limit int) ([]*objects.SeedOutcome, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var list []*objects.SeedOutcome
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}
