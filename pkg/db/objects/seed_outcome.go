package objects

import "time"

// SeedOutcome 对应 seed_outcomes 表，记录每个 URL 的处理结果
type SeedOutcome struct {
	ID         uint      `gorm:"primarykey"`
	RunID      string    `gorm:"index;size:36"`
	URL        string    `gorm:"index;size:1024;not null"`
	Title      string    `gorm:"size:512"`
	Tags       []string  `gorm:"serializer:json;comment:模型返回的标签"`
	Status     string    `gorm:"size:16;index"` // saved, rejected, failed, skipped
	Stage      string    `gorm:"size:16"`
	ErrorMsg   string    `gorm:"type:text"`
	DurationMs int64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (SeedOutcome) TableName() string {
	return "seed_outcomes"
}
