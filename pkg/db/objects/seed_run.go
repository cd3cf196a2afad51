package objects

import "time"

// SeedRun 对应 seed_runs 表，一次批量运行一行
type SeedRun struct {
	ID        uint       `gorm:"primarykey"`
	RunID     string     `gorm:"uniqueIndex;size:36"`
	Trigger   string     `gorm:"size:32;comment:CLI / SYSTEM / YAML / API"`
	Total     int
	Saved     int
	Rejected  int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   *time.Time
}

func (SeedRun) TableName() string {
	return "seed_runs"
}
