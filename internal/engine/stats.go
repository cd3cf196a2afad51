package engine

import (
	"sort"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	StatusIdle    = "Idle"
	StatusRunning = "Running"
	StatusError   = "Error"
)

// JobStats 任务运行时状态
type JobStats struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr"`
	Status      string `json:"status"`      // Idle, Running, Error
	LastRunTime string `json:"last_run"`    // 格式化后的时间
	NextRunTime string `json:"next_run"`    // 格式化后的时间
	LastResult  string `json:"last_result"` // 成功或错误信息
	RunCount    int64  `json:"run_count"`
	Source      string `json:"source"` // SYSTEM / YAML / API
}

// StatManager 并发安全的状态表，对外只暴露副本
type StatManager struct {
	stats map[string]*JobStats
	mu    sync.RWMutex
}

func NewStatManager() *StatManager {
	return &StatManager{
		stats: make(map[string]*JobStats),
	}
}

func (m *StatManager) Set(name string, stat *JobStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = stat
}

// Update 在锁内修改状态，任务不存在时返回 false
func (m *StatManager) Update(name string, fn func(s *JobStats)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[name]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// TryStart 任务未在运行时标记为 Running 并返回 true，同一任务不会重叠执行
func (m *StatManager) TryStart(name string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[name]
	if !ok || s.Status == StatusRunning {
		return false
	}
	s.Status = StatusRunning
	s.LastRunTime = now.Format(timeLayout)
	s.RunCount++
	return true
}

func (m *StatManager) Get(name string) (JobStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[name]
	if !ok {
		return JobStats{}, false
	}
	return *s, true
}

func (m *StatManager) GetAll() []JobStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]JobStats, 0, len(m.stats))
	for _, s := range m.stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
