// Package pipeline runs the per-URL seeding flow: fetch -> analyze -> admit -> persist.
// Each URL is handled independently; a failure on one URL never stops the batch.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/iceymoss/seedgen/internal/analyzer"
	"github.com/iceymoss/seedgen/pkg/cache"
	"github.com/iceymoss/seedgen/pkg/fetcher"
	"github.com/iceymoss/seedgen/pkg/logger"
	"github.com/iceymoss/seedgen/pkg/supabase"
)

type Status string

const (
	StatusSaved    Status = "saved"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

type Stage string

const (
	StageCache   Stage = "cache"
	StageExists  Stage = "exists"
	StageFetch   Stage = "fetch"
	StageAnalyze Stage = "analyze"
	StageAdmit   Stage = "admit"
	StagePersist Stage = "persist"
)

type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Article, error)
}

type ArticleAnalyzer interface {
	Analyze(ctx context.Context, article *fetcher.Article) (*analyzer.Analysis, error)
}

type DocumentStore interface {
	Insert(ctx context.Context, doc *supabase.Document) error
}

// ExistenceChecker 查询 URL 是否已经入库
type ExistenceChecker interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// Outcome 单个 URL 的处理结果
type Outcome struct {
	URL      string        `json:"url"`
	Title    string        `json:"title,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
	Status   Status        `json:"status"`
	Stage    Stage         `json:"stage"`
	Reason   string        `json:"reason,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Summary 批量运行统计
type Summary struct {
	Total    int           `json:"total"`
	Saved    int           `json:"saved"`
	Rejected int           `json:"rejected"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Outcomes []Outcome     `json:"outcomes"`
	Duration time.Duration `json:"duration"`
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusSaved:
		s.Saved++
	case StatusRejected:
		s.Rejected++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}
}

type Pipeline struct {
	fetcher  ArticleFetcher
	analyzer ArticleAnalyzer
	store    DocumentStore
	minTags  int
	skips    cache.SkipCache
	existing ExistenceChecker
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Pipeline)

func WithMinTags(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.minTags = n
		}
	}
}

// WithSkipCache 跳过近期已被拒绝的 URL
func WithSkipCache(c cache.SkipCache) Option {
	return func(p *Pipeline) {
		p.skips = c
	}
}

// WithExistenceCheck 跳过数据库中已存在的 URL
func WithExistenceCheck(c ExistenceChecker) Option {
	return func(p *Pipeline) {
		p.existing = c
	}
}

func New(f ArticleFetcher, a ArticleAnalyzer, s DocumentStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:  f,
		analyzer: a,
		store:    s,
		minTags:  analyzer.DefaultMinTags,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 处理单个 URL，所有错误都收敛在 Outcome 中
func (p *Pipeline) Process(ctx context.Context, url string) Outcome {
	start := time.Now()
	o := p.process(ctx, url)
	o.Duration = time.Since(start)
	return o
}

func (p *Pipeline) process(ctx context.Context, url string) Outcome {
	if p.skips != nil {
		entry, ok, err := p.skips.Get(ctx, url)
		if err != nil {
			logger.Warn("skip cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if ok {
			log.Printf("⏭️ [Seed] Previously rejected: %q (%s)", entry.Title, entry.Reason)
			return Outcome{URL: url, Title: entry.Title, Tags: entry.Tags, Status: StatusSkipped, Stage: StageCache, Reason: entry.Reason}
		}
	}

	if p.existing != nil {
		exists, err := p.existing.Exists(ctx, url)
		if err != nil {
			logger.Warn("existence check failed", zap.String("url", url), zap.Error(err))
		} else if exists {
			log.Printf("📚 [Seed] Already in database: %s", url)
			return Outcome{URL: url, Status: StatusSkipped, Stage: StageExists, Reason: "already in database"}
		}
	}

	log.Printf("🕷️ [Seed] Fetching: %s", url)
	article, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Error("⚠️ fetch failed (site may block bots)", zap.String("url", url), zap.Error(err))
		return Outcome{URL: url, Status: StatusFailed, Stage: StageFetch, Err: err, Reason: err.Error()}
	}

	log.Printf("🤖 [Seed] Analyzing: %q", article.Title)
	analysis, err := p.analyzer.Analyze(ctx, article)
	if err != nil {
		logger.Error("❌ AI error", zap.String("url", url), zap.Error(err))
		return Outcome{URL: url, Title: article.Title, Status: StatusFailed, Stage: StageAnalyze, Err: err, Reason: err.Error()}
	}

	tagCount := len(analysis.Tags)
	log.Printf("🧐 [Seed] AI found %d tags: %v", tagCount, analysis.Tags)

	if !analyzer.Admit(analysis, p.minTags) {
		reason := fmt.Sprintf("only %d tags (need >= %d)", tagCount, p.minTags)
		log.Printf("🚫 [Seed] Rejected %q: %s", article.Title, reason)
		if p.skips != nil {
			entry := &cache.SkipEntry{Title: article.Title, Tags: analysis.Tags, Reason: reason}
			if err := p.skips.Put(ctx, url, entry); err != nil {
				logger.Warn("skip cache write failed", zap.String("url", url), zap.Error(err))
			}
		}
		return Outcome{URL: url, Title: article.Title, Tags: analysis.Tags, Status: StatusRejected, Stage: StageAdmit, Reason: reason}
	}

	if err := p.store.Insert(ctx, NewDocument(article, analysis)); err != nil {
		logger.Error("⚠️ database save failed", zap.String("url", url), zap.Error(err))
		return Outcome{URL: url, Title: article.Title, Tags: analysis.Tags, Status: StatusFailed, Stage: StagePersist, Err: err, Reason: err.Error()}
	}

	log.Printf("✅ [Seed] Approved & saved: %s", article.Title)
	return Outcome{URL: url, Title: article.Title, Tags: analysis.Tags, Status: StatusSaved, Stage: StagePersist}
}

// Run 顺序处理所有 URL，两次之间固定休眠 delay (最后一个之后不休眠)
func (p *Pipeline) Run(ctx context.Context, urls []string, delay time.Duration, onOutcome func(Outcome)) *Summary {
	start := time.Now()
	s := &Summary{Total: len(urls)}

	for i, url := range urls {
		if ctx.Err() != nil {
			logger.Warn("⚠️ batch cancelled", zap.Int("remaining", len(urls)-i))
			break
		}

		log.Printf("[%d/%d] 🔍 %s", i+1, len(urls), url)
		o := p.Process(ctx, url)
		s.add(o)
		if onOutcome != nil {
			onOutcome(o)
		}

		if i < len(urls)-1 && delay > 0 {
			log.Printf("⏳ [Seed] Sleeping %s...", delay)
			if err := p.sleep(ctx, delay); err != nil {
				logger.Warn("⚠️ batch cancelled", zap.Int("remaining", len(urls)-i-1))
				break
			}
		}
	}

	s.Duration = time.Since(start)
	return s
}

// NewDocument 组装入库数据，tags 原样透传
func NewDocument(article *fetcher.Article, a *analyzer.Analysis) *supabase.Document {
	var cards []supabase.Flashcard
	if a.Flashcards != nil {
		cards = make([]supabase.Flashcard, 0, len(a.Flashcards))
		for _, f := range a.Flashcards {
			cards = append(cards, supabase.Flashcard{Q: f.Q, A: f.A})
		}
	}
	return &supabase.Document{
		Topic:       article.Title,
		ContentVI:   a.ContentVI,
		MindmapCode: a.MindmapCode,
		Flashcards:  cards,
		Tags:        a.Tags,
		URL:         article.URL,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
