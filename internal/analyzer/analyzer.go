// Package analyzer turns an article into the structured study material
// (Vietnamese summary, tags, mindmap, flashcards) and applies the admission rule.
package analyzer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iceymoss/seedgen/pkg/fetcher"
	"github.com/iceymoss/seedgen/pkg/llm"
	"github.com/iceymoss/seedgen/pkg/logger"

	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"

	"go.uber.org/zap"
)

// DefaultMinTags 入库所需的最少标签数
const DefaultMinTags = 2

type Flashcard struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Analysis 模型返回的 JSON 结构
type Analysis struct {
	ContentVI   string      `json:"content_vi"`
	Tags        []string    `json:"tags"`
	MindmapCode string      `json:"mindmap_code"`
	Flashcards  []Flashcard `json:"flashcards"`
}

type Analyzer struct {
	gen      llm.Generator
	maxChars int
}

func New(gen llm.Generator, maxChars int) *Analyzer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Analyzer{gen: gen, maxChars: maxChars}
}

// Analyze 调用模型并解析结果
func (a *Analyzer) Analyze(ctx context.Context, article *fetcher.Article) (*Analysis, error) {
	prompt := BuildPrompt(article.Title, article.Text, a.maxChars)

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := Parse(raw)
	if err != nil {
		logger.Warn("model returned invalid JSON", zap.String("url", article.URL), zap.String("raw", raw))
		return nil, err
	}
	return result, nil
}

// StripCodeFences 去掉模型常带的 ```json ... ``` 包裹
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse 清洗后解析 JSON，格式错误直接返回错误，不做降级
func Parse(raw string) (*Analysis, error) {
	var result Analysis
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &result); err != nil {
		return nil, apperr.Wrap(xerr.ErrInvalidJSON, "parse model JSON", err)
	}
	return &result, nil
}

// Admit 标签数达到 minTags 才允许入库
func Admit(a *Analysis, minTags int) bool {
	if a == nil {
		return false
	}
	if minTags < 1 {
		minTags = DefaultMinTags
	}
	return len(a.Tags) >= minTags
}
