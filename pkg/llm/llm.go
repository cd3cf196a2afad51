// Package llm wraps the generative-AI providers used for article analysis.
package llm

import (
	"context"
	"slices"
)

// MethodGenerateContent 支持内容生成的模型能力标识
const MethodGenerateContent = "generateContent"

// Generator 单轮 prompt -> 文本
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelLister 列出账号下可用的模型
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"display_name"`
	SupportedGenerationMethods []string `json:"supported_generation_methods"`
}

// FilterGenerateContent 只保留支持 generateContent 的模型，保持原有顺序
func FilterGenerateContent(models []ModelInfo) []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		if slices.Contains(m.SupportedGenerationMethods, MethodGenerateContent) {
			out = append(out, m)
		}
	}
	return out
}
