package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

// OpenAIClient OpenAI 兼容协议 (DeepSeek 等)，通过 LangChain 调用
type OpenAIClient struct {
	llm         llms.Model
	temperature float64
}

func NewOpenAI(apiKey, baseURL, model string, temperature float64) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, apperr.Wrap(xerr.ErrModelCall, "init llm client", err)
	}
	return &OpenAIClient{llm: llm, temperature: temperature}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", apperr.Wrap(xerr.ErrModelCall, "generate failed", err)
	}
	if out == "" {
		return "", apperr.New(xerr.ErrModelEmpty, "empty completion")
	}
	return out, nil
}
