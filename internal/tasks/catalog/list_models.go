package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iceymoss/seedgen/internal/core"
	"github.com/iceymoss/seedgen/internal/svc"
	"github.com/iceymoss/seedgen/internal/tasks"
	"github.com/iceymoss/seedgen/pkg/llm"
)

const TaskName = "llm:list_models"

// ListModelsTask 列出支持 generateContent 的模型
type ListModelsTask struct {
	svcCtx *svc.ServiceContext
	out    io.Writer
}

func init() {
	tasks.Register(TaskName, NewListModelsTask)
}

func NewListModelsTask(svcCtx *svc.ServiceContext) core.Task {
	return &ListModelsTask{svcCtx: svcCtx, out: os.Stdout}
}

func (t *ListModelsTask) Identifier() string {
	return TaskName
}

func (t *ListModelsTask) Run(ctx context.Context, _ map[string]any) error {
	if t.svcCtx == nil || t.svcCtx.Lister == nil {
		return fmt.Errorf("%s: current llm provider cannot list models", TaskName)
	}

	sep := strings.Repeat("-", 30)
	fmt.Fprintln(t.out, sep)
	fmt.Fprintln(t.out, "🔍 Checking available models...")

	models, err := t.svcCtx.Lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range llm.FilterGenerateContent(models) {
		fmt.Fprintf(t.out, "✅ Model available: %s\n", m.Name)
	}

	fmt.Fprintln(t.out, sep)
	return nil
}
