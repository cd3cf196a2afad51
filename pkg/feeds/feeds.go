// Package feeds expands RSS/Atom feeds into article links for the seed list.
package feeds

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/logger"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

type Expander struct {
	parser *gofeed.Parser
}

func NewExpander(userAgent string) *Expander {
	fp := gofeed.NewParser()
	if userAgent != "" {
		fp.UserAgent = userAgent
	}
	return &Expander{parser: fp}
}

// Links 返回单个 feed 中所有条目的链接
func (e *Expander) Links(ctx context.Context, feedURL string) ([]string, error) {
	feed, err := e.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, apperr.Wrap(xerr.ErrFeedParse, "parse feed "+feedURL, err)
	}
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if link := strings.TrimSpace(item.Link); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

// Expand 把 feed 条目追加到 urls 之后并按出现顺序去重；失败的 feed 只记日志
func (e *Expander) Expand(ctx context.Context, urls, feedURLs []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	add := func(u string) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, u := range urls {
		add(u)
	}
	for _, f := range feedURLs {
		links, err := e.Links(ctx, f)
		if err != nil {
			logger.Warn("⚠️ feed parse failed", zap.String("feed", f), zap.Error(err))
			continue
		}
		logger.Info("🕷️ feed expanded", zap.String("feed", f), zap.Int("items", len(links)))
		for _, l := range links {
			add(l)
		}
	}
	return out
}
