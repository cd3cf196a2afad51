// Package cache remembers URLs that were analyzed but rejected, so a rerun
// does not spend another model call on them.
package cache

import (
	"context"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	keyPrefix  = "seedgen:skip:"
)

// SkipEntry 被拒绝的 URL 记录
type SkipEntry struct {
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type SkipCache interface {
	Get(ctx context.Context, rawURL string) (*SkipEntry, bool, error)
	Put(ctx context.Context, rawURL string, entry *SkipEntry) error
}

// NormalizeURL 去掉 query、fragment 和末尾斜杠并转小写，用作缓存 key
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rawURL)), "/")
	}
	return strings.TrimSuffix(strings.ToLower(u.Scheme+"://"+u.Host+u.Path), "/")
}
