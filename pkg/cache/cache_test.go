package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://React.dev/blog/2025/10/01/react-19-2/":     "https://react.dev/blog/2025/10/01/react-19-2",
		"https://react.dev/blog/post?utm_source=x#section":  "https://react.dev/blog/post",
		"HTTPS://EXAMPLE.COM/":                              "https://example.com",
		"not a url/":                                        "not a url",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeURL(in), "input %q", in)
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "https://example.com/a/", &SkipEntry{Title: "A", Tags: []string{"x"}, Reason: "1 tag"}))

	e, ok, err := c.Get(ctx, "https://EXAMPLE.com/a?ref=feed")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", e.Title)
	assert.Equal(t, now, e.Timestamp)

	now = now.Add(2 * time.Hour)
	_, ok, err = c.Get(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewMemoryCache(0)
	c.now = func() time.Time { return base.Add(time.Hour) }

	for i := 0; i < maxMemoryEntries; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, c.Put(ctx, fmt.Sprintf("https://example.com/%d", i), &SkipEntry{Timestamp: ts}))
	}
	require.Equal(t, maxMemoryEntries, c.Len())

	require.NoError(t, c.Put(ctx, "https://example.com/new", &SkipEntry{}))
	assert.Equal(t, maxMemoryEntries-evictBatch+1, c.Len())

	_, ok, _ := c.Get(ctx, "https://example.com/0")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok, _ = c.Get(ctx, fmt.Sprintf("https://example.com/%d", maxMemoryEntries-1))
	assert.True(t, ok)
}
