package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/seedgen/internal/analyzer"
	"github.com/iceymoss/seedgen/pkg/cache"
	"github.com/iceymoss/seedgen/pkg/fetcher"
	"github.com/iceymoss/seedgen/pkg/supabase"
)

type fakeFetcher struct {
	articles map[string]*fetcher.Article
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Article, error) {
	f.calls++
	a, ok := f.articles[url]
	if !ok {
		return nil, errors.New("dial tcp: connection refused")
	}
	return a, nil
}

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return g.out, g.err
}

type fakeStore struct {
	mu   sync.Mutex
	docs []*supabase.Document
	err  error
}

func (s *fakeStore) Insert(_ context.Context, doc *supabase.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

type fakeExists map[string]bool

func (f fakeExists) Exists(_ context.Context, url string) (bool, error) {
	return f[url], nil
}

const articleURL = "https://react.dev/blog/2025/10/01/react-19-2"

func newFetcher() *fakeFetcher {
	return &fakeFetcher{articles: map[string]*fetcher.Article{
		articleURL: {Title: "React 19.2", Text: "React 19.2 adds Activity.", URL: articleURL},
	}}
}

func newPipeline(f ArticleFetcher, gen *fakeGenerator, store DocumentStore, opts ...Option) *Pipeline {
	p := New(f, analyzer.New(gen, 0), store, opts...)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

func TestProcessAdmitsTwoTags(t *testing.T) {
	gen := &fakeGenerator{out: "```json\n{\"content_vi\":\"Tóm tắt\",\"tags\":[\"React\",\"react\"],\"mindmap_code\":\"graph TD; A-->B\",\"flashcards\":[{\"q\":\"Q\",\"a\":\"A\"}]}\n```"}
	store := &fakeStore{}

	o := newPipeline(newFetcher(), gen, store).Process(context.Background(), articleURL)

	assert.Equal(t, StatusSaved, o.Status)
	require.Len(t, store.docs, 1)
	doc := store.docs[0]
	assert.Equal(t, "React 19.2", doc.Topic)
	assert.Equal(t, "Tóm tắt", doc.ContentVI)
	assert.Equal(t, "graph TD; A-->B", doc.MindmapCode)
	assert.Equal(t, []supabase.Flashcard{{Q: "Q", A: "A"}}, doc.Flashcards)
	assert.Equal(t, []string{"React", "react"}, doc.Tags, "tags are passed through verbatim")
	assert.Equal(t, articleURL, doc.URL)
}

func TestProcessRejectsOneTag(t *testing.T) {
	gen := &fakeGenerator{out: `{"content_vi":"x","tags":["React"]}`}
	store := &fakeStore{}

	o := newPipeline(newFetcher(), gen, store).Process(context.Background(), articleURL)

	assert.Equal(t, StatusRejected, o.Status)
	assert.Equal(t, StageAdmit, o.Stage)
	assert.Equal(t, []string{"React"}, o.Tags)
	assert.Empty(t, store.docs)
}

func TestProcessFetchFailure(t *testing.T) {
	gen := &fakeGenerator{out: `{"tags":["a","b"]}`}
	store := &fakeStore{}

	o := newPipeline(newFetcher(), gen, store).Process(context.Background(), "https://blocked.example/post")

	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, StageFetch, o.Stage)
	assert.Error(t, o.Err)
	assert.Zero(t, gen.calls, "model is not called when fetch fails")
	assert.Empty(t, store.docs)
}

func TestProcessMalformedResponse(t *testing.T) {
	store := &fakeStore{}

	o := newPipeline(newFetcher(), &fakeGenerator{out: "I think the tags are React and Security."}, store).
		Process(context.Background(), articleURL)

	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, StageAnalyze, o.Stage)
	assert.Empty(t, store.docs)
}

func TestProcessModelError(t *testing.T) {
	store := &fakeStore{}

	o := newPipeline(newFetcher(), &fakeGenerator{err: errors.New("429 quota")}, store).
		Process(context.Background(), articleURL)

	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, StageAnalyze, o.Stage)
	assert.Empty(t, store.docs)
}

func TestProcessPersistFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("status 401: invalid api key")}

	o := newPipeline(newFetcher(), &fakeGenerator{out: `{"tags":["a","b"]}`}, store).
		Process(context.Background(), articleURL)

	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, StagePersist, o.Stage)
}

func TestProcessSkipCache(t *testing.T) {
	skips := cache.NewMemoryCache(0)
	gen := &fakeGenerator{out: `{"tags":["only-one"]}`}
	f := newFetcher()
	p := newPipeline(f, gen, &fakeStore{}, WithSkipCache(skips))

	first := p.Process(context.Background(), articleURL)
	require.Equal(t, StatusRejected, first.Status)

	second := p.Process(context.Background(), articleURL+"/")
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, StageCache, second.Stage)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, f.calls)
}

func TestProcessExistenceCheck(t *testing.T) {
	gen := &fakeGenerator{out: `{"tags":["a","b"]}`}
	store := &fakeStore{}
	p := newPipeline(newFetcher(), gen, store, WithExistenceCheck(fakeExists{articleURL: true}))

	o := p.Process(context.Background(), articleURL)
	assert.Equal(t, StatusSkipped, o.Status)
	assert.Equal(t, StageExists, o.Stage)
	assert.Zero(t, gen.calls)
	assert.Empty(t, store.docs)
}

func TestRunSummaryAndDelay(t *testing.T) {
	gen := &fakeGenerator{out: `{"tags":["a","b"]}`}
	store := &fakeStore{}
	p := newPipeline(newFetcher(), gen, store)

	var sleeps []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	var seen []string
	s := p.Run(context.Background(), []string{articleURL, "https://blocked.example/x", articleURL}, 15*time.Second, func(o Outcome) {
		seen = append(seen, o.URL)
	})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Saved, "no idempotency: the same URL is saved twice")
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, s.Outcomes, 3)
	assert.Equal(t, []string{articleURL, "https://blocked.example/x", articleURL}, seen)
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second}, sleeps, "no sleep after the last URL")
	assert.Len(t, store.docs, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	gen := &fakeGenerator{out: `{"tags":["a","b"]}`}
	store := &fakeStore{}
	p := newPipeline(newFetcher(), gen, store)

	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	s := p.Run(ctx, []string{articleURL, articleURL, articleURL}, time.Second, nil)
	assert.Equal(t, 3, s.Total)
	assert.Len(t, s.Outcomes, 1)
	assert.Equal(t, 1, s.Saved)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

// One seed URL against a real REST client: 2 tags -> exactly one POST answered with 201.
func TestEndToEndWithRESTEndpoint(t *testing.T) {
	var (
		mu    sync.Mutex
		posts []map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		posts = append(posts, body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := supabase.New(server.URL, "sb-key")

	admitted := newPipeline(newFetcher(), &fakeGenerator{out: `{"content_vi":"x","tags":["React","Security"]}`}, store)
	s := admitted.Run(context.Background(), []string{articleURL}, 0, nil)
	assert.Equal(t, 1, s.Saved)
	require.Len(t, posts, 1)
	assert.Equal(t, []any{"React", "Security"}, posts[0]["tags"])
	assert.Equal(t, "React 19.2", posts[0]["topic"])

	rejected := newPipeline(newFetcher(), &fakeGenerator{out: `{"content_vi":"x","tags":["React"]}`}, store)
	s = rejected.Run(context.Background(), []string{articleURL}, 0, nil)
	assert.Equal(t, 1, s.Rejected)
	assert.Len(t, posts, 1, "rejected article produces no POST")
}

func TestProcessTagsOnlyResponseIsSaved(t *testing.T) {
	store := &fakeStore{}
	p := newPipeline(newFetcher(), &fakeGenerator{out: `{"tags":["a","b"]}`}, store)

	o := p.Process(context.Background(), articleURL)
	assert.Equal(t, StatusSaved, o.Status)
	require.Len(t, store.docs, 1)
	assert.Empty(t, store.docs[0].ContentVI)
	assert.Nil(t, store.docs[0].Flashcards)
	assert.Equal(t, []string{"a", "b"}, store.docs[0].Tags)
}
