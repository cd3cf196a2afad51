// Package supabase is a minimal client for the PostgREST endpoint that stores documents.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

const DefaultTable = "documents"

type Flashcard struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Document 对应 documents 表的一行
type Document struct {
	Topic       string      `json:"topic"`
	ContentVI   string      `json:"content_vi"`
	MindmapCode string      `json:"mindmap_code"`
	Flashcards  []Flashcard `json:"flashcards"`
	Tags        []string    `json:"tags"`
	URL         string      `json:"url"`
}

type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

type Option func(*Client)

func WithTable(table string) Option {
	return func(c *Client) {
		if table != "" {
			c.table = table
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		table:      DefaultTable,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint 表的 REST 地址
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
}

func (c *Client) setHeaders(req *http.Request) {
	// 注意 Bearer 后面的空格
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// Insert 写入一行，只有 201 视为成功，不重试
func (c *Client) Insert(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return apperr.Wrap(xerr.ErrPersist, "marshal document", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(xerr.ErrPersist, "create request", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(xerr.ErrPersist, "send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return apperr.New(xerr.ErrPersistStatus, fmt.Sprintf("status %d: %s", resp.StatusCode, string(raw)))
	}
	return nil
}

// Exists 按 url 精确查询是否已入库
func (c *Client) Exists(ctx context.Context, sourceURL string) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("url", "eq."+sourceURL)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return false, apperr.Wrap(xerr.DB_ERROR, "create request", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, apperr.Wrap(xerr.DB_ERROR, "send request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, apperr.Wrap(xerr.DB_ERROR, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, apperr.New(xerr.DB_ERROR, fmt.Sprintf("status %d: %s", resp.StatusCode, string(raw)))
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return false, apperr.Wrap(xerr.DB_ERROR, "decode response", err)
	}
	return len(rows) > 0, nil
}

// Ping 检查 REST 接口是否可达
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(xerr.ErrPersist, "ping rest endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized {
		return apperr.New(xerr.ErrPersistStatus, fmt.Sprintf("ping status code %d", resp.StatusCode))
	}
	return nil
}
