package svc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/seedgen/internal/conf"
	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

func testConfig() *conf.Config {
	c := &conf.Config{}
	c.LLM = conf.LLMConfig{Provider: "openai", ApiKey: "sk-test", Model: "deepseek-chat", BaseURL: "http://127.0.0.1:1/v1"}
	c.Supabase = conf.SupabaseConfig{URL: "https://xyz.supabase.co", Key: "sb-key", Table: "documents"}
	c.Seed.MinTags = 2
	return c
}

func TestLedgerFailureDoesNotBlockBatch(t *testing.T) {
	c := testConfig()
	c.Ledger = conf.LedgerConfig{Driver: "oracle", DSN: "scott/tiger"}

	s, err := NewServiceContext(context.Background(), c)
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Ledger)
	assert.NotNil(t, s.Pipeline)
	assert.NotNil(t, s.Store)
}

func TestLedgerOffWithoutDSN(t *testing.T) {
	s, err := NewServiceContext(context.Background(), testConfig())
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Ledger)
	assert.Nil(t, s.SkipCache)
}

func TestLedgerSqlite(t *testing.T) {
	c := testConfig()
	c.Ledger = conf.LedgerConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "runs", "ledger.db")}

	s, err := NewServiceContext(context.Background(), c)
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Ledger)
}

func TestMemorySkipCache(t *testing.T) {
	c := testConfig()
	c.Seed.UseSkipCache = true

	s, err := NewServiceContext(context.Background(), c)
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.SkipCache)
}

func TestUnsupportedProvider(t *testing.T) {
	c := testConfig()
	c.LLM.Provider = "claude"

	_, err := NewServiceContext(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, xerr.CONFIG_ERROR, apperr.CodeOf(err))
}

func TestMissingSupabaseConfig(t *testing.T) {
	c := testConfig()
	c.Supabase.Key = ""

	_, err := NewServiceContext(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, xerr.CONFIG_ERROR, apperr.CodeOf(err))
}
