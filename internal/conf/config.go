package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperr "github.com/iceymoss/seedgen/pkg/errors"
	"github.com/iceymoss/seedgen/pkg/xerr"
)

// DefaultConfigPath 默认配置文件路径，可用 SEEDGEN_CONFIG 覆盖
const DefaultConfigPath = "configs/config.yaml"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Jobs     []JobConfig    `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LLMConfig 模型服务配置，provider 支持 gemini / openai (兼容协议)
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	ApiKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
}

// SupabaseConfig 数据库 REST 接口
type SupabaseConfig struct {
	URL   string `mapstructure:"url"`
	Key   string `mapstructure:"key"`
	Table string `mapstructure:"table"`
}

type FetcherConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// SeedConfig 批量入库参数
type SeedConfig struct {
	URLs         []string      `mapstructure:"urls"`
	Feeds        []string      `mapstructure:"feeds"`
	Delay        time.Duration `mapstructure:"delay"`
	MaxChars     int           `mapstructure:"max_chars"`
	MinTags      int           `mapstructure:"min_tags"`
	SkipExisting bool          `mapstructure:"skip_existing"`
	UseSkipCache bool          `mapstructure:"use_skip_cache"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LedgerConfig 本地运行记录，dsn 为空时不启用
type LedgerConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JobConfig struct {
	Name   string                 `mapstructure:"name"`
	Cron   string                 `mapstructure:"cron"`
	Enable bool                   `mapstructure:"enable"`
	Params map[string]interface{} `mapstructure:"params"`
}

// Path 返回配置文件路径
func Path() string {
	if p := os.Getenv("SEEDGEN_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("supabase.table", "documents")
	v.SetDefault("fetcher.timeout", 30*time.Second)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36")
	v.SetDefault("seed.delay", 15*time.Second)
	v.SetDefault("seed.max_chars", 8000)
	v.SetDefault("seed.min_tags", 2)
	v.SetDefault("ledger.driver", "sqlite")
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SEEDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量, 如 SEEDGEN_LLM_API_KEY

	if err := v.ReadInConfig(); err != nil {
		return nil, apperr.Wrap(xerr.CONFIG_ERROR, "read config "+path, err)
	}

	// 显式展开 YAML 中的 ${VAR}
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, apperr.Wrap(xerr.CONFIG_ERROR, "decode config", err)
	}
	c.Seed.URLs = expandList(c.Seed.URLs)
	c.Seed.Feeds = expandList(c.Seed.Feeds)
	if c.Seed.MinTags < 1 {
		c.Seed.MinTags = 1
	}
	c.Supabase.URL = strings.TrimRight(c.Supabase.URL, "/")
	return &c, nil
}

// expandList 展开列表里的环境变量并去掉空项
func expandList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(os.ExpandEnv(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidateLLM 检查模型凭证
func (c *Config) ValidateLLM() error {
	if c.LLM.ApiKey == "" {
		return apperr.New(xerr.CONFIG_ERROR, "missing llm.api_key (set GEMINI_API_KEY)")
	}
	return nil
}

// ValidateSupabase 检查数据库接口配置
func (c *Config) ValidateSupabase() error {
	if c.Supabase.URL == "" || c.Supabase.Key == "" {
		return apperr.New(xerr.CONFIG_ERROR, "missing supabase.url or supabase.key (set SUPABASE_URL / SUPABASE_KEY)")
	}
	if !strings.HasPrefix(c.Supabase.URL, "http://") && !strings.HasPrefix(c.Supabase.URL, "https://") {
		return apperr.New(xerr.CONFIG_ERROR, fmt.Sprintf("supabase.url must start with http:// or https://, got %q", c.Supabase.URL))
	}
	return nil
}
