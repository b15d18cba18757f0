package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SectorPulse/pkg/util"
)

// SectorMember is one entry of the sector universe.
type SectorMember struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// warn/error digest shipped to kafka.log_topic
		DigestInterval  time.Duration `yaml:"digest_interval"`
		DigestThreshold int           `yaml:"digest_threshold"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Provider struct {
		ChartURL   string        `yaml:"chart_url"`
		SearchURL  string        `yaml:"search_url"`
		SummaryURL string        `yaml:"summary_url"`
		UserAgent  string        `yaml:"user_agent"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Translator struct {
		Enabled      bool          `yaml:"enabled"`
		URL          string        `yaml:"url"`
		SourceLocale string        `yaml:"source_locale"`
		TargetLocale string        `yaml:"target_locale"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"translator"`
	Cache struct {
		HistoryTTL time.Duration `yaml:"history_ttl"`
		SectorTTL  time.Duration `yaml:"sector_ttl"`
	} `yaml:"cache"`
	Stocks struct {
		Popular     []string `yaml:"popular"`
		NewsLimit   int      `yaml:"news_limit"`
		HolderLimit int      `yaml:"holder_limit"`
	} `yaml:"stocks"`
	Sector struct {
		Window       time.Duration  `yaml:"window"`
		Workers      int            `yaml:"workers"`
		FetchTimeout time.Duration  `yaml:"fetch_timeout"`
		Universe     []SectorMember `yaml:"universe"`
	} `yaml:"sector"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		// AutoCreateTopics lets the producer create missing topics on brokers that allow it.
		AutoCreateTopics bool `yaml:"auto_create_topics"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

// DefaultUniverse is the S&P 500 sector ETF set.
var DefaultUniverse = []SectorMember{
	{Symbol: "XLK", Name: "Technology"},
	{Symbol: "XLF", Name: "Financial"},
	{Symbol: "XLV", Name: "Healthcare"},
	{Symbol: "XLY", Name: "Consumer"},
	{Symbol: "XLC", Name: "Communication"},
	{Symbol: "XLI", Name: "Industrial"},
	{Symbol: "XLP", Name: "Staples"},
	{Symbol: "XLE", Name: "Energy"},
	{Symbol: "XLRE", Name: "Real Estate"},
	{Symbol: "XLB", Name: "Materials"},
	{Symbol: "XLU", Name: "Utilities"},
}

// DefaultPopular is the quick-pick symbol list.
var DefaultPopular = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META",
	"V", "JNJ", "WMT", "JPM", "MA", "DIS", "NFLX", "COST",
}

// Default returns a config with every field populated.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.DigestInterval == 0 {
		c.Log.DigestInterval = 30 * time.Second
	}
	if c.Log.DigestThreshold == 0 {
		c.Log.DigestThreshold = 100
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.SlowRequest == 0 {
		c.Server.SlowRequest = 2 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillPerSec == 0 {
		c.Server.RateLimit.RefillPerSec = 1
	}
	if c.Provider.ChartURL == "" {
		c.Provider.ChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if c.Provider.SearchURL == "" {
		c.Provider.SearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
	}
	if c.Provider.SummaryURL == "" {
		c.Provider.SummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	}
	if c.Provider.UserAgent == "" {
		c.Provider.UserAgent = "Mozilla/5.0"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 15 * time.Second
	}
	if c.Translator.URL == "" {
		c.Translator.URL = "https://translate.googleapis.com/translate_a/single"
	}
	if c.Translator.SourceLocale == "" {
		c.Translator.SourceLocale = "en"
	}
	if c.Translator.TargetLocale == "" {
		c.Translator.TargetLocale = "zh-TW"
	}
	if c.Translator.Timeout == 0 {
		c.Translator.Timeout = 5 * time.Second
	}
	if c.Cache.HistoryTTL == 0 {
		c.Cache.HistoryTTL = 5 * time.Minute
	}
	if c.Cache.SectorTTL == 0 {
		c.Cache.SectorTTL = 5 * time.Minute
	}
	if len(c.Stocks.Popular) == 0 {
		c.Stocks.Popular = append([]string(nil), DefaultPopular...)
	}
	if c.Stocks.NewsLimit == 0 {
		c.Stocks.NewsLimit = 3
	}
	if c.Stocks.HolderLimit == 0 {
		c.Stocks.HolderLimit = 10
	}
	if c.Sector.Window == 0 {
		c.Sector.Window = 7 * 24 * time.Hour
	}
	if c.Sector.Workers == 0 {
		c.Sector.Workers = 4
	}
	if c.Sector.FetchTimeout == 0 {
		c.Sector.FetchTimeout = 10 * time.Second
	}
	if len(c.Sector.Universe) == 0 {
		c.Sector.Universe = append([]SectorMember(nil), DefaultUniverse...)
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "sectorpulse"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "sectorpulse.sector-snapshots"
	}
	if c.Kafka.LogTopic == "" {
		c.Kafka.LogTopic = "sectorpulse.log-digest"
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SECTORPULSE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Redis.Port = p
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("TRANSLATE_LOCALE"); v != "" {
		c.Translator.TargetLocale = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Cache.HistoryTTL <= 0 || c.Cache.SectorTTL <= 0 {
		return fmt.Errorf("cache ttl values must be positive")
	}
	if c.Sector.FetchTimeout <= 0 {
		return fmt.Errorf("sector.fetch_timeout must be positive, got %s", c.Sector.FetchTimeout)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", c.Provider.Timeout)
	}
	if c.Translator.Enabled && c.Translator.Timeout <= 0 {
		return fmt.Errorf("translator.timeout must be positive, got %s", c.Translator.Timeout)
	}
	if c.Sector.Workers < 1 {
		return fmt.Errorf("sector.workers must be at least 1, got %d", c.Sector.Workers)
	}
	if c.Sector.Window < 48*time.Hour {
		return fmt.Errorf("sector.window must cover at least two sessions, got %s", c.Sector.Window)
	}
	seen := make(map[string]struct{}, len(c.Sector.Universe))
	for i, m := range c.Sector.Universe {
		sym := util.NormalizeSymbol(m.Symbol)
		if sym == "" {
			return fmt.Errorf("sector.universe[%d].symbol is required", i)
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("sector.universe has duplicate symbol '%s'", sym)
		}
		seen[sym] = struct{}{}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
