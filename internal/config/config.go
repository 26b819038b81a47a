// Package config loads the flat run configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"altcoin-leadlag/internal/domain"
)

// EnvPrefix is the prefix of environment overrides (LEADLAG_CACHE_DIR, LEADLAG_COINGECKO_API_KEY, ...).
const EnvPrefix = "LEADLAG"

// dateLayout is the layout of start_date / end_date.
const dateLayout = "2006-01-02"

// Config holds every option of a run. It is read once and passed explicitly.
type Config struct {
	StartDate          string   `mapstructure:"start_date"`
	EndDate            string   `mapstructure:"end_date"`
	Frequency          string   `mapstructure:"frequency"`
	MinLiquidityUSD    float64  `mapstructure:"min_liquidity_usd"`
	TopNMarketCap      int      `mapstructure:"top_n_marketcap"`
	SnapshotPageSize   int      `mapstructure:"snapshot_page_size"`
	CacheDir           string   `mapstructure:"cache_dir"`
	ResultsDir         string   `mapstructure:"results_dir"`
	Target             string   `mapstructure:"target"`
	Independent        []string `mapstructure:"independent"`
	LagWeeks           int      `mapstructure:"lag_weeks"`
	LagCause           string   `mapstructure:"lag_cause"`
	LagEffect          string   `mapstructure:"lag_effect"`
	RequiredColumns    []string `mapstructure:"required_columns"`
	RollingWindow      int      `mapstructure:"rolling_window"`
	CorrelationWindow  int      `mapstructure:"correlation_window"`
	StablecoinSymbols  []string `mapstructure:"stablecoin_symbols"`
	ExcludeStablecoins bool     `mapstructure:"exclude_stablecoins"`

	Log       Log       `mapstructure:"log"`
	CoinGecko CoinGecko `mapstructure:"coingecko"`
	Macro     Macro     `mapstructure:"macro"`
	Storage   Storage   `mapstructure:"storage"`
	Cache     Cache     `mapstructure:"cache"`
	Scoring   Scoring   `mapstructure:"scoring"`
	Export    Export    `mapstructure:"export"`
	News      News      `mapstructure:"news"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

// Log holds logger configuration.
type Log struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// CoinGecko holds market data provider configuration.
type CoinGecko struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// Macro holds macro proxy provider configuration.
type Macro struct {
	BaseURL string        `mapstructure:"base_url"`
	Symbol  string        `mapstructure:"symbol"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Storage selects where derived tables are persisted.
type Storage struct {
	Backend       string `mapstructure:"backend"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
}

// Cache selects where raw provider responses are cached.
type Cache struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	MemoTTL   time.Duration `mapstructure:"memo_ttl"`
}

// Scoring holds token scoring options.
type Scoring struct {
	UniverseFile  string `mapstructure:"universe_file"`
	ReferenceYear int    `mapstructure:"reference_year"`
	OutputFile    string `mapstructure:"output_file"`
	CSVFile       string `mapstructure:"csv_file"`
}

// Export holds beta plays export options.
type Export struct {
	CSVFile  string `mapstructure:"csv_file"`
	XLSXFile string `mapstructure:"xlsx_file"`
}

// News holds news feed options.
type News struct {
	BaseURL   string        `mapstructure:"base_url"`
	StreamURL string        `mapstructure:"stream_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Metrics holds run metrics options.
type Metrics struct {
	Textfile string `mapstructure:"textfile"`
}

// Storage and cache backends.
const (
	BackendFile       = "file"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
	BackendRedis      = "redis"
)

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("start_date", "2019-01-01")
	v.SetDefault("end_date", "2025-07-31")
	v.SetDefault("frequency", string(domain.FrequencyWeekly))
	v.SetDefault("min_liquidity_usd", 10_000_000)
	v.SetDefault("top_n_marketcap", 300)
	v.SetDefault("snapshot_page_size", 250)
	v.SetDefault("cache_dir", "cache")
	v.SetDefault("results_dir", "results")
	v.SetDefault("target", domain.ColOthersBTCRet)
	v.SetDefault("independent", []string{
		domain.ColETHBTCRet, domain.ColBTCDomChange, domain.ColQualityAlpha, domain.ColMacroLiquidity,
	})
	v.SetDefault("lag_weeks", 1)
	v.SetDefault("lag_cause", domain.ColETHBTCRet)
	v.SetDefault("lag_effect", domain.ColOthersBTCRet)
	v.SetDefault("required_columns", []string{domain.ColETHBTCRet, domain.ColOthersBTCRet})
	v.SetDefault("rolling_window", 4)
	v.SetDefault("correlation_window", 26)
	v.SetDefault("stablecoin_symbols", []string{"USDT", "USDC", "DAI", "BUSD", "TUSD"})
	v.SetDefault("exclude_stablecoins", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")

	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key", "")
	v.SetDefault("coingecko.timeout", 30*time.Second)
	v.SetDefault("coingecko.requests_per_minute", 30)
	v.SetDefault("coingecko.max_retries", 0)

	v.SetDefault("macro.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("macro.symbol", "^SPXTR")
	v.SetDefault("macro.timeout", 30*time.Second)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("cache.backend", BackendFile)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.memo_ttl", 30*time.Minute)

	v.SetDefault("scoring.universe_file", "")
	v.SetDefault("scoring.reference_year", 2024)
	v.SetDefault("scoring.output_file", "s_tier_analysis.txt")
	v.SetDefault("scoring.csv_file", "s_tier_scores.csv")

	v.SetDefault("export.csv_file", "ethereum_beta_plays.csv")
	v.SetDefault("export.xlsx_file", "ethereum_beta_plays.xlsx")

	v.SetDefault("news.base_url", "https://api.velo.xyz/api/n")
	v.SetDefault("news.stream_url", "wss://api.velo.xyz/api/n/stream")
	v.SetDefault("news.api_key", "")
	v.SetDefault("news.timeout", 10*time.Second)

	v.SetDefault("metrics.textfile", "")
}

// Load reads configuration from path (optional) and environment variables.
// A missing file is not an error: defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option consistency.
func (c *Config) Validate() error {
	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start_date %s must be before end_date %s", c.StartDate, c.EndDate)
	}
	if !domain.Frequency(c.Frequency).Valid() {
		return fmt.Errorf("frequency must be D or W, got %q", c.Frequency)
	}
	if c.TopNMarketCap <= 0 {
		return fmt.Errorf("top_n_marketcap must be positive, got %d", c.TopNMarketCap)
	}
	if c.SnapshotPageSize <= 0 {
		return fmt.Errorf("snapshot_page_size must be positive, got %d", c.SnapshotPageSize)
	}
	if c.RollingWindow <= 0 {
		return fmt.Errorf("rolling_window must be positive, got %d", c.RollingWindow)
	}
	if c.CorrelationWindow < 2 {
		return fmt.Errorf("correlation_window must be at least 2, got %d", c.CorrelationWindow)
	}
	if c.LagWeeks <= 0 {
		return fmt.Errorf("lag_weeks must be positive, got %d", c.LagWeeks)
	}
	if c.Target == "" || len(c.Independent) == 0 {
		return errors.New("target and independent must be set")
	}
	for _, col := range append(append([]string{c.Target, c.LagCause, c.LagEffect}, c.Independent...), c.RequiredColumns...) {
		if !domain.IsFactorColumn(col) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownColumn, col)
		}
	}
	switch c.Storage.Backend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			return errors.New("storage.clickhouse_dsn is required for the clickhouse backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// DateRange parses start_date and end_date as UTC days.
func (c *Config) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end_date: %w", err)
	}
	return start, end, nil
}

// Freq returns the configured resampling frequency.
func (c *Config) Freq() domain.Frequency {
	return domain.Frequency(c.Frequency)
}
