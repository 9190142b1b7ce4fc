package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cycle_go/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent on REST and WebSocket handshakes
	DefaultUserAgent = "cycle_go/1.0"

	MarketDataREST      = "rest"
	MarketDataWebSocket = "websocket"
)

// Config holds every runtime setting of the bot.
// LoadConfig reads the YAML file, then environment variables override secrets and trading knobs.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Exchange struct {
		RestURL      string `yaml:"rest_url"`
		WSURL        string `yaml:"ws_url"`
		APIKey       string `yaml:"api_key"`
		SecretKey    string `yaml:"secret_key"`
		RecvWindowMS int64  `yaml:"recv_window_ms"`
		TimeoutSec   int    `yaml:"timeout_sec"`
		DryRun       bool   `yaml:"dry_run"`
	} `yaml:"exchange"`

	Cycle struct {
		Symbol         string          `yaml:"symbol"`
		IntervalSec    int             `yaml:"interval_sec"`
		MaxOrderCount  int             `yaml:"max_order_count"`
		OrderSizeUSD   decimal.Decimal `yaml:"order_size_usd"`
		Markup         decimal.Decimal `yaml:"markup"`
		PricePrecision int32           `yaml:"price_precision"`
		SizePrecision  int32           `yaml:"size_precision"`
		SampleDepth    int             `yaml:"sample_depth"`
		Side           string          `yaml:"side"`
		TimeInForce    string          `yaml:"time_in_force"`
	} `yaml:"cycle"`

	MarketData struct {
		Source         string `yaml:"source"` // "rest" or "websocket"
		MaxStalenessMS int    `yaml:"max_staleness_ms"`
	} `yaml:"market_data"`

	Engine struct {
		PurgeTimeoutSec int    `yaml:"purge_timeout_sec"`
		StateDumpPath   string `yaml:"state_dump_path"`
	} `yaml:"engine"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"` // Empty resolves to the user config dir
	} `yaml:"storage"`

	Metrics struct {
		Addr string `yaml:"addr"` // Empty disables the metrics/pprof listener
	} `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used for anything the file leaves out.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "cycle_go"
	cfg.Exchange.RestURL = "https://api.binance.com"
	cfg.Exchange.WSURL = "wss://stream.binance.com:9443/ws"
	cfg.Exchange.RecvWindowMS = 5000
	cfg.Exchange.TimeoutSec = 10
	cfg.Cycle.IntervalSec = 5
	cfg.Cycle.MaxOrderCount = 1
	cfg.Cycle.OrderSizeUSD = decimal.NewFromInt(10)
	cfg.Cycle.Markup = decimal.RequireFromString("1.2")
	cfg.Cycle.PricePrecision = 3
	cfg.Cycle.SizePrecision = 0
	cfg.Cycle.SampleDepth = domain.DefaultSampleDepth
	cfg.Cycle.Side = string(domain.SideSell)
	cfg.Cycle.TimeInForce = string(domain.TimeInForceGTC)
	cfg.MarketData.Source = MarketDataREST
	cfg.MarketData.MaxStalenessMS = 3000
	cfg.Engine.PurgeTimeoutSec = 15
	cfg.Engine.StateDumpPath = "cycle_state_dump.json"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadDotEnv loads KEY=VALUE files (default ".env") into the process environment.
// Missing files are skipped. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	found := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return godotenv.Load(found...)
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.Exchange.RestURL, "http://") && !hasPrefix(c.Exchange.RestURL, "https://") {
		return &domain.ConfigError{Field: "exchange.rest_url", Err: fmt.Errorf("invalid URL %q", c.Exchange.RestURL)}
	}
	if !c.Exchange.DryRun && (c.Exchange.APIKey == "" || c.Exchange.SecretKey == "") {
		return &domain.ConfigError{Field: "exchange.api_key", Err: errors.New("credentials are required unless dry_run is set")}
	}

	switch c.MarketData.Source {
	case MarketDataREST:
	case MarketDataWebSocket:
		if !hasPrefix(c.Exchange.WSURL, "ws://") && !hasPrefix(c.Exchange.WSURL, "wss://") {
			return &domain.ConfigError{Field: "exchange.ws_url", Err: fmt.Errorf("invalid URL %q", c.Exchange.WSURL)}
		}
	default:
		return &domain.ConfigError{Field: "market_data.source", Err: fmt.Errorf("unknown source %q", c.MarketData.Source)}
	}

	_, err := c.CycleConfig()
	return err
}

// CycleConfig builds the immutable trading envelope handed to the engine.
func (c *Config) CycleConfig() (domain.CycleConfig, error) {
	side, err := domain.ParseSide(c.Cycle.Side)
	if err != nil {
		return domain.CycleConfig{}, &domain.ConfigError{Field: "cycle.side", Err: err}
	}
	tif, err := domain.ParseTimeInForce(c.Cycle.TimeInForce)
	if err != nil {
		return domain.CycleConfig{}, &domain.ConfigError{Field: "cycle.time_in_force", Err: err}
	}

	cc := domain.CycleConfig{
		Symbol:         strings.ToUpper(strings.TrimSpace(c.Cycle.Symbol)),
		Interval:       time.Duration(c.Cycle.IntervalSec) * time.Second,
		MaxOrderCount:  c.Cycle.MaxOrderCount,
		OrderSizeQuote: c.Cycle.OrderSizeUSD,
		Markup:         c.Cycle.Markup,
		PricePrecision: c.Cycle.PricePrecision,
		SizePrecision:  c.Cycle.SizePrecision,
		SampleDepth:    c.Cycle.SampleDepth,
		Side:           side,
		TimeInForce:    tif,
	}
	if cc.SampleDepth <= 0 {
		cc.SampleDepth = domain.DefaultSampleDepth
	}

	if err := cc.Validate(); err != nil {
		return domain.CycleConfig{}, err
	}
	return cc, nil
}

// MaxStaleness is the oldest streamed book the engine may price from.
func (c *Config) MaxStaleness() time.Duration {
	return time.Duration(c.MarketData.MaxStalenessMS) * time.Millisecond
}

// PurgeTimeout bounds each cancel-all call made outside the tick loop.
func (c *Config) PurgeTimeout() time.Duration {
	if c.Engine.PurgeTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Engine.PurgeTimeoutSec) * time.Second
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overwrites settings with environment variables when present.
func overrideWithEnv(cfg *Config) error {
	if key := os.Getenv("BINANCE_API_KEY"); key != "" {
		cfg.Exchange.APIKey = key
	}
	if secret := os.Getenv("BINANCE_API_SECRET_KEY"); secret != "" {
		cfg.Exchange.SecretKey = secret
	}
	if symbol := os.Getenv("CYCLE_SYMBOL"); symbol != "" {
		cfg.Cycle.Symbol = symbol
	}

	if v := os.Getenv("CYCLE_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: "CYCLE_INTERVAL_SEC", Err: err}
		}
		cfg.Cycle.IntervalSec = n
	}
	if v := os.Getenv("CYCLE_MAX_ORDER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: "CYCLE_MAX_ORDER_COUNT", Err: err}
		}
		cfg.Cycle.MaxOrderCount = n
	}
	if v := os.Getenv("CYCLE_ORDER_SIZE_USD"); v != "" {
		size, err := decimal.NewFromString(v)
		if err != nil {
			return &domain.ConfigError{Field: "CYCLE_ORDER_SIZE_USD", Err: err}
		}
		cfg.Cycle.OrderSizeUSD = size
	}
	if v := os.Getenv("CYCLE_DRY_RUN"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Field: "CYCLE_DRY_RUN", Err: err}
		}
		cfg.Exchange.DryRun = dry
	}
	return nil
}
