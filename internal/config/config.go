// Package config loads the client's settings: defaults, an optional YAML file,
// an optional .env file and REELSPIN_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/reelspin/internal/outcome"
	"github.com/MJE43/reelspin/internal/reel"
	"github.com/MJE43/reelspin/internal/spin"
)

const envPrefix = "REELSPIN_"

// Config is the full client configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Alphabet  []string        `yaml:"alphabet"`
	Bands     []Band          `yaml:"bands"`
	Grid      GridConfig      `yaml:"grid"`
	Timing    TimingConfig    `yaml:"timing"`
	Endpoint  EndpointConfig  `yaml:"endpoint"`
	DevServer DevServerConfig `yaml:"dev_server"`
	Window    WindowConfig    `yaml:"window"`
}

// Band is one weighted run of alphabet indices. Weight is a decimal string so
// fractional weights stay exact.
type Band struct {
	Lo     int    `yaml:"lo"`
	Hi     int    `yaml:"hi"`
	Weight string `yaml:"weight"`
}

type GridConfig struct {
	Reels          int       `yaml:"reels"`
	SymbolsPerReel int       `yaml:"symbols_per_reel"`
	Pitch          float64   `yaml:"pitch"`
	SymbolWidth    float64   `yaml:"symbol_width"`
	ReelX          []float64 `yaml:"reel_x"`
}

type TimingConfig struct {
	MinSpin        time.Duration `yaml:"min_spin"`
	ScrollCycle    time.Duration `yaml:"scroll_cycle"`
	ScrollStagger  time.Duration `yaml:"scroll_stagger"`
	SettleLinear   time.Duration `yaml:"settle_linear"`
	SettlePerReel  time.Duration `yaml:"settle_per_reel"`
	SettleBounce   time.Duration `yaml:"settle_bounce"`
	SettleStagger  time.Duration `yaml:"settle_stagger"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type EndpointConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Path       string        `yaml:"path"`
	Token      string        `yaml:"token"`
	Profile    string        `yaml:"profile"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// DevServerConfig controls the in-process outcome server used for local play.
type DevServerConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Token   string        `yaml:"token"`
	Delay   time.Duration `yaml:"delay"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	TPS    int    `yaml:"tps"`
}

// Default returns the reference configuration.
func Default() Config {
	rc := reel.DefaultConfig()
	sc := spin.DefaultConfig()

	alphabet := make([]string, len(reel.DefaultAlphabet))
	for i, s := range reel.DefaultAlphabet {
		alphabet[i] = string(s)
	}
	var bands []Band
	for _, b := range reel.DefaultBands() {
		bands = append(bands, Band{Lo: b.Lo, Hi: b.Hi, Weight: b.Weight.String()})
	}

	return Config{
		LogLevel: "info",
		Alphabet: alphabet,
		Bands:    bands,
		Grid: GridConfig{
			Reels:          rc.Reels,
			SymbolsPerReel: rc.SymbolsPerReel,
			Pitch:          rc.Pitch,
			SymbolWidth:    rc.SymbolWidth,
			ReelX:          rc.ReelX,
		},
		Timing: TimingConfig{
			MinSpin:        sc.MinSpin,
			ScrollCycle:    sc.ScrollCycle,
			ScrollStagger:  sc.ScrollStagger,
			SettleLinear:   sc.SettleLinear,
			SettlePerReel:  sc.SettlePerReel,
			SettleBounce:   sc.SettleBounce,
			SettleStagger:  sc.SettleStagger,
			RequestTimeout: sc.RequestTimeout,
		},
		Endpoint: EndpointConfig{
			BaseURL: "http://localhost:8000",
			Path:    outcome.DefaultPath,
			Profile: "default",
		},
		DevServer: DevServerConfig{
			Addr: "127.0.0.1:8000",
		},
		Window: WindowConfig{
			Title:  "reelspin",
			Width:  1600,
			Height: 900,
			TPS:    60,
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win, and a missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: load %s: %w", path, err)
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("ENDPOINT_URL"); ok {
		c.Endpoint.BaseURL = v
	}
	if v, ok := lookup("ENDPOINT_PATH"); ok {
		c.Endpoint.Path = v
	}
	if v, ok := lookup("ENDPOINT_TOKEN"); ok {
		c.Endpoint.Token = v
	}
	if v, ok := lookup("ENDPOINT_PROFILE"); ok {
		c.Endpoint.Profile = v
	}
	if v, ok := lookup("DEV_SERVER_ADDR"); ok {
		c.DevServer.Addr = v
	}
	if v, ok := lookup("DEV_SERVER_TOKEN"); ok {
		c.DevServer.Token = v
	}

	var err error
	if c.Endpoint.MaxRetries, err = envInt("ENDPOINT_RETRIES", c.Endpoint.MaxRetries); err != nil {
		return err
	}
	if c.DevServer.Enabled, err = envBool("DEV_SERVER", c.DevServer.Enabled); err != nil {
		return err
	}
	for name, d := range map[string]*time.Duration{
		"MIN_SPIN":         &c.Timing.MinSpin,
		"SCROLL_STAGGER":   &c.Timing.ScrollStagger,
		"REQUEST_TIMEOUT":  &c.Timing.RequestTimeout,
		"DEV_SERVER_DELAY": &c.DevServer.Delay,
	} {
		if *d, err = envDuration(name, *d); err != nil {
			return err
		}
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envInt(name string, def int) (int, error) {
	s, ok := lookup(name)
	if !ok || s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
	}
	return v, nil
}

func envBool(name string, def bool) (bool, error) {
	s, ok := lookup(name)
	if !ok || s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
	}
	return v, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	s, ok := lookup(name)
	if !ok || s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
	}
	return v, nil
}

// Validate checks every section against the components that will consume it.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	alphabet, bands, err := c.SymbolSet()
	if err != nil {
		return err
	}
	if _, err := reel.NewBandTable(bands, len(alphabet)); err != nil {
		return fmt.Errorf("config: bands: %w", err)
	}
	if err := c.ReelConfig().Validate(); err != nil {
		return fmt.Errorf("config: grid: %w", err)
	}
	if err := c.SpinConfig().Validate(); err != nil {
		return fmt.Errorf("config: timing: %w", err)
	}
	if c.Endpoint.MaxRetries < 0 {
		return fmt.Errorf("config: endpoint max_retries must not be negative, got %d", c.Endpoint.MaxRetries)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS <= 0 {
		return fmt.Errorf("config: window tps must be positive, got %d", c.Window.TPS)
	}
	if c.DevServer.Delay < 0 {
		return fmt.Errorf("config: dev_server delay must not be negative, got %s", c.DevServer.Delay)
	}
	if c.DevServer.Enabled && strings.TrimSpace(c.DevServer.Addr) == "" {
		return errors.New("config: dev_server addr is required when enabled")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}

// Logger builds a zap logger at LogLevel: console output at debug, JSON
// otherwise.
func (c Config) Logger() (*zap.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// SymbolSet returns the alphabet and its bands.
func (c Config) SymbolSet() (reel.Alphabet, []reel.Band, error) {
	alphabet := make(reel.Alphabet, len(c.Alphabet))
	for i, s := range c.Alphabet {
		alphabet[i] = reel.Symbol(s)
	}
	if err := alphabet.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: alphabet: %w", err)
	}
	bands := make([]reel.Band, len(c.Bands))
	for i, b := range c.Bands {
		w, err := decimal.NewFromString(strings.TrimSpace(b.Weight))
		if err != nil {
			return nil, nil, fmt.Errorf("config: band %d weight %q: %w", i, b.Weight, err)
		}
		bands[i] = reel.Band{Lo: b.Lo, Hi: b.Hi, Weight: w}
	}
	return alphabet, bands, nil
}

// Generator builds the filler generator. A nil rng uses the global source.
func (c Config) Generator(rng reel.Rand) (*reel.Generator, error) {
	alphabet, bands, err := c.SymbolSet()
	if err != nil {
		return nil, err
	}
	return reel.NewGenerator(alphabet, bands, rng)
}

func (c Config) ReelConfig() reel.Config {
	return reel.Config{
		Reels:          c.Grid.Reels,
		SymbolsPerReel: c.Grid.SymbolsPerReel,
		Pitch:          c.Grid.Pitch,
		SymbolWidth:    c.Grid.SymbolWidth,
		ReelX:          append([]float64(nil), c.Grid.ReelX...),
	}
}

func (c Config) SpinConfig() spin.Config {
	return spin.Config{
		MinSpin:        c.Timing.MinSpin,
		ScrollCycle:    c.Timing.ScrollCycle,
		ScrollStagger:  c.Timing.ScrollStagger,
		SettleLinear:   c.Timing.SettleLinear,
		SettlePerReel:  c.Timing.SettlePerReel,
		SettleBounce:   c.Timing.SettleBounce,
		SettleStagger:  c.Timing.SettleStagger,
		RequestTimeout: c.Timing.RequestTimeout,
	}
}

// OutcomeConfig returns the client configuration. token overrides the
// configured one when non-empty.
func (c Config) OutcomeConfig(token string, logger *zap.Logger) outcome.Config {
	if token == "" {
		token = c.Endpoint.Token
	}
	return outcome.Config{
		BaseURL:        c.Endpoint.BaseURL,
		Path:           c.Endpoint.Path,
		Token:          token,
		MaxRetries:     c.Endpoint.MaxRetries,
		BaseRetryDelay: c.Endpoint.RetryDelay,
		UserAgent:      "reelspin",
		Logger:         logger,
	}
}
