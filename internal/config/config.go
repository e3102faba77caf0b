// Package config loads vertexflow settings.
//
// Values are layered: built-in defaults, then the TOML file, then a .env
// file in the working directory, then VERTEXFLOW_* environment variables.
// Command-line flags are applied last by the CLI.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/positions"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VERTEXFLOW_"

// Duration is a time.Duration that decodes from strings like "750ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid duration %q", text)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.Std().String()), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration.
type Config struct {
	Backend   Backend   `toml:"backend"`
	Push      Push      `toml:"push"`
	Editor    Editor    `toml:"editor"`
	Positions Positions `toml:"positions"`
	DevServer DevServer `toml:"devserver"`
}

type Backend struct {
	URL     string   `toml:"url"`
	PushURL string   `toml:"push_url"`
	Timeout Duration `toml:"timeout"`
}

type Push struct {
	Reconnect      bool     `toml:"reconnect"`
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
	Buffer         int      `toml:"buffer"`
}

type Editor struct {
	LogLimit int     `toml:"log_limit"`
	SeedX    float64 `toml:"seed_x"`
	SeedY    float64 `toml:"seed_y"`
}

type Positions struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	RedisAddr       string `toml:"redis_addr"`
	RedisKey        string `toml:"redis_key"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

type DevServer struct {
	Addr            string   `toml:"addr"`
	MetricsInterval Duration `toml:"metrics_interval"`
	Simulate        bool     `toml:"simulate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: Backend{
			URL:     "http://localhost:8080",
			Timeout: Duration(10 * time.Second),
		},
		Push: Push{
			Reconnect:      true,
			InitialBackoff: Duration(time.Second),
			MaxBackoff:     Duration(30 * time.Second),
			Buffer:         64,
		},
		Editor: Editor{
			LogLimit: 1000,
			SeedX:    100,
			SeedY:    100,
		},
		Positions: Positions{
			Backend:         positions.BackendFile,
			RedisAddr:       "localhost:6379",
			RedisKey:        "vertexflow:positions",
			MongoDatabase:   "vertexflow",
			MongoCollection: "positions",
		},
		DevServer: DevServer{
			Addr:            ":8080",
			MetricsInterval: Duration(time.Second),
			Simulate:        true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/vertexflow/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "vertexflow", "config.toml")
}

// Load builds the configuration from path. An empty path uses
// [DefaultPath]; a missing default file is not an error, a missing
// explicit one is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
			}
			if explicit {
				return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
			}
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode parses TOML data over the defaults. Environment variables are
// not consulted.
func Decode(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	return cfg, cfg.Validate()
}

// =============================================================================
// Environment
// =============================================================================

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.str("BACKEND_URL", &c.Backend.URL)
	env.str("PUSH_URL", &c.Backend.PushURL)
	env.duration("TIMEOUT", &c.Backend.Timeout)

	env.boolean("PUSH_RECONNECT", &c.Push.Reconnect)
	env.duration("PUSH_INITIAL_BACKOFF", &c.Push.InitialBackoff)
	env.duration("PUSH_MAX_BACKOFF", &c.Push.MaxBackoff)
	env.integer("PUSH_BUFFER", &c.Push.Buffer)

	env.integer("LOG_LIMIT", &c.Editor.LogLimit)

	env.str("POSITIONS", &c.Positions.Backend)
	env.str("POSITIONS_DIR", &c.Positions.Dir)
	env.str("REDIS_ADDR", &c.Positions.RedisAddr)
	env.str("REDIS_KEY", &c.Positions.RedisKey)
	env.str("MONGO_URI", &c.Positions.MongoURI)
	env.str("MONGO_DATABASE", &c.Positions.MongoDatabase)
	env.str("MONGO_COLLECTION", &c.Positions.MongoCollection)

	env.str("ADDR", &c.DevServer.Addr)
	env.duration("METRICS_INTERVAL", &c.DevServer.MetricsInterval)
	env.boolean("SIMULATE", &c.DevServer.Simulate)

	return env.err
}

type envReader struct {
	lookup lookupFunc
	err    error
}

func (r *envReader) get(name string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(EnvPrefix + name)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func (r *envReader) fail(name, value string, err error) {
	r.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s=%q", EnvPrefix, name, value)
}

func (r *envReader) str(name string, dst *string) {
	if v, ok := r.get(name); ok {
		*dst = v
	}
}

func (r *envReader) duration(name string, dst *Duration) {
	v, ok := r.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(name, v, err)
		return
	}
	*dst = Duration(d)
}

func (r *envReader) integer(name string, dst *int) {
	v, ok := r.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, v, err)
		return
	}
	*dst = n
}

func (r *envReader) boolean(name string, dst *bool) {
	v, ok := r.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(name, v, err)
		return
	}
	*dst = b
}

// =============================================================================
// Derived values
// =============================================================================

// Validate checks URLs, limits and the positions backend.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.Backend.URL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "backend.url")
	}
	if c.Backend.PushURL != "" {
		if err := errors.ValidateURL(c.Backend.PushURL, "ws", "wss"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "backend.push_url")
		}
	}
	if c.Backend.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "backend.timeout must be positive")
	}
	if c.Push.InitialBackoff <= 0 || c.Push.MaxBackoff < c.Push.InitialBackoff {
		return errors.New(errors.ErrCodeInvalidInput, "push backoff must satisfy 0 < initial_backoff <= max_backoff")
	}
	if c.Push.Buffer < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "push.buffer cannot be negative")
	}
	if c.Editor.LogLimit <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "editor.log_limit must be positive")
	}
	switch c.Positions.Backend {
	case positions.BackendNone, positions.BackendFile, positions.BackendRedis, positions.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "positions.backend %q is not one of none, file, redis, mongo", c.Positions.Backend)
	}
	if c.Positions.Backend == positions.BackendMongo && c.Positions.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "positions.mongo_uri is required for the mongo backend")
	}
	if c.DevServer.MetricsInterval <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "devserver.metrics_interval must be positive")
	}
	return nil
}

// PushURL returns the WebSocket URL, derived from the backend URL when not
// set explicitly: http becomes ws, https becomes wss, and /ws is appended.
func (c Config) PushURL() string {
	if c.Backend.PushURL != "" {
		return c.Backend.PushURL
	}
	u := strings.TrimSuffix(c.Backend.URL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// PositionsConfig converts the [positions] section for positions.Open.
func (c Config) PositionsConfig() positions.Config {
	return positions.Config{
		Backend:         c.Positions.Backend,
		Dir:             c.Positions.Dir,
		RedisAddr:       c.Positions.RedisAddr,
		RedisKey:        c.Positions.RedisKey,
		MongoURI:        c.Positions.MongoURI,
		MongoDatabase:   c.Positions.MongoDatabase,
		MongoCollection: c.Positions.MongoCollection,
		Timeout:         c.Backend.Timeout.Std(),
	}
}
