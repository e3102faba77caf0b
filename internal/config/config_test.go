package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/positions"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestDecode(t *testing.T) {
	cfg, err := Decode(`
[backend]
url = "https://flows.example.com"
timeout = "3s"

[push]
initial_backoff = "250ms"
max_backoff = "5s"

[positions]
backend = "redis"
redis_addr = "cache:6379"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Backend.URL != "https://flows.example.com" || cfg.Backend.Timeout.Std() != 3*time.Second {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Push.InitialBackoff.Std() != 250*time.Millisecond || cfg.Push.MaxBackoff.Std() != 5*time.Second {
		t.Errorf("push = %+v", cfg.Push)
	}
	if !cfg.Push.Reconnect || cfg.Editor.LogLimit != 1000 {
		t.Error("unset fields lost their defaults")
	}
	if cfg.Positions.Backend != positions.BackendRedis || cfg.Positions.RedisAddr != "cache:6379" {
		t.Errorf("positions = %+v", cfg.Positions)
	}
	if got := cfg.PushURL(); got != "wss://flows.example.com/ws" {
		t.Errorf("PushURL() = %q", got)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad duration", "[backend]\ntimeout = \"soon\""},
		{"bad url", "[backend]\nurl = \"localhost\""},
		{"http push url", "[backend]\npush_url = \"http://x/ws\""},
		{"backoff order", "[push]\ninitial_backoff = \"10s\"\nmax_backoff = \"1s\""},
		{"unknown positions backend", "[positions]\nbackend = \"s3\""},
		{"mongo without uri", "[positions]\nbackend = \"mongo\""},
		{"zero log limit", "[editor]\nlog_limit = 0"},
		{"syntax", "[backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.toml); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Decode error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestPushURLDerivation(t *testing.T) {
	tests := []struct {
		backend, push, want string
	}{
		{"http://localhost:8080", "", "ws://localhost:8080/ws"},
		{"http://localhost:8080/", "", "ws://localhost:8080/ws"},
		{"https://flows.example.com/api", "", "wss://flows.example.com/api/ws"},
		{"http://localhost:8080", "ws://push:9000/events", "ws://push:9000/events"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Backend.URL, cfg.Backend.PushURL = tt.backend, tt.push
		if got := cfg.PushURL(); got != tt.want {
			t.Errorf("PushURL(%q, %q) = %q, want %q", tt.backend, tt.push, got, tt.want)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := "[backend]\nurl = \"http://from-file:1\"\ntimeout = \"2s\"\n[editor]\nlog_limit = 50\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)
	t.Setenv("VERTEXFLOW_BACKEND_URL", "http://from-env:2")
	t.Setenv("VERTEXFLOW_PUSH_RECONNECT", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "http://from-env:2" {
		t.Errorf("url = %q, want env value", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout.Std() != 2*time.Second || cfg.Editor.LogLimit != 50 {
		t.Errorf("file values lost: %+v %+v", cfg.Backend, cfg.Editor)
	}
	if cfg.Push.Reconnect {
		t.Error("env did not disable reconnect")
	}
	if cfg.Push.Buffer != 64 {
		t.Errorf("buffer = %d, want default 64", cfg.Push.Buffer)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VERTEXFLOW_LOG_LIMIT=7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("VERTEXFLOW_LOG_LIMIT", "")
	os.Unsetenv("VERTEXFLOW_LOG_LIMIT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor.LogLimit != 7 {
		t.Errorf("log_limit = %d, want 7 from .env", cfg.Editor.LogLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("explicit missing file = %v, want NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(""); err != nil {
		t.Errorf("missing default file = %v, want nil", err)
	}
}

func TestEnvRejectsBadValues(t *testing.T) {
	env := map[string]string{"VERTEXFLOW_PUSH_BUFFER": "lots"}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("applyEnv = %v, want INVALID_INPUT", err)
	}
}

func TestPositionsConfig(t *testing.T) {
	cfg := Default()
	cfg.Positions.Dir = "/tmp/vf"
	pc := cfg.PositionsConfig()
	if pc.Backend != positions.BackendFile || pc.Dir != "/tmp/vf" || pc.Timeout != 10*time.Second {
		t.Errorf("PositionsConfig() = %+v", pc)
	}
}
