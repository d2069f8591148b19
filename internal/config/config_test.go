package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "aesdsocket") {
		t.Errorf("GetConfigDir() = %v, should contain 'aesdsocket'", configDir)
	}

	if runtime.GOOS == "linux" && configDir != filepath.Join("/tmp/xdg-test", "aesdsocket") {
		t.Errorf("GetConfigDir() = %v, want XDG_CONFIG_HOME based path", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != 9000 {
		t.Errorf("Default().Port = %d, want 9000", cfg.Port)
	}
	if cfg.DataFile != "/var/tmp/aesdsocketdata" {
		t.Errorf("Default().DataFile = %q", cfg.DataFile)
	}
	if cfg.AcceptTimeout.D() != time.Second {
		t.Errorf("Default().AcceptTimeout = %v, want 1s", cfg.AcceptTimeout)
	}
	if cfg.TimestampInterval.D() != 10*time.Second {
		t.Errorf("Default().TimestampInterval = %v, want 10s", cfg.TimestampInterval)
	}
	if cfg.Addr() != ":9000" {
		t.Errorf("Default().Addr() = %q, want :9000", cfg.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty document keeps defaults",
			yaml: "",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Port != DefaultPort {
					t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
				}
			},
		},
		{
			name: "overrides",
			yaml: `
version: 1
host: 127.0.0.1
port: 9100
data_file: /tmp/log
accept_timeout: 250ms
timestamp_interval: 0s
poll_interval: 20ms
chunk_size: 16
log_level: debug
tail_addr: 127.0.0.1:9180
advertise: true
`,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Addr() != "127.0.0.1:9100" {
					t.Errorf("Addr() = %q", cfg.Addr())
				}
				if cfg.AcceptTimeout.D() != 250*time.Millisecond {
					t.Errorf("AcceptTimeout = %v", cfg.AcceptTimeout)
				}
				if cfg.TimestampInterval != 0 {
					t.Errorf("TimestampInterval = %v, want 0", cfg.TimestampInterval)
				}
				if cfg.ChunkSize != 16 || cfg.LogLevel != "debug" || !cfg.Advertise {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.InstanceName != DefaultInstanceName {
					t.Errorf("InstanceName = %q, want default", cfg.InstanceName)
				}
			},
		},
		{name: "bad duration", yaml: "accept_timeout: soon", wantErr: true},
		{name: "zero accept timeout", yaml: "accept_timeout: 0s", wantErr: true},
		{name: "negative interval", yaml: "timestamp_interval: -1s", wantErr: true},
		{name: "port out of range", yaml: "port: 70000", wantErr: true},
		{name: "unknown log level", yaml: "log_level: loud", wantErr: true},
		{name: "zero chunk size", yaml: "chunk_size: 0", wantErr: true},
		{name: "unsupported version", yaml: "version: 2", wantErr: true},
		{name: "malformed yaml", yaml: "port: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.verify != nil && cfg != nil {
				tt.verify(t, cfg)
			}
		})
	}
}

func TestParse_ValidationErrorsWrapErrInvalid(t *testing.T) {
	_, err := Parse([]byte("chunk_size: -4"))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Parse() error = %v, want ErrInvalid", err)
	}
}

func TestLoad_MissingDefaultIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Load(\"\").Port = %d, want default", cfg.Port)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing explicit path should fail")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Port = 9200
	cfg.PollInterval = Duration(50 * time.Millisecond)
	cfg.TailAddr = "127.0.0.1:9280"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Port != 9200 || loaded.PollInterval.D() != 50*time.Millisecond || loaded.TailAddr != "127.0.0.1:9280" {
		t.Errorf("Load() = %+v, want saved values", loaded)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after Save()")
	}
}
