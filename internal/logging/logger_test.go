package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		env    string
		want   zapcore.Level
		wantOK bool
	}{
		{"explicit debug", "debug", "", zapcore.DebugLevel, true},
		{"explicit error", "error", "", zapcore.ErrorLevel, true},
		{"unknown falls back to info", "loud", "", zapcore.InfoLevel, true},
		{"from environment", "", "warn", zapcore.WarnLevel, true},
		{"explicit wins over environment", "error", "debug", zapcore.ErrorLevel, true},
		{"silent", "", "", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.env)

			got, ok := resolveLevel(tt.level)
			if ok != tt.wantOK {
				t.Fatalf("resolveLevel(%q) ok = %v, want %v", tt.level, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("resolveLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLogConnection(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogConnection("127.0.0.1:5000", "connection_accepted")

	entries := logs.FilterField(zap.String("event", "connection_accepted")).All()
	if len(entries) != 1 {
		t.Fatalf("got %d connection entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["remote_addr"]; got != "127.0.0.1:5000" {
		t.Errorf("remote_addr = %v, want 127.0.0.1:5000", got)
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte("ok\n\x00")); got != "ok.." {
		t.Errorf("asciiDump() = %q, want %q", got, "ok..")
	}
	if got := hexDump([]byte{0xde, 0xad}); got != "dead" {
		t.Errorf("hexDump() = %q, want %q", got, "dead")
	}
}
