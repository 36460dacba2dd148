package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "defaults to info", cfg: Config{}, enabled: zapcore.InfoLevel},
		{name: "debug json", cfg: Config{Level: "debug", Format: "json"}, enabled: zapcore.DebugLevel},
		{name: "warn", cfg: Config{Level: " WARN "}, enabled: zapcore.WarnLevel},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, err := New(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !l.Core().Enabled(tc.enabled) {
				t.Fatalf("level %s not enabled", tc.enabled)
			}
			if tc.enabled > zapcore.DebugLevel && l.Core().Enabled(tc.enabled-1) {
				t.Fatalf("level below %s enabled", tc.enabled)
			}
		})
	}
}

func TestNormalizeFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"": "console", "JSON": "json", " json ": "json", "text": "console"} {
		if got := NormalizeFormat(in); got != want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
