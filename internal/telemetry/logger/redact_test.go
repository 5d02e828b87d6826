package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"password", "hunter2", redactedValue},
		{"redis_password", "s3cr3t", redactedValue},
		{"postgres_dsn", "host=db user=ledger", redactedValue},
		{"api_token", "abc", redactedValue},
		{"password", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := redactSensitive(slog.String(tt.key, tt.value))
			if got.Value.String() != tt.want {
				t.Errorf("redactSensitive(%s=%q) = %q, want %q", tt.key, tt.value, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactSensitive_ConnectionURL(t *testing.T) {
	got := redactSensitive(slog.String("target", "postgres://ledger:hunter2@db:5432/ledger"))
	if strings.Contains(got.Value.String(), "hunter2") {
		t.Errorf("password leaked: %q", got.Value.String())
	}
	if !strings.Contains(got.Value.String(), "ledger:xxxxx@db:5432") {
		t.Errorf("unexpected masking: %q", got.Value.String())
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	attrs := []slog.Attr{
		slog.String("account_id", "42"),
		slog.String("amount", "1000.50"),
		slog.String("addr", "redis://cache:6379/0"),
		slog.Int("retries", 3),
	}
	for _, a := range attrs {
		got := redactSensitive(a)
		if !got.Equal(a) {
			t.Errorf("redactSensitive(%v) = %v, want unchanged", a, got)
		}
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("storage", slog.String("password", "pw"), slog.String("engine", "redis"))
	got := redactSensitive(a)
	attrs := got.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("nested password = %q, want redacted", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "redis" {
		t.Errorf("nested engine = %q, want redis", attrs[1].Value.String())
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"redis://:pw@cache:6379/0", "redis://:xxxxx@cache:6379/0"},
		{"postgres://u@db/ledger", "postgres://u@db/ledger"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggerOutputIsRedacted(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Backend: backend, Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.Info("connecting", "password", "hunter2", "engine", "postgres")
			_ = Sync(l)

			out := buf.String()
			if strings.Contains(out, "hunter2") {
				t.Errorf("%s backend leaked password: %s", backend, out)
			}
			if !strings.Contains(out, "postgres") {
				t.Errorf("%s backend dropped engine field: %s", backend, out)
			}
		})
	}
}
