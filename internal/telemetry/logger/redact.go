package logger

import (
	"log/slog"
	"net/url"
	"strings"
)

// Connection string schemes whose userinfo password is masked wherever it
// appears in a log value.
var credentialSchemes = []string{
	"postgres://",
	"postgresql://",
	"redis://",
	"rediss://",
}

// Key patterns whose values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"dsn",
	"credential",
	"auth",
	"bearer",
}

const redactedValue = "***REDACTED***"

// redactSensitive returns a if it carries nothing sensitive, otherwise a
// copy with the sensitive part masked.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if IsSensitiveKey(a.Key) {
			if a.Value.String() != "" {
				return slog.String(a.Key, redactedValue)
			}
			return a
		}
		if IsSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, RedactString(a.Value.String()))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks the password of a connection URL. Other values are
// returned unchanged.
func RedactString(value string) string {
	if !IsSensitiveValue(value) {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, ok := u.User.Password(); !ok {
		return value
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value is a connection URL that may embed
// credentials.
func IsSensitiveValue(value string) bool {
	for _, scheme := range credentialSchemes {
		if strings.HasPrefix(value, scheme) && strings.Contains(value, "@") {
			return true
		}
	}
	return false
}
