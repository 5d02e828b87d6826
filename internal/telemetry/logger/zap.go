package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevel mirrors globalLevel for the zap backend.
var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func syncZapLevel() {
	switch globalLevel.Level() {
	case slog.LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case slog.LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case slog.LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	default:
		zapLevel.SetLevel(zapcore.InfoLevel)
	}
}

type zapLogger struct {
	logger *zap.Logger
	ctx    context.Context
}

func newZap(cfg Config, output io.Writer) *zapLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), zapLevel)
	opts := []zap.Option{}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return &zapLogger{logger: zap.New(core, opts...), ctx: context.Background()}
}

// zapFields converts slog-style key/value pairs into zap fields, applying the
// same redaction as the slog backend.
func zapFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			a := redactSensitive(v)
			fields = append(fields, zap.Any(a.Key, a.Value.Any()))
		case string:
			if i+1 >= len(args) {
				fields = append(fields, zap.Any("!BADKEY", v))
				continue
			}
			a := redactSensitive(slog.Any(v, args[i+1]))
			fields = append(fields, zap.Any(a.Key, a.Value.Any()))
			i++
		default:
			fields = append(fields, zap.Any("!BADKEY", v))
		}
	}
	return fields
}

func (l *zapLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, zapFields(args)...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.logger.Info(msg, zapFields(args)...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, zapFields(args)...) }
func (l *zapLogger) Error(msg string, args ...any) { l.logger.Error(msg, zapFields(args)...) }

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(zapFields(args)...), ctx: l.ctx}
}

func (l *zapLogger) WithContext(ctx context.Context) Logger {
	return &zapLogger{logger: l.logger, ctx: ctx}
}

// Sync flushes buffered zap output. It is a no-op for other backends.
func Sync(l Logger) error {
	if zl, ok := l.(*zapLogger); ok {
		return zl.logger.Sync()
	}
	return nil
}
