package logx

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger. File enables a rotating log file in
// addition to stdout.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	traceIDKey
)

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Init builds the package-level logger and returns it.
func Init(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, err
		}
	}

	enc := zapcore.NewJSONEncoder(encoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)}
	if opts.File != "" {
		if opts.MaxSizeMB <= 0 {
			opts.MaxSizeMB = 10
		}
		if opts.MaxBackups <= 0 {
			opts.MaxBackups = 5
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotating), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	mu.Lock()
	logger = l
	mu.Unlock()
	zap.ReplaceGlobals(l)
	return l, nil
}

// L returns the package-level logger instance.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// WithFields enriches logs with request IDs / trace IDs from context.
func WithFields(ctx context.Context) *zap.Logger {
	l := L()
	if id := RequestID(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if id := TraceID(ctx); id != "" {
		l = l.With(zap.String("trace_id", id))
	}
	return l
}
