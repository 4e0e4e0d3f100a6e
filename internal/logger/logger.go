// Package logger provides structured, leveled logging for the NFS stack.
//
// It is a thin wrapper over the standard library's log/slog: callers get
// Debug/Info/Warn/Error plus context-aware *Ctx variants that pull
// request-scoped fields (client IP, procedure, XID) out of a
// context.Context without having to thread a logger handle through every
// call.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level mirrors slog.Level with a small, stable enum for configuration.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config controls the package-level logger.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output io.Writer
}

var (
	currentLevel atomic.Int32
	handlerLevel = new(slog.LevelVar)

	mu      sync.RWMutex
	slogger *slog.Logger
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	reconfigure("text", os.Stderr)
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func reconfigure(format string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	handlerLevel.Set(toSlogLevel(Level(currentLevel.Load())))
	opts := &slog.HandlerOptions{Level: handlerLevel}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slogger = slog.New(h)
}

// Init reconfigures the package-level logger. Safe to call more than once;
// an empty Level leaves the current level unchanged, while an empty
// Format or nil Output selects text output to stderr.
func Init(cfg Config) {
	format := "text"
	if cfg.Format != "" {
		format = strings.ToLower(cfg.Format)
	}
	w := io.Writer(os.Stderr)
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	reconfigure(format, w)
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	}
	handlerLevel.Set(toSlogLevel(Level(currentLevel.Load())))
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with structured key/value pairs.
func Debug(msg string, args ...any) {
	if LevelDebug < Level(currentLevel.Load()) {
		return
	}
	getLogger().Debug(msg, args...)
}

// Info logs at info level with structured key/value pairs.
func Info(msg string, args ...any) {
	if LevelInfo < Level(currentLevel.Load()) {
		return
	}
	getLogger().Info(msg, args...)
}

// Warn logs at warn level with structured key/value pairs.
func Warn(msg string, args ...any) {
	if LevelWarn < Level(currentLevel.Load()) {
		return
	}
	getLogger().Warn(msg, args...)
}

// Error logs at error level with structured key/value pairs.
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// DebugCtx logs at debug level, prepending fields carried on ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	if LevelDebug < Level(currentLevel.Load()) {
		return
	}
	getLogger().Debug(msg, appendContextFields(ctx, args)...)
}

// InfoCtx logs at info level, prepending fields carried on ctx.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	if LevelInfo < Level(currentLevel.Load()) {
		return
	}
	getLogger().Info(msg, appendContextFields(ctx, args)...)
}

// WarnCtx logs at warn level, prepending fields carried on ctx.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	if LevelWarn < Level(currentLevel.Load()) {
		return
	}
	getLogger().Warn(msg, appendContextFields(ctx, args)...)
}

// ErrorCtx logs at error level, prepending fields carried on ctx.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	getLogger().Error(msg, appendContextFields(ctx, args)...)
}

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}
	fields := make([]any, 0, 8+len(args))
	if lc.ConnID != "" {
		fields = append(fields, "conn_id", lc.ConnID)
	}
	if lc.ClientIP != "" {
		fields = append(fields, "client_ip", lc.ClientIP)
	}
	if lc.Procedure != "" {
		fields = append(fields, "procedure", lc.Procedure)
	}
	if lc.XID != 0 {
		fields = append(fields, "xid", lc.XID)
	}
	return append(fields, args...)
}
