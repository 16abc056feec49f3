package logging

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the configured level. It accepts level names and the
// numeric levels 0 (trace) to 5 (silent).
const LevelEnv = "SHMBRIDGE_LOG_LEVEL"

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
}

// DefaultConfig returns the production logger configuration. Like the
// shared memory layer it wraps, it only reports warnings and above.
func DefaultConfig() Config {
	return Config{
		Level:       "warn",
		OutputPaths: []string{"stderr"},
	}
}

// New builds a zap logger. A level set through LevelEnv wins over cfg.Level.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	raw := cfg.Level
	if env := os.Getenv(LevelEnv); env != "" {
		raw = env
	}
	level, err := ParseLevel(raw)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atom := zap.NewAtomicLevelAt(level)

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	zapCfg := zap.Config{
		Level:             atom,
		Development:       cfg.Development,
		Encoding:          encodingFormat(cfg.Development),
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, atom, nil
}

// NewOrNop is New that falls back to a no-op logger.
func NewOrNop(cfg Config) *zap.Logger {
	logger, _, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// numericLevels maps the legacy numeric levels. zap has no trace level and
// "no print" only lets fatal messages through.
var numericLevels = []zapcore.Level{
	zapcore.DebugLevel,
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
	zapcore.ErrorLevel,
	zapcore.FatalLevel,
}

// ParseLevel converts a level name or legacy number to a zapcore.Level.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(numericLevels) {
			return zapcore.WarnLevel, &levelError{s}
		}
		return numericLevels[n], nil
	}
	if strings.EqualFold(s, "trace") {
		return zapcore.DebugLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.WarnLevel, &levelError{s}
	}
	return l, nil
}

type levelError struct{ level string }

func (e *levelError) Error() string { return "logging: unknown level " + strconv.Quote(e.level) }

func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
