package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Loggers groups the application's named loggers. Each one writes JSON lines
// to its own file so audit and security events can be shipped separately.
type Loggers struct {
	Error    *zap.Logger
	Audit    *zap.Logger
	Request  *zap.Logger
	Security *zap.Logger
	System   *zap.Logger
}

func encoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(encoderCfg)
}

func newFileLogger(filePath string, level zapcore.Level) (*zap.Logger, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder(), zapcore.AddSync(file), level)
	return zap.New(core), nil
}

func newStdoutLogger(name string, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(encoder(), zapcore.Lock(os.Stdout), level)
	return zap.New(core).Named(name)
}

// New creates the loggers under dir (errors.log, audit.log, request.log,
// security.log, system.log). An empty dir logs everything to stdout.
func New(dir string) (*Loggers, error) {
	l := &Loggers{}
	outputs := []struct {
		name  string
		level zapcore.Level
		dst   **zap.Logger
	}{
		{"errors", zapcore.ErrorLevel, &l.Error},
		{"audit", zapcore.InfoLevel, &l.Audit},
		{"request", zapcore.InfoLevel, &l.Request},
		{"security", zapcore.WarnLevel, &l.Security},
		{"system", zapcore.InfoLevel, &l.System},
	}

	if dir == "" {
		for _, s := range outputs {
			*s.dst = newStdoutLogger(s.name, s.level)
		}
		return l, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	for _, s := range outputs {
		lg, err := newFileLogger(filepath.Join(dir, s.name+".log"), s.level)
		if err != nil {
			return nil, fmt.Errorf("cannot create %s logger: %w", s.name, err)
		}
		*s.dst = lg
	}
	return l, nil
}

// Nop returns loggers that discard everything.
func Nop() *Loggers {
	return &Loggers{
		Error:    zap.NewNop(),
		Audit:    zap.NewNop(),
		Request:  zap.NewNop(),
		Security: zap.NewNop(),
		System:   zap.NewNop(),
	}
}

// Sync flushes every logger.
func (l *Loggers) Sync() {
	_ = l.Error.Sync()
	_ = l.Audit.Sync()
	_ = l.Request.Sync()
	_ = l.Security.Sync()
	_ = l.System.Sync()
}
