package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// Rotation settings for the durable log file.
const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

type Logger struct {
	level   LogLevel
	base    *logrus.Logger
	rotator *lumberjack.Logger
}

// NewLogger writes to stdout and, when path is set, to a rotated log file.
func NewLogger(level LogLevel, path string) (*Logger, error) {
	return newLogger(level, path, os.Stdout)
}

func newLogger(level LogLevel, path string, console io.Writer) (*Logger, error) {
	base := logrus.New()
	base.SetLevel(logrusLevel(level))
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	l := &Logger{level: level, base: base}

	writers := []io.Writer{}
	if console != nil {
		writers = append(writers, console)
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		l.rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, l.rotator)
	}

	switch len(writers) {
	case 0:
		base.SetOutput(io.Discard)
	case 1:
		base.SetOutput(writers[0])
	default:
		base.SetOutput(io.MultiWriter(writers...))
	}

	return l, nil
}

// NewDiscardLogger returns a logger that drops everything. Useful in tests.
func NewDiscardLogger() *Logger {
	l, _ := newLogger(LevelDebug, "", nil)
	return l
}

func logrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// WithFields returns an entry carrying structured fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	if l == nil {
		return logrus.NewEntry(discard)
	}
	return l.base.WithFields(fields)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l != nil {
		l.base.Debugf(format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l != nil {
		l.base.Infof(format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l != nil {
		l.base.Warnf(format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l != nil {
		l.base.Errorf(format, args...)
	}
}

func (l *Logger) Critical(format string, args ...interface{}) {
	if l != nil {
		l.base.WithField("severity", "critical").Errorf(format, args...)
	}
}

func (l *Logger) Close() error {
	if l == nil || l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

var discard = func() *logrus.Logger {
	d := logrus.New()
	d.SetOutput(io.Discard)
	return d
}()

var GlobalLogger *Logger

func InitGlobalLogger(level LogLevel, path string) error {
	logger, err := NewLogger(level, path)
	if err != nil {
		return err
	}
	GlobalLogger = logger
	return nil
}

func Debug(format string, args ...interface{}) {
	GlobalLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	GlobalLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	GlobalLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	GlobalLogger.Error(format, args...)
}

func Critical(format string, args ...interface{}) {
	GlobalLogger.Critical(format, args...)
}
