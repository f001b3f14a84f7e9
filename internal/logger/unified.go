package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogType represents the type of log message
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// UnifiedLogger owns the logrus logger shared by User and Op
type UnifiedLogger struct {
	mu     sync.RWMutex
	logger *logrus.Logger
}

var (
	unifiedLog *UnifiedLogger
	once       sync.Once
)

// GetLogger returns the global logger instance, initializing it if necessary
func GetLogger() *UnifiedLogger {
	once.Do(func() {
		logger := logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		})
		unifiedLog = &UnifiedLogger{logger: logger}
	})
	return unifiedLog
}

func WithLogType(logType LogType) Field {
	return Field{Key: "log_type", Value: string(logType)}
}

func WithEmoji(emoji string) Field {
	return Field{Key: "emoji", Value: emoji}
}

// WithRun tags entries with the id of a build run
func WithRun(id string) Field {
	return Field{Key: "run", Value: id}
}

// WithTask tags entries with a task name
func WithTask(name string) Field {
	return Field{Key: "task", Value: name}
}

func toLogrus(fields []Field) logrus.Fields {
	logFields := make(logrus.Fields, len(fields))
	for _, field := range fields {
		logFields[field.Key] = field.Value
	}
	return logFields
}

// Configure replaces output, level, formatter and hooks of the underlying logger
func (l *UnifiedLogger) Configure(output io.Writer, level logrus.Level, formatter logrus.Formatter, hooks ...logrus.Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.SetOutput(output)
	l.logger.SetLevel(level)
	l.logger.SetFormatter(formatter)

	levelHooks := make(logrus.LevelHooks)
	for _, hook := range hooks {
		levelHooks.Add(hook)
	}
	l.logger.ReplaceHooks(levelHooks)
}

// GetInternalLogger returns the underlying logrus logger (use with caution)
func (l *UnifiedLogger) GetInternalLogger() *logrus.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}
