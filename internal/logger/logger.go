package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	User *UserLogger // Clean messages for users (stdout) with emojis
	Op   *OpLogger   // Detailed operational logs (stderr) without emojis

	log *UnifiedLogger
)

// init ensures loggers are never nil
func init() {
	log = GetLogger()
	User = &UserLogger{logger: log.GetInternalLogger()}
	Op = &OpLogger{logger: log.GetInternalLogger()}
}

type UserLogger struct {
	logger *logrus.Logger
}

type OpLogger struct {
	logger *logrus.Logger
}

const (
	emojiError   = "❌"
	emojiWarn    = "⚠️"
	emojiStart   = "🚀"
	emojiSuccess = "✅"
	emojiBuild   = "🔨"
	emojiFetch   = "📦"
	emojiLock    = "🔒"
)

func (u *UserLogger) entry(emoji string) *logrus.Entry {
	fields := []Field{WithLogType(UserLog)}
	if emoji != "" {
		fields = append(fields, WithEmoji(emoji))
	}
	return u.logger.WithFields(toLogrus(fields))
}

func (u *UserLogger) Success(msg string) {
	u.entry(emojiSuccess).Info(msg)
}

// Startingf announces the start of a run
func (u *UserLogger) Startingf(format string, args ...interface{}) {
	u.entry(emojiStart).Infof(format, args...)
}

// Buildingf announces a project being built
func (u *UserLogger) Buildingf(format string, args ...interface{}) {
	u.entry(emojiBuild).Infof(format, args...)
}

// Fetchingf announces a gem being resolved
func (u *UserLogger) Fetchingf(format string, args ...interface{}) {
	u.entry(emojiFetch).Infof(format, args...)
}

// Lockingf announces lock snapshot writes
func (u *UserLogger) Lockingf(format string, args ...interface{}) {
	u.entry(emojiLock).Infof(format, args...)
}

// OpLogger methods without emojis - clean operational logs
func (o *OpLogger) entry() *logrus.Entry {
	return o.logger.WithFields(toLogrus([]Field{WithLogType(OpLog)}))
}

func (o *OpLogger) Warnf(format string, args ...interface{}) {
	o.entry().Warnf(format, args...)
}

func (o *OpLogger) Debugf(format string, args ...interface{}) {
	o.entry().Debugf(format, args...)
}

// With returns an entry carrying the given fields
func (o *OpLogger) With(fields ...Field) *logrus.Entry {
	entryFields := toLogrus(fields)
	entryFields["log_type"] = string(OpLog)
	return o.logger.WithFields(entryFields)
}

func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	entryFields := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		entryFields[k] = v
	}
	entryFields["log_type"] = string(OpLog)
	return o.logger.WithFields(entryFields)
}

// CLIFormatter provides clean output for CLI applications
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	// Simple clean format: just the message for user-facing logs
	if f.DisableLevel && f.DisableTimestamp {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}

	if !f.DisableLevel {
		levelColor := ""
		resetColor := ""
		if !f.DisableColors {
			switch entry.Level {
			case logrus.ErrorLevel:
				levelColor = "\033[31m" // Red
			case logrus.WarnLevel:
				levelColor = "\033[33m" // Yellow
			case logrus.InfoLevel:
				levelColor = "\033[36m" // Cyan
			case logrus.DebugLevel:
				levelColor = "\033[37m" // White
			}
			resetColor = "\033[0m"
		}

		b.WriteString(levelColor)
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(resetColor)
		b.WriteString(": ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "log_type" || k == "emoji" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Mode is the logging configuration chosen from flags and environment
type Mode struct {
	Verbose bool
	JSON    bool
	Quiet   bool
}

// Level returns the logrus level of the mode
func (m Mode) Level() logrus.Level {
	switch {
	case m.Quiet:
		return logrus.ErrorLevel
	case m.Verbose:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// resolveMode applies LOG_MODE and LOG_FORMAT on top of the CLI flags
func resolveMode(verbose, jsonLogs, quiet bool) Mode {
	mode := Mode{Verbose: verbose, JSON: jsonLogs, Quiet: quiet}

	switch os.Getenv("LOG_MODE") {
	case "quiet":
		mode.Quiet, mode.Verbose = true, false
	case "verbose", "debug":
		mode.Verbose, mode.Quiet = true, false
	}

	switch os.Getenv("LOG_FORMAT") {
	case "json":
		mode.JSON = true
	case "text":
		mode.JSON = false
	}

	return mode
}

func Setup(verbose bool, jsonLogs bool, quiet bool) {
	mode := resolveMode(verbose, jsonLogs, quiet)
	configure(mode, os.Stdout, os.Stderr)
}

func configure(mode Mode, userOut, opOut io.Writer) {
	hook := NewOutputRouterHook()
	hook.UserWriter = userOut
	hook.OpWriter = opOut

	var formatter logrus.Formatter
	if mode.JSON {
		formatter = &logrus.JSONFormatter{}
		hook.UserFormatter = &logrus.JSONFormatter{}
		hook.OpFormatter = &logrus.JSONFormatter{}
	} else {
		formatter = &logrus.TextFormatter{}
		hook.UserFormatter = &CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		}

		stderrTTY := isatty.IsTerminal(os.Stderr.Fd())
		if mode.Verbose {
			hook.OpFormatter = &logrus.TextFormatter{
				FullTimestamp: true,
				ForceColors:   stderrTTY,
			}
		} else {
			hook.OpFormatter = &CLIFormatter{
				DisableTimestamp: true,
				DisableColors:    !stderrTTY,
			}
		}
	}

	// output is handled by the hook
	log.Configure(io.Discard, mode.Level(), formatter, hook)

	User = &UserLogger{logger: log.GetInternalLogger()}
	Op = &OpLogger{logger: log.GetInternalLogger()}
}
