package logger

import (
	"fmt"
	"io"
	"log"

	"github.com/rollbar/rollbar-go"
)

// Logger is the logging surface used across the service.
// expected args: error | map[string]interface{} | anything printable
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type Options struct {
	Token   string // empty disables rollbar
	Env     string
	Host    string
	Version string
}

// RollbarLogger writes every entry to std and mirrors it to Rollbar.
type RollbarLogger struct {
	std     *log.Logger
	enabled bool
}

var _ Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, opts Options) *RollbarLogger {
	enabled := opts.Token != ""
	rollbar.SetEnabled(enabled)
	if enabled {
		rollbar.SetToken(opts.Token)
		rollbar.SetEnvironment(opts.Env)
		rollbar.SetServerHost(opts.Host)
		rollbar.SetCodeVersion(opts.Version)
	}
	return &RollbarLogger{std: std, enabled: enabled}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *RollbarLogger {
	return &RollbarLogger{std: log.New(io.Discard, "", 0)}
}

// Flush blocks until queued rollbar items are sent.
func (l *RollbarLogger) Flush() {
	if l.enabled {
		rollbar.Wait()
	}
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	line := level + " " + msg
	for _, arg := range args {
		line += fmt.Sprintf(" %+v", arg)
	}
	l.std.Println(line)
}

func (l *RollbarLogger) report(fn func(...interface{}), msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	fn(append([]interface{}{msg}, args...)...)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, msg, args)
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
	l.print("ERROR", msg, args)
}
