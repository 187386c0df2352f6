package settings

// Logger records engine events as a message plus alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogLevel names the severity passed to a LoggerFunc.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(level LogLevel, msg string, args ...any)

func (f LoggerFunc) Debug(msg string, args ...any) { f.log(LevelDebug, msg, args) }
func (f LoggerFunc) Info(msg string, args ...any)  { f.log(LevelInfo, msg, args) }
func (f LoggerFunc) Warn(msg string, args ...any)  { f.log(LevelWarn, msg, args) }
func (f LoggerFunc) Error(msg string, args ...any) { f.log(LevelError, msg, args) }

func (f LoggerFunc) log(level LogLevel, msg string, args []any) {
	if f != nil {
		f(level, msg, args...)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return noopLogger{}
}
