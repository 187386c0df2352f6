// Package zerologger adapts github.com/rs/zerolog to settings.Logger.
package zerologger

import (
	"fmt"

	"github.com/rs/zerolog"

	settings "github.com/goliatone/go-settings"
)

// Logger forwards settings log calls to a zerolog logger.
type Logger struct {
	log zerolog.Logger
}

// Wrap adapts log.
func Wrap(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Debug(msg string, args ...any) { write(l.log.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { write(l.log.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { write(l.log.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { write(l.log.Error(), msg, args) }

// write attaches alternating key/value args. A trailing key without a value
// is logged under "!BADKEY".
func write(event *zerolog.Event, msg string, args []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			event = event.Interface("!BADKEY", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		switch value := args[i+1].(type) {
		case error:
			event = event.AnErr(key, value)
		case nil:
			event = event.Interface(key, nil)
		default:
			event = event.Interface(key, value)
		}
	}
	event.Msg(msg)
}

var _ settings.Logger = (*Logger)(nil)
