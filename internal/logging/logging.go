// Package logging adapts apex/log to the key/value logger used by the
// service and persistence layers.
package logging

import (
	"fmt"
	"io"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	texthandler "github.com/apex/log/handlers/text"
)

// Logger forwards Debug/Info/Warn/Error(msg, kv...) to an apex logger.
type Logger struct {
	entry log.Interface
}

// New builds a logger writing to w. Production output is JSON; everything
// else is human readable text. An unknown level falls back to info.
func New(w io.Writer, level string, production bool) *Logger {
	var handler log.Handler = texthandler.New(w)
	if production {
		handler = jsonhandler.New(w)
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return Wrap(&log.Logger{Handler: handler, Level: lvl})
}

// Wrap adapts an existing apex logger or entry.
func Wrap(l log.Interface) *Logger {
	return &Logger{entry: l}
}

// With returns a logger that always carries the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(kv))}
}

func (l *Logger) Debug(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Debug(msg) }
func (l *Logger) Info(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Info(msg) }
func (l *Logger) Warn(msg string, kv ...any)  { l.entry.WithFields(fields(kv)).Warn(msg) }
func (l *Logger) Error(msg string, kv ...any) { l.entry.WithFields(fields(kv)).Error(msg) }

// fields pairs up kv. Non-string keys are formatted; a trailing key without
// a value is kept under "!BADKEY".
func fields(kv []any) log.Fields {
	out := make(log.Fields, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			out["!BADKEY"] = key
			break
		}
		value := kv[i+1]
		if err, isErr := value.(error); isErr && err != nil {
			value = err.Error()
		}
		out[key] = value
	}
	return out
}
