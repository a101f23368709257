package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger provides structured key/value logging for watchtrace components.
// Fields are passed as alternating key/value pairs, or as a single
// map[string]interface{}.
type Logger struct {
	log       *logrus.Logger
	component string
}

// NewLogger creates a new logger with the given level and component name.
// Unknown levels fall back to info.
func NewLogger(level, component string) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return &Logger{log: log, component: component}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	l.log.SetLevel(lvl)
}

// SetOutput redirects log output. The interactive shell owns the terminal,
// so the main program points this at a file or io.Discard while the UI runs.
func (l *Logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

func (l *Logger) fields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	if l.component != "" {
		fields["component"] = l.component
	}
	if len(kv) == 1 {
		if m, ok := kv[0].(map[string]interface{}); ok {
			for k, v := range m {
				fields[k] = v
			}
			return fields
		}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// Trace logs a message at trace level.
func (l *Logger) Trace(msg string, kv ...interface{}) {
	l.log.WithFields(l.fields(kv)).Trace(msg)
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.log.WithFields(l.fields(kv)).Debug(msg)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.log.WithFields(l.fields(kv)).Info(msg)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.log.WithFields(l.fields(kv)).Warn(msg)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.log.WithFields(l.fields(kv)).Error(msg)
}
