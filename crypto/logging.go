package crypto

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/sirupsen/logrus"
)

// LoggerHelper builds structured log entries for one function of one package.
// Every With method returns a new helper, so a helper can be extended without
// touching the fields of the one it came from.
type LoggerHelper struct {
	function string
	pkg      string
	fields   logrus.Fields
	started  time.Time
}

// NewLogger creates a logger helper for a function in this package.
func NewLogger(function string) *LoggerHelper {
	return NewPackageLogger("crypto", function)
}

// NewPackageLogger creates a logger helper for a function in another package.
func NewPackageLogger(pkg, function string) *LoggerHelper {
	return &LoggerHelper{
		function: function,
		pkg:      pkg,
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

func (l *LoggerHelper) with(extra logrus.Fields) *LoggerHelper {
	fields := make(logrus.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &LoggerHelper{function: l.function, pkg: l.pkg, fields: fields, started: l.started}
}

// WithCaller adds the file, line and function of the caller.
func (l *LoggerHelper) WithCaller() *LoggerHelper {
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return l
	}
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
		if lastSlash := strings.LastIndex(funcName, "/"); lastSlash >= 0 {
			funcName = funcName[lastSlash+1:]
		}
	}
	return l.with(logrus.Fields{
		"caller":      fmt.Sprintf("%s:%d", file, line),
		"caller_func": funcName,
	})
}

// WithField adds one field.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	return l.with(logrus.Fields{key: value})
}

// WithFields adds several fields.
func (l *LoggerHelper) WithFields(fields logrus.Fields) *LoggerHelper {
	return l.with(fields)
}

// WithError records err, its cryptoerr kind and the failed operation.
func (l *LoggerHelper) WithError(err error, operation string) *LoggerHelper {
	return l.with(logrus.Fields{
		"error":      err.Error(),
		"error_kind": ErrorKindName(err),
		"operation":  operation,
	})
}

// WithPreview adds a SecureFieldHash preview of public or encrypted data.
func (l *LoggerHelper) WithPreview(data []byte, name string) *LoggerHelper {
	return l.with(SecureFieldHash(data, name))
}

// DebugEnabled reports whether Debug output would be written. Hot paths check
// it before building fields.
func (l *LoggerHelper) DebugEnabled() bool {
	return logrus.IsLevelEnabled(logrus.DebugLevel)
}

// Entry logs function entry and starts the timer reported by Exit.
func (l *LoggerHelper) Entry(message string) {
	l.started = time.Now()
	logrus.WithFields(l.fields).Debug("Function entry: " + message)
}

// Exit logs function exit with the time elapsed since Entry.
func (l *LoggerHelper) Exit() {
	entry := logrus.WithFields(l.fields)
	if !l.started.IsZero() {
		entry = entry.WithField("elapsed", time.Since(l.started).String())
	}
	entry.Debug("Function exit: " + l.function)
}

// Debug logs a debug message.
func (l *LoggerHelper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *LoggerHelper) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *LoggerHelper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *LoggerHelper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}

// ErrorKindName names the cryptoerr kind of err for log fields.
func ErrorKindName(err error) string {
	switch cryptoerr.Kind(err) {
	case cryptoerr.ErrLogic:
		return "logic"
	case cryptoerr.ErrData:
		return "data"
	case cryptoerr.ErrCrypto:
		return "crypto"
	case cryptoerr.ErrWrongPassword:
		return "wrong_password"
	default:
		return "external"
	}
}

// SecureFieldHash creates a preview of public or encrypted data for logging.
// Only the size and the first 8 bytes are shown; never pass key material.
func SecureFieldHash(data []byte, name string) logrus.Fields {
	preview := "nil"
	if n := len(data); n > 0 {
		if n > 8 {
			preview = fmt.Sprintf("%x...", data[:8])
		} else {
			preview = fmt.Sprintf("%x", data)
		}
	}
	return logrus.Fields{
		name + "_preview": preview,
		name + "_size":    len(data),
	}
}

// OperationFields merges an operation name, its status and extra fields.
func OperationFields(operation, status string, additional ...logrus.Fields) logrus.Fields {
	fields := logrus.Fields{
		"operation": operation,
		"status":    status,
	}
	for _, extra := range additional {
		for k, v := range extra {
			fields[k] = v
		}
	}
	return fields
}
