// Package logging adapts common logging libraries to the multiboot.Logger interface.
//
//	s := multiboot.New(t, img, multiboot.WithLogger(logging.NewLogrus(logrus.StandardLogger())))
//	s := multiboot.New(t, img, multiboot.WithLogger(logging.Glog{Verbosity: logging.DefaultGlogVerbosity}))
package logging

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/sirupsen/logrus"
)

// badKey is used for a trailing key without a value.
const badKey = "!BADKEY"

// pairs walks a key-value list, calling fn for each pair.
func pairs(keysAndValues []interface{}, fn func(key string, value interface{})) {
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fn(badKey, keysAndValues[i])
			return
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fn(key, keysAndValues[i+1])
	}
}

// Logrus logs through a logrus logger, turning key-value pairs into fields.
type Logrus struct {
	logger logrus.FieldLogger
}

// NewLogrus wraps l. A nil l uses the logrus standard logger.
func NewLogrus(l logrus.FieldLogger) *Logrus {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Logrus{logger: l}
}

func (l *Logrus) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	pairs(keysAndValues, func(key string, value interface{}) {
		fields[key] = value
	})
	return l.logger.WithFields(fields)
}

// Debug implements multiboot.Logger.
func (l *Logrus) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

// Info implements multiboot.Logger.
func (l *Logrus) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

// Error implements multiboot.Logger.
func (l *Logrus) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

// Glog logs through glog. Debug messages are emitted at Verbosity.
// Quiet drops debug and info messages, leaving errors only.
type Glog struct {
	Verbosity glog.Level
	Quiet     bool
}

// DefaultGlogVerbosity is the -v level at which debug messages appear for the info level.
const DefaultGlogVerbosity glog.Level = 2

// NewGlog maps a level name onto a Glog logger. "debug" emits debug messages
// regardless of -v, "info" emits them from -v=2, "warn" and "error" keep errors only.
func NewGlog(level string) (Glog, error) {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return Glog{Verbosity: 0}, nil
	case "", "info":
		return Glog{Verbosity: DefaultGlogVerbosity}, nil
	case "warn", "warning", "error":
		return Glog{Verbosity: DefaultGlogVerbosity, Quiet: true}, nil
	default:
		return Glog{}, fmt.Errorf("unknown glog level %q", level)
	}
}

func format(msg string, keysAndValues []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	pairs(keysAndValues, func(key string, value interface{}) {
		fmt.Fprintf(&b, " %s=%v", key, value)
	})
	return b.String()
}

// Debug implements multiboot.Logger.
func (g Glog) Debug(msg string, keysAndValues ...interface{}) {
	if !g.Quiet && bool(glog.V(g.Verbosity)) {
		glog.InfoDepth(1, format(msg, keysAndValues))
	}
}

// Info implements multiboot.Logger.
func (g Glog) Info(msg string, keysAndValues ...interface{}) {
	if g.Quiet {
		return
	}
	glog.InfoDepth(1, format(msg, keysAndValues))
}

// Error implements multiboot.Logger.
func (g Glog) Error(msg string, keysAndValues ...interface{}) {
	glog.ErrorDepth(1, format(msg, keysAndValues))
}
