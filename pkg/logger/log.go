// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options holds the validated logging configuration.
type Options struct {
	Level  logrus.Level
	Format Format
}

// DefaultOptions logs at info level in text format.
func DefaultOptions() Options {
	return Options{Level: logrus.InfoLevel, Format: FormatText}
}

// DefaultLogger is the base logger of the application. Libraries logging
// through the logrus standard logger are silenced by SetupLogging.
var DefaultLogger = newLogger(DefaultOptions())

func newLogger(o Options) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(o.formatter())
	l.SetLevel(o.Level)
	return l
}

// formatter returns the formatter for o.Format. JSON entries use the
// "timestamp" and "message" keys expected by the log pipeline.
func (o Options) formatter() logrus.Formatter {
	if o.Format == FormatJSON {
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	}
	return &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}
}

// ParseOptions validates a level and a format, both optional. Invalid values
// fall back to the defaults and are reported in the returned error.
func ParseOptions(level, format string) (Options, error) {
	o := DefaultOptions()
	var errs error
	if level != "" {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("incorrect log level %q", level))
		} else {
			o.Level = l
		}
	}
	switch f := Format(strings.ToLower(format)); f {
	case "":
	case FormatText, FormatJSON:
		o.Format = f
	default:
		errs = multierr.Append(errs, fmt.Errorf("incorrect log format %q, expected 'text' or 'json'", format))
	}
	return o, errs
}

// SetupLogging applies o to DefaultLogger. debug overrides the configured
// level.
func SetupLogging(o Options, debug bool) {
	DefaultLogger.SetFormatter(o.formatter())
	DefaultLogger.SetOutput(os.Stdout)
	if debug {
		o.Level = logrus.DebugLevel
	}
	DefaultLogger.SetLevel(o.Level)

	logrus.SetLevel(logrus.PanicLevel)
}

// defaultFields are added to every entry of DefaultLogger.
type defaultFields logrus.Fields

func (defaultFields) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (f defaultFields) Fire(e *logrus.Entry) error {
	for k, v := range f {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}

// SetService adds the service field to every log entry.
func SetService(name string) {
	if name == "" {
		return
	}
	DefaultLogger.AddHook(defaultFields{logfields.Service: name})
}

func GetLogger() logrus.FieldLogger {
	return DefaultLogger
}
