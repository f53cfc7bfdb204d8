// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bugtool

import (
	"github.com/sirupsen/logrus"
)

// MultiLog writes every entry to several loggers, each keeping its own level
// and formatter. The bugtool logs both to the command output and to a file
// within the archive.
type MultiLog struct {
	Logs []logrus.FieldLogger
}

func NewMultiLog(logs ...logrus.FieldLogger) *MultiLog {
	return &MultiLog{Logs: logs}
}

func (ml *MultiLog) derive(fn func(logrus.FieldLogger) logrus.FieldLogger) *MultiLog {
	logs := make([]logrus.FieldLogger, len(ml.Logs))
	for i, l := range ml.Logs {
		logs[i] = fn(l)
	}
	return &MultiLog{Logs: logs}
}

func (ml *MultiLog) WithField(key string, value any) *MultiLog {
	return ml.derive(func(l logrus.FieldLogger) logrus.FieldLogger { return l.WithField(key, value) })
}

func (ml *MultiLog) WithFields(fields logrus.Fields) *MultiLog {
	return ml.derive(func(l logrus.FieldLogger) logrus.FieldLogger { return l.WithFields(fields) })
}

func (ml *MultiLog) WithError(err error) *MultiLog {
	return ml.derive(func(l logrus.FieldLogger) logrus.FieldLogger { return l.WithError(err) })
}

func (ml *MultiLog) Info(args ...any) {
	for _, l := range ml.Logs {
		l.Info(args...)
	}
}

func (ml *MultiLog) Warn(args ...any) {
	for _, l := range ml.Logs {
		l.Warn(args...)
	}
}
