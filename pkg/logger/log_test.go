// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), o)

	o, err = ParseOptions("debug", "JSON")
	require.NoError(t, err)
	assert.Equal(t, Options{Level: logrus.DebugLevel, Format: FormatJSON}, o)

	o, err = ParseOptions("loud", "xml")
	assert.ErrorContains(t, err, `incorrect log level "loud"`)
	assert.ErrorContains(t, err, `incorrect log format "xml"`)
	assert.Equal(t, DefaultOptions(), o)
}

func TestJSONFormatterKeys(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(Options{Level: logrus.InfoLevel, Format: FormatJSON})
	l.SetOutput(&buf)
	l.WithField("status_code", 200).Info("Request completed")

	line := buf.String()
	assert.Equal(t, "Request completed", gjson.Get(line, "message").String())
	assert.Equal(t, "info", gjson.Get(line, "level").String())
	assert.Equal(t, int64(200), gjson.Get(line, "status_code").Int())
	assert.True(t, gjson.Get(line, "timestamp").Exists())
	assert.False(t, gjson.Get(line, "msg").Exists())
}
