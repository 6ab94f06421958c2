// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(&buf)
	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Errorf("bad %s", "thing")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO:  shown 2")
	assert.Contains(t, out, "ERROR: bad thing")

	buf.Reset()
	New(&buf, true).Debugf("now visible")
	assert.Contains(t, buf.String(), "DEBUG: now visible")
}

func TestRetryLogger(t *testing.T) {
	bl := NewBufferLogger()
	rl := RetryLogger(bl)
	rl.Warn("retrying request", "url", "http://localhost:9200/_cluster/health", "attempt", 2)
	rl.Error("giving up", "odd")

	lines := strings.Split(strings.TrimSpace(bl.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "WARN:  retrying request url=http://localhost:9200/_cluster/health attempt=2", lines[0])
		assert.Equal(t, "ERROR: giving up odd", lines[1])
	}
}
