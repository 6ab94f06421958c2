// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

var _ retryablehttp.LeveledLogger = retryLogger{}

// retryLogger feeds retryablehttp's key/value log calls into a Logger. Request
// chatter goes to debug, so it only shows up with --verbose.
type retryLogger struct {
	l Logger
}

// RetryLogger adapts l for use as a retryablehttp.Client Logger.
func RetryLogger(l Logger) retryablehttp.LeveledLogger {
	return retryLogger{l: l}
}

func (r retryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.l.Errorf("%s", kvMessage(msg, keysAndValues))
}

func (r retryLogger) Info(msg string, keysAndValues ...interface{}) {
	r.l.Debugf("%s", kvMessage(msg, keysAndValues))
}

func (r retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.l.Debugf("%s", kvMessage(msg, keysAndValues))
}

func (r retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.l.Warnf("%s", kvMessage(msg, keysAndValues))
}

func kvMessage(msg string, kv []interface{}) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteByte(' ')
		if i+1 < len(kv) {
			fmt.Fprintf(&sb, "%v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&sb, "%v", kv[i])
		}
	}
	return sb.String()
}
