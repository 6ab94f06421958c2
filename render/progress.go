// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package render

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/progress"
)

const progressFrequency = 100 * time.Millisecond

// Progress draws one progress bar per tracked task until stopped.
type Progress struct {
	pw   progress.Writer
	done chan struct{}
	once sync.Once
}

// NewProgress starts rendering progress bars to w.
func NewProgress(w io.Writer) *Progress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(false)
	pw.SetUpdateFrequency(progressFrequency)
	pw.SetTrackerLength(30)
	pw.SetMessageWidth(40)

	p := &Progress{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		pw.Render()
	}()
	for !pw.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}
	return p
}

// Track adds a bar for a task made of total steps.
func (p *Progress) Track(message string, total int64) *progress.Tracker {
	t := &progress.Tracker{Message: message, Total: total}
	p.pw.AppendTracker(t)
	return t
}

// Stop draws the final state and stops rendering. It is safe to call more
// than once.
func (p *Progress) Stop() {
	p.once.Do(func() {
		if p.pw.Length() > 0 {
			time.Sleep(2 * progressFrequency)
		}
		p.pw.Stop()
		<-p.done
	})
}
