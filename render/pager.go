// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package render

import (
	"io"
	"os"
	"os/exec"

	"github.com/featurebasedb/horuz/errors"
)

// DefaultPager runs when $PAGER is unset.
const DefaultPager = "less -R"

// Pager feeds what is written to it into an external pager program.
type Pager struct {
	cmd *exec.Cmd
	in  io.WriteCloser
}

// NewPager returns a writer for paged output to out. When out is not a
// terminal, output goes straight to out.
func NewPager(out io.Writer) (io.WriteCloser, error) {
	if !IsTerminal(out) {
		return nopCloser{out}, nil
	}
	prog := os.Getenv("PAGER")
	if prog == "" {
		prog = DefaultPager
	}
	return startPager(prog, out)
}

func startPager(prog string, out io.Writer) (*Pager, error) {
	cmd := exec.Command("/bin/sh", "-c", prog)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "opening pager input")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting pager %q", prog)
	}
	return &Pager{cmd: cmd, in: in}, nil
}

// Write implements io.Writer.
func (p *Pager) Write(b []byte) (int, error) {
	return p.in.Write(b)
}

// Close ends the input and waits for the user to quit the pager.
func (p *Pager) Close() error {
	p.in.Close()
	return errors.Wrap(p.cmd.Wait(), "waiting for pager")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
