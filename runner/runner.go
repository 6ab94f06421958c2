// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package runner executes the external reconnaissance commands whose output
// collect ingests.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/google/uuid"
)

// FFUFOutputFile is the name of the JSON report ffuf is told to write.
const FFUFOutputFile = "ffuf_http.json"

// killGrace is how long an interrupted command gets to exit after SIGINT
// before it is killed.
const killGrace = time.Second

// Runner runs shell commands with the CLI's standard streams.
type Runner struct {
	*horuz.CmdIO
	// Shell is the interpreter invoked as `Shell -c command`.
	Shell string
}

// New returns a Runner using /bin/sh.
func New(cio *horuz.CmdIO) *Runner {
	return &Runner{CmdIO: cio, Shell: "/bin/sh"}
}

// Run executes command and waits for it. Cancelling ctx interrupts the
// command. A non-zero exit status is returned as an error.
func (r *Runner) Run(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New(horuz.ErrNoInput, "empty command")
	}
	r.Logger().Debugf("executing: %s", command)

	cmd := exec.Command(r.Shell, "-c", command)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	// Own process group, so an interrupt reaches the whole pipeline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %q", command)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "running %q", command)
		}
		return nil
	case <-ctx.Done():
		pgid := -cmd.Process.Pid
		_ = syscall.Kill(pgid, syscall.SIGINT)
		select {
		case <-done:
		case <-time.After(killGrace):
			_ = syscall.Kill(pgid, syscall.SIGKILL)
			<-done
		}
		return errors.Wrapf(ctx.Err(), "running %q", command)
	}
}

// IsFFUF reports whether command invokes ffuf.
func IsFFUF(command string) bool {
	return strings.Contains(command, "ffuf")
}

// FFUFJob is an ffuf invocation writing its report and the raw responses
// into a private temporary directory.
type FFUFJob struct {
	Command string
	Dir     string
}

// NewFFUFJob creates a fresh output directory under
// os.TempDir()/ffuf_<user>/ and returns the job for command.
func NewFFUFJob(command string) (*FFUFJob, error) {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	dir := filepath.Join(os.TempDir(), "ffuf_"+name, uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating ffuf output directory")
	}
	return &FFUFJob{Command: command, Dir: dir}, nil
}

// OutputFile is the path of the ffuf JSON report.
func (j *FFUFJob) OutputFile() string {
	return filepath.Join(j.Dir, FFUFOutputFile)
}

// Commandline returns the command extended with ffuf's output options.
func (j *FFUFJob) Commandline() string {
	return fmt.Sprintf("%s -o=%s -od %s", j.Command, shellQuote(j.OutputFile()), shellQuote(j.Dir))
}

// Cleanup removes the output directory.
func (j *FFUFJob) Cleanup(log logger.Logger) {
	if err := os.RemoveAll(j.Dir); err != nil {
		log.Warnf("removing %s: %v", j.Dir, err)
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
