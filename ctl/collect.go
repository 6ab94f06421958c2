// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/ingest"
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/runner"
	"github.com/featurebasedb/horuz/search"
	"github.com/featurebasedb/horuz/session"
)

// StdinFilename makes collect read the JSON document from standard input.
const StdinFilename = "-"

// CollectCommand stores recon output in a project: the output of an ffuf
// command it runs, a JSON file, or both.
type CollectCommand struct {
	Project string
	// Session defaults to a generated name.
	Session string

	// Command is an ffuf command line to run and collect.
	Command string
	// Filename is a JSON file to store, or StdinFilename.
	Filename string

	// FilterDups and RemoveFilterDups are comma separated field paths.
	FilterDups       string
	RemoveFilterDups string

	// DryRun stores into an in-memory backend and only reports.
	DryRun bool

	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewCollectCommand returns a new instance of CollectCommand.
func NewCollectCommand(stdin io.Reader, stdout, stderr io.Writer) *CollectCommand {
	return &CollectCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the collection.
func (cmd *CollectCommand) Run(ctx context.Context) error {
	log := cmd.Logger()

	if err := horuz.ValidateProjectName(cmd.Project); err != nil {
		return err
	}
	if cmd.Command == "" && cmd.Filename == "" {
		return UsageError("one of --cmd or --filename is required")
	}
	if cmd.RemoveFilterDups != "" && cmd.FilterDups == "" {
		return UsageError("--remove-filter-dups requires --filter-dups")
	}
	if cmd.Command != "" && !runner.IsFFUF(cmd.Command) {
		return UsageError("only ffuf commands can be collected: %q", cmd.Command)
	}
	if cmd.Config == nil {
		cmd.Config = config.NewConfig()
	}

	if cmd.Session == "" {
		cmd.Session = session.RandomName()
	}
	if err := session.NewLog(cmd.Config.SessionLogPath()).Add(ctx, cmd.Session); err != nil {
		log.Warnf("recording session name: %v", err)
	}

	var backend search.Backend
	if cmd.DryRun {
		backend = search.NewMemory()
	} else {
		b, err := commandBackend(cmd.Backend, cmd.Config, log)
		if err != nil {
			return err
		}
		backend = b
	}

	in := &ingest.Ingester{
		Backend:          backend,
		Project:          cmd.Project,
		Session:          cmd.Session,
		FilterDups:       horuz.SplitList(cmd.FilterDups),
		RemoveFilterDups: horuz.SplitList(cmd.RemoveFilterDups),
		Logger:           log,
	}
	if render.IsTerminal(cmd.Stderr) {
		in.Progress = render.NewProgress(cmd.Stderr)
		defer in.Progress.Stop()
	}

	var total ingest.Summary
	var errs []error
	add := func(s ingest.Summary, err error) {
		total.Results += s.Results
		total.Documents += s.Documents
		total.Duplicates += s.Duplicates
		total.Skipped += s.Skipped
		if err != nil {
			errs = append(errs, err)
		}
	}

	if cmd.Command != "" {
		s, err := cmd.runFFUF(ctx, in)
		if err != nil && errors.Is(err, horuz.ErrBackendUnavailable) {
			return err
		}
		add(s, err)
	}

	if cmd.Filename != "" {
		log.Debugf("uploading %s to elasticsearch", cmd.Filename)
		if cmd.Filename == StdinFilename {
			add(in.SaveReader(ctx, "stdin", cmd.Stdin))
		} else {
			add(in.SaveFiles(ctx, []string{cmd.Filename}))
		}
	}

	if in.Progress != nil {
		in.Progress.Stop()
	}
	for _, err := range errs {
		if errors.Is(err, horuz.ErrBackendUnavailable) {
			return err
		}
	}

	fmt.Fprintf(cmd.Stdout, "Project name: %s\n", cmd.Project)
	fmt.Fprintf(cmd.Stdout, "Session name: %s\n", cmd.Session)
	fmt.Fprintf(cmd.Stdout, "Results: %d\n", total.Results)
	if total.Duplicates > 0 {
		fmt.Fprintf(cmd.Stdout, "Duplicates: %d\n", total.Duplicates)
	}
	if total.Skipped > 0 {
		fmt.Fprintf(cmd.Stdout, "Already stored: %d\n", total.Skipped)
	}
	if cmd.DryRun {
		fmt.Fprintf(cmd.Stdout, "Dry run: %d documents would be stored\n", total.Documents)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// runFFUF runs the ffuf command with its output redirected to a temporary
// directory, then stores the reports found there.
func (cmd *CollectCommand) runFFUF(ctx context.Context, in *ingest.Ingester) (ingest.Summary, error) {
	log := cmd.Logger()
	job, err := runner.NewFFUFJob(cmd.Command)
	if err != nil {
		return ingest.Summary{}, err
	}
	defer job.Cleanup(log)

	if err := runner.New(cmd.CmdIO).Run(ctx, job.Commandline()); err != nil {
		log.Errorf("command execution failed: %v", err)
		return ingest.Summary{}, err
	}
	log.Infof("command execution done")

	files, err := ingest.Collect(job.Dir, "ffuf_http")
	if err != nil {
		return ingest.Summary{}, err
	}
	log.Debugf("collected %d ffuf reports", len(files))
	return in.SaveFiles(ctx, files)
}
