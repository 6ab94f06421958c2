// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"
	"strconv"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/search"
)

// SessionsListCommand lists the sessions stored in a project with their
// document counts.
type SessionsListCommand struct {
	Project string

	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewSessionsListCommand returns a new instance of SessionsListCommand.
func NewSessionsListCommand(stdin io.Reader, stdout, stderr io.Writer) *SessionsListCommand {
	return &SessionsListCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the sessions table.
func (cmd *SessionsListCommand) Run(ctx context.Context) error {
	if err := horuz.ValidateProjectName(cmd.Project); err != nil {
		return err
	}
	backend, err := commandBackend(cmd.Backend, cmd.Config, cmd.Logger())
	if err != nil {
		return err
	}
	counts, err := search.SessionCounts(ctx, backend, cmd.Project)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Name, strconv.FormatInt(c.Count, 10)}
	}
	render.Table(cmd.Stdout, []string{"Session", "Count"}, rows, render.IsTerminal(cmd.Stdout))
	return nil
}
