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
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/search"
)

// ProjectsListCommand lists every project.
type ProjectsListCommand struct {
	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewProjectsListCommand returns a new instance of ProjectsListCommand.
func NewProjectsListCommand(stdin io.Reader, stdout, stderr io.Writer) *ProjectsListCommand {
	return &ProjectsListCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the project names.
func (cmd *ProjectsListCommand) Run(ctx context.Context) error {
	backend, err := commandBackend(cmd.Backend, cmd.Config, cmd.Logger())
	if err != nil {
		return err
	}
	names, err := backend.Indices(ctx)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	if len(names) == 0 {
		return nil
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	render.Table(cmd.Stdout, []string{"Projects"}, rows, render.IsTerminal(cmd.Stdout))
	return nil
}

// ProjectsRemoveCommand deletes a project and everything stored in it.
type ProjectsRemoveCommand struct {
	Project string
	// Yes skips the confirmation prompt.
	Yes bool

	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewProjectsRemoveCommand returns a new instance of ProjectsRemoveCommand.
func NewProjectsRemoveCommand(stdin io.Reader, stdout, stderr io.Writer) *ProjectsRemoveCommand {
	return &ProjectsRemoveCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run asks for confirmation and deletes the project.
func (cmd *ProjectsRemoveCommand) Run(ctx context.Context) error {
	if err := horuz.ValidateProjectName(cmd.Project); err != nil {
		return err
	}
	if !cmd.Yes {
		ok, err := confirm(cmd.CmdIO, fmt.Sprintf("Are you sure you want to delete %s?", cmd.Project), true)
		if err != nil {
			return err
		} else if !ok {
			return errors.New(horuz.ErrAborted, "aborted")
		}
	}

	backend, err := commandBackend(cmd.Backend, cmd.Config, cmd.Logger())
	if err != nil {
		return err
	}
	if err := backend.DeleteIndex(ctx, cmd.Project); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	fmt.Fprintf(cmd.Stdout, "Project %s was deleted.\n", cmd.Project)
	return nil
}

// ProjectsDescribeCommand lists the fields stored in a project.
type ProjectsDescribeCommand struct {
	Project string

	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewProjectsDescribeCommand returns a new instance of ProjectsDescribeCommand.
func NewProjectsDescribeCommand(stdin io.Reader, stdout, stderr io.Writer) *ProjectsDescribeCommand {
	return &ProjectsDescribeCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the project's field paths.
func (cmd *ProjectsDescribeCommand) Run(ctx context.Context) error {
	if err := horuz.ValidateProjectName(cmd.Project); err != nil {
		return err
	}
	backend, err := commandBackend(cmd.Backend, cmd.Config, cmd.Logger())
	if err != nil {
		return err
	}
	fields, err := backend.Mapping(ctx, cmd.Project)
	if err != nil {
		return errors.Wrap(err, "getting project mapping")
	}
	if len(fields) == 0 {
		fmt.Fprintln(cmd.Stdout, "Project does not exist!")
		return nil
	}
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f}
	}
	render.Table(cmd.Stdout, []string{cmd.Project + " fields"}, rows, render.IsTerminal(cmd.Stdout))
	return nil
}
