// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"github.com/featurebasedb/horuz/ctl"
	"github.com/spf13/cobra"
)

var (
	ProjectsLister    *ctl.ProjectsListCommand
	ProjectsRemover   *ctl.ProjectsRemoveCommand
	ProjectsDescriber *ctl.ProjectsDescribeCommand
)

func newProjectsCommand(g *globals) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects.",
		Long: `
A project is an Elasticsearch index holding every session collected for it.
`,
	}
	projectsCmd.AddCommand(newProjectsListCommand(g))
	projectsCmd.AddCommand(newProjectsRemoveCommand(g))
	projectsCmd.AddCommand(newProjectsDescribeCommand(g))
	return projectsCmd
}

func newProjectsListCommand(g *globals) *cobra.Command {
	ProjectsLister = ctl.NewProjectsListCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ProjectsLister.CmdIO = g.cio
	ProjectsLister.Config = g.cfg

	return &cobra.Command{
		Use:   "ls",
		Short: "List all projects.",
		RunE:  usageErrorWrapper(ProjectsLister),
	}
}

func newProjectsRemoveCommand(g *globals) *cobra.Command {
	ProjectsRemover = ctl.NewProjectsRemoveCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ProjectsRemover.CmdIO = g.cio
	ProjectsRemover.Config = g.cfg

	rmCmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete a project and all of its data.",
		RunE:  usageErrorWrapper(ProjectsRemover),
	}
	flags := rmCmd.Flags()
	flags.StringVarP(&ProjectsRemover.Project, "project", "p", "", "Project name.")
	flags.BoolVarP(&ProjectsRemover.Yes, "yes", "y", false, "Do not ask for confirmation.")
	return rmCmd
}

func newProjectsDescribeCommand(g *globals) *cobra.Command {
	ProjectsDescriber = ctl.NewProjectsDescribeCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ProjectsDescriber.CmdIO = g.cio
	ProjectsDescriber.Config = g.cfg

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "List the fields stored in a project.",
		RunE:  usageErrorWrapper(ProjectsDescriber),
	}
	describeCmd.Flags().StringVarP(&ProjectsDescriber.Project, "project", "p", "", "Project name.")
	return describeCmd
}
