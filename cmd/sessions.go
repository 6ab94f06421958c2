// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"github.com/featurebasedb/horuz/ctl"
	"github.com/spf13/cobra"
)

var SessionsLister *ctl.SessionsListCommand

func newSessionsCommand(g *globals) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect the sessions of a project.",
	}

	SessionsLister = ctl.NewSessionsListCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	SessionsLister.CmdIO = g.cio
	SessionsLister.Config = g.cfg

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List the sessions of a project with their document count.",
		RunE:  usageErrorWrapper(SessionsLister),
	}
	lsCmd.Flags().StringVarP(&SessionsLister.Project, "project", "p", "", "Project name.")

	sessionsCmd.AddCommand(lsCmd)
	return sessionsCmd
}
