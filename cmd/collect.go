// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"github.com/featurebasedb/horuz/ctl"
	"github.com/featurebasedb/horuz/session"
	"github.com/spf13/cobra"
)

var Collector *ctl.CollectCommand

func newCollectCommand(g *globals) *cobra.Command {
	Collector = ctl.NewCollectCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	Collector.CmdIO = g.cio
	Collector.Config = g.cfg

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Save JSON data or ffuf output into a project.",
		Long: `
Stores JSON documents in the project's index. The input is either a JSON
file (an object or a list of objects, "-" reads stdin) or an ffuf command
which is run and whose report is stored, one document per result.

Every document is tagged with the session name. When no session is given a
random one is generated. With --filter-dups, documents that share the same
values for the given fields are stored once in full; the rest keep a
duplicate_reference_id pointing to the first one and lose the fields given
to --remove-filter-dups. For ffuf reports the fields are those of a single
result, e.g. length or html.
`,
		Example: `  hz collect -p acme -f hosts.json -d host,port
  hz collect -p acme -s night_run -c "ffuf -w words.txt -u https://acme.com/FUZZ" -d length,words -r html
  cat hosts.json | hz collect -p acme -f -`,
		RunE: usageErrorWrapper(Collector),
	}

	flags := collectCmd.Flags()
	flags.StringVarP(&Collector.Project, "project", "p", "", "Project name.")
	flags.StringVarP(&Collector.Session, "session", "s", "", "Session name. A random name is used when empty.")
	flags.StringVarP(&Collector.Command, "cmd", "c", "", "ffuf command to run and collect.")
	flags.StringVarP(&Collector.Filename, "filename", "f", "", `JSON file to collect, "-" for stdin.`)
	flags.StringVarP(&Collector.FilterDups, "filter-dups", "d", "", "Comma-separated fields identifying duplicates.")
	flags.StringVarP(&Collector.RemoveFilterDups, "remove-filter-dups", "r", "", "Comma-separated fields removed from duplicates.")
	flags.BoolVar(&Collector.DryRun, "dry-run", false, "Ingest in memory and only print the summary.")

	_ = collectCmd.RegisterFlagCompletionFunc("session", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names, err := session.NewLog(g.cfg.SessionLogPath()).List(toComplete)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return collectCmd
}
