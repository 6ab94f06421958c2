// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"strconv"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/ctl"
	"github.com/spf13/cobra"
)

var Searcher *ctl.SearchCommand

func newSearchCommand(g *globals) *cobra.Command {
	Searcher = ctl.NewSearchCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	Searcher.CmdIO = g.cio
	Searcher.Config = g.cfg

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search the data of a project.",
		Long: `
Runs a Lucene query string against the project's index. By default the hits
are flattened and shown as a table, paged when stdout is a terminal. Nested
fields are selected with dots, e.g. result.status.

--json and --yaml print the stored documents. --tail keeps polling for the
newest hit and prints every new one as a JSON line until interrupted.
`,
		Example: `  hz search -p acme -q 'result.status:200' -f result.url,result.status
  hz search -p acme -q 'session:night_run' -s 1000 -o result.length:asc --json
  hz search -p acme -q '*' --tail`,
		RunE: usageErrorWrapper(Searcher),
	}

	flags := searchCmd.Flags()
	flags.StringVarP(&Searcher.Project, "project", "p", "", "Project name.")
	flags.StringVarP(&Searcher.Query, "query", "q", "", "Lucene query string.")
	flags.StringVarP(&Searcher.Fields, "fields", "f", "", "Comma-separated fields to show. Defaults to "+ctl.DefaultSearchFields+" in table and tail mode.")
	flags.IntVarP(&Searcher.Size, "size", "s", Searcher.Size, "Number of hits to return, at most "+strconv.Itoa(horuz.MaxSearchSize)+".")
	flags.StringVarP(&Searcher.Order, "order", "o", horuz.DefaultOrder, "Sort order as field:asc or field:desc.")
	flags.BoolVarP(&Searcher.JSON, "json", "j", false, "Print the documents as JSON.")
	flags.BoolVar(&Searcher.YAML, "yaml", false, "Print the documents as YAML.")
	flags.BoolVarP(&Searcher.Tail, "tail", "t", false, "Keep printing new hits as JSON lines.")
	flags.DurationVar(&Searcher.TailInterval, "tail-interval", ctl.DefaultTailInterval, "Polling interval of --tail.")

	return searchCmd
}
