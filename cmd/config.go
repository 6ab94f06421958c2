// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"github.com/featurebasedb/horuz/ctl"
	"github.com/spf13/cobra"
)

var (
	ConfigShower        *ctl.ConfigShowCommand
	ConfigServerAdder   *ctl.ConfigServerAddCommand
	ConfigServerStatter *ctl.ConfigServerStatusCommand
)

func newConfigCommand(g *globals) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change the hz configuration.",
	}

	ConfigShower = ctl.NewConfigShowCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ConfigShower.CmdIO = g.cio
	ConfigShower.Config = g.cfg
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML.",
		RunE:  usageErrorWrapper(ConfigShower),
	})

	ConfigServerAdder = ctl.NewConfigServerAddCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ConfigServerAdder.CmdIO = g.cio
	ConfigServerAdder.Config = g.cfg
	configCmd.AddCommand(&cobra.Command{
		Use:   "server:add",
		Short: "Save the Elasticsearch address.",
		Long: `
Asks for the Elasticsearch address and saves it. The global --address flag,
when given, is offered as the default answer.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ConfigServerAdder.Address = g.cfg.Address
			return usageErrorWrapper(ConfigServerAdder)(cmd, args)
		},
	})

	ConfigServerStatter = ctl.NewConfigServerStatusCommand(g.cio.Stdin, g.cio.Stdout, g.cio.Stderr)
	ConfigServerStatter.CmdIO = g.cio
	ConfigServerStatter.Config = g.cfg
	configCmd.AddCommand(&cobra.Command{
		Use:   "server:status",
		Short: "Check the connection to Elasticsearch.",
		RunE:  usageErrorWrapper(ConfigServerStatter),
	})

	return configCmd
}
