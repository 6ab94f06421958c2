// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/search"
)

// ConfigShowCommand prints the effective configuration as TOML.
type ConfigShowCommand struct {
	Config *config.Config

	*horuz.CmdIO
}

// NewConfigShowCommand returns a new instance of ConfigShowCommand.
func NewConfigShowCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigShowCommand {
	return &ConfigShowCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints out the config.
func (cmd *ConfigShowCommand) Run(_ context.Context) error {
	if cmd.Config == nil {
		cmd.Config = config.NewConfig()
	}
	buf, err := cmd.Config.TOML()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Stdout, string(buf))
	return nil
}

// ConfigServerAddCommand saves the Elasticsearch address used by later
// commands.
type ConfigServerAddCommand struct {
	// Address is offered as the default answer.
	Address string

	Config *config.Config

	*horuz.CmdIO
}

// NewConfigServerAddCommand returns a new instance of ConfigServerAddCommand.
func NewConfigServerAddCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigServerAddCommand {
	return &ConfigServerAddCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prompts for the address and saves it.
func (cmd *ConfigServerAddCommand) Run(_ context.Context) error {
	if cmd.Config == nil {
		cmd.Config = config.NewConfig()
	}
	def := cmd.Address
	if def == "" {
		def = search.DefaultAddress
	}
	addr, err := prompt(cmd.CmdIO, "Please enter the address of your ElasticSearch", def)
	if err != nil {
		return err
	}
	if err := config.SaveAddress(cmd.Config.AddressPath(), addr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Stdout, "ElasticSearch is connected now to %s\n", addr)
	return nil
}

// ConfigServerStatusCommand checks that the configured server answers.
type ConfigServerStatusCommand struct {
	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewConfigServerStatusCommand returns a new instance of
// ConfigServerStatusCommand.
func NewConfigServerStatusCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigServerStatusCommand {
	return &ConfigServerStatusCommand{
		CmdIO: horuz.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run reports the connection status. An unreachable server is reported,
// not returned as an error.
func (cmd *ConfigServerStatusCommand) Run(ctx context.Context) error {
	if cmd.Config == nil {
		cmd.Config = config.NewConfig()
	}
	addr, err := cmd.Config.ResolveAddress()
	if err != nil {
		return err
	}
	backend, err := commandBackend(cmd.Backend, cmd.Config, cmd.Logger())
	if err != nil {
		return err
	}
	if backend.Healthy(ctx) {
		fmt.Fprintf(cmd.Stdout, "ElasticSearch is connected to %s successfully!\n", addr)
	} else {
		fmt.Fprintf(cmd.Stdout, "ElasticSearch is not connected to %s.\n", addr)
	}
	return nil
}
