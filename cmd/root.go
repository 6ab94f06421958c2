// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/ctl"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/featurebasedb/horuz/search"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variable of every flag, e.g.
// HORUZ_ADDRESS for --address.
const envPrefix = "HORUZ"

// globals is the state shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE before a subcommand runs.
type globals struct {
	cio     *horuz.CmdIO
	cfg     *config.Config
	logFile *logger.FileWriter
}

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globals{
		cio: horuz.NewCmdIO(stdin, stdout, stderr),
		cfg: config.NewConfig(),
	}

	rc := &cobra.Command{
		Use:   "hz",
		Short: "Save and query your recon data on Elasticsearch.",
		Long: `hz stores the JSON output of recon tools, ffuf reports in particular,
in Elasticsearch. Each project is an index and each collect run is a
session inside it. Stored data can be searched with Lucene query strings,
listed by session and deleted by project.

` + horuz.VersionInfo() + "\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd.Flags())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logFile != nil {
				g.logFile.Close()
			}
		},
	}

	flags := rc.PersistentFlags()
	flags.String("config", "", "Configuration file to read from.")
	flags.StringVarP(&g.cfg.Address, "address", "a", "", "Elasticsearch address. Defaults to the saved server or "+search.DefaultAddress+".")
	flags.StringVar(&g.cfg.Dir, "dir", g.cfg.Dir, "Directory holding the saved server, .env and the session log.")
	flags.BoolVarP(&g.cfg.Verbose, "verbose", "v", false, "Enable verbose logging.")
	flags.StringVar(&g.cfg.LogPath, "log-path", "", "Log to this file instead of stderr.")
	flags.IntVar(&g.cfg.Retries, "retries", g.cfg.Retries, "Number of retries for failed Elasticsearch requests.")
	flags.DurationVar((*time.Duration)(&g.cfg.Timeout), "timeout", time.Duration(g.cfg.Timeout), "Timeout of a single Elasticsearch request.")

	rc.AddCommand(newCollectCommand(g))
	rc.AddCommand(newSearchCommand(g))
	rc.AddCommand(newProjectsCommand(g))
	rc.AddCommand(newSessionsCommand(g))
	rc.AddCommand(newConfigCommand(g))
	rc.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the hz version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), horuz.VersionInfo())
		},
	})

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setup reads the configuration and sets up logging.
func (g *globals) setup(flags *pflag.FlagSet) error {
	// .env may set HORUZ_* variables, so it goes first. Its directory comes
	// from --dir, then HORUZ_DIR.
	if f := flags.Lookup("dir"); f != nil && !f.Changed {
		if dir := os.Getenv(envPrefix + "_DIR"); dir != "" {
			g.cfg.Dir = dir
		}
	}
	if err := g.cfg.LoadEnv(); err != nil {
		return err
	}

	v := viper.New()
	if err := setAllConfig(v, flags, envPrefix); err != nil {
		return err
	}

	w := g.cio.Stderr
	if g.cfg.LogPath != "" {
		fw, err := logger.NewFileWriter(g.cfg.LogPath)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		g.logFile = fw
		w = fw
	}
	g.cio.SetLogger(logger.New(w, g.cfg.Verbose))
	return nil
}

// runner is implemented by the ctl commands.
type runner interface {
	Run(context.Context) error
}

// usageErrorWrapper runs c, printing the usage of the cobra command when
// it fails because of bad arguments.
func usageErrorWrapper(c runner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return considerUsageError(cmd, ctl.UsageError("unexpected arguments: %s", strings.Join(args, " ")))
		}
		return considerUsageError(cmd, c.Run(cmd.Context()))
	}
}

// considerUsageError prints the usage for argument errors and turns a
// declined confirmation into a clean exit.
func considerUsageError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, horuz.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted!")
		return nil
	}
	if ctl.IsUsageError(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return err
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes replaced by underscores, and prefixed with
// envPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	// add cmd line flag def to viper
	err := v.BindPFlags(flags)
	if err != nil {
		return err
	}

	// add env to viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	c := v.GetString("config")
	var flagErr error
	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	// add config file to viper
	if c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		err := v.ReadInConfig()
		if err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}

		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	// set all values from viper
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		if f.Changed {
			// Already set on the command line, the highest priority.
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}
