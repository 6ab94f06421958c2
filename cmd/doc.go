// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd contains all the hz subcommand definitions (1 per file).

Each command file has a new*Command function returning the cobra.Command
wrapping a ctl command, as well as a global exported instance of that ctl
command so that it can be tested.

Flags, HORUZ_* environment variables and an optional TOML file given with
--config are layered by setAllConfig, in that priority order.
*/
package cmd
