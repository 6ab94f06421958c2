// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/search"
)

// ErrUsage marks an error caused by how the command was invoked.
const ErrUsage errors.Code = "Usage"

// UsageError returns an error that makes the command print its usage.
func UsageError(format string, args ...interface{}) error {
	return errors.Newf(ErrUsage, format, args...)
}

// IsUsageError reports whether err came from bad arguments rather than
// from running the command.
func IsUsageError(err error) bool {
	switch errors.CodeOf(err) {
	case ErrUsage, horuz.ErrProjectRequired, horuz.ErrProjectName, horuz.ErrQueryRequired, horuz.ErrInvalidSize:
		return true
	}
	return false
}

// commandBackend returns b if it is set, otherwise an Elasticsearch backend
// for the configured address.
func commandBackend(b search.Backend, cfg *config.Config, log logger.Logger) (search.Backend, error) {
	if b != nil {
		return b, nil
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	sc, err := cfg.SearchConfig()
	if err != nil {
		return nil, errors.Wrap(err, "resolving server address")
	}
	sc.Logger = log
	log.Debugf("using elasticsearch at %s", sc.Address)
	return search.NewElastic(sc)
}

// prompt asks question and returns the answer, or def if the answer is
// empty. A terminal gets line editing; anything else is read line by line.
func prompt(cio *horuz.CmdIO, question, def string) (string, error) {
	text := question
	if def != "" {
		text += " [" + def + "]"
	}
	text += " "

	var answer string
	if f, ok := cio.Stdin.(*os.File); ok && render.IsTerminal(f) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt: text,
			Stdin:  f,
			Stdout: cio.Stderr,
			Stderr: cio.Stderr,
		})
		if err != nil {
			return "", errors.Wrap(err, "getting readline")
		}
		defer rl.Close()
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			return "", errors.New(horuz.ErrAborted, "aborted")
		} else if err != nil && err != io.EOF {
			return "", errors.Wrap(err, "reading answer")
		}
		answer = line
	} else {
		io.WriteString(cio.Stderr, text) // nolint: errcheck
		line, err := bufio.NewReader(cio.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", errors.Wrap(err, "reading answer")
		}
		answer = line
	}

	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}

// confirm asks a yes/no question. An empty answer means def.
func confirm(cio *horuz.CmdIO, question string, def bool) (bool, error) {
	hint := " [y/N]"
	if def {
		hint = " [Y/n]"
	}
	for {
		answer, err := prompt(cio, question+hint, "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if !render.IsTerminal(cio.Stdin) {
			return false, errors.Newf(horuz.ErrAborted, "invalid answer %q", answer)
		}
		io.WriteString(cio.Stderr, "Error: invalid input\n") // nolint: errcheck
	}
}
