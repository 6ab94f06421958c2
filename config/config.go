// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package config locates the horuz state directory and the files in it: the
// server address file, the optional .env file and the session log.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/search"
	"github.com/featurebasedb/horuz/session"
	"github.com/google/renameio/v2"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml"
)

// File names inside the horuz directory.
const (
	DefaultDirName = ".horuz"
	AddressFile    = "horuz.cfg"
	EnvFile        = ".env"
)

// Config is the effective configuration of one hz invocation. Fields are
// filled from flags, HORUZ_* environment variables and an optional TOML file.
type Config struct {
	// Address is the Elasticsearch URL. Empty means the one saved in the
	// address file, or the default.
	Address string `toml:"address"`
	// Dir holds the address file, .env and the session log.
	Dir     string   `toml:"dir"`
	LogPath string   `toml:"log-path"`
	Verbose bool     `toml:"verbose"`
	Retries int      `toml:"retries"`
	Timeout Duration `toml:"timeout"`
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		Dir:     DefaultDir(),
		Retries: 3,
		Timeout: Duration(30 * time.Second),
	}
}

// DefaultDir is ~/.horuz, or .horuz in the working directory if there is no
// home directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// AddressPath is the file storing the saved server address.
func (c *Config) AddressPath() string {
	return filepath.Join(c.Dir, AddressFile)
}

// SessionLogPath is the session log file.
func (c *Config) SessionLogPath() string {
	return filepath.Join(c.Dir, session.DefaultFile)
}

// LoadEnv loads Dir/.env into the process environment without overriding
// variables already set. A missing file is ignored.
func (c *Config) LoadEnv() error {
	path := filepath.Join(c.Dir, EnvFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "loading %s", path)
}

// ResolveAddress returns the address to connect to: the configured one,
// otherwise the saved one, otherwise search.DefaultAddress.
func (c *Config) ResolveAddress() (string, error) {
	if c.Address != "" {
		return c.Address, nil
	}
	addr, err := ReadAddress(c.AddressPath())
	if err != nil {
		return "", err
	} else if addr == "" {
		return search.DefaultAddress, nil
	}
	return addr, nil
}

// SearchConfig returns the backend configuration for c.
func (c *Config) SearchConfig() (search.Config, error) {
	addr, err := c.ResolveAddress()
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{Address: addr, Retries: c.Retries, Timeout: time.Duration(c.Timeout)}, nil
}

// TOML renders c, with the address resolved.
func (c *Config) TOML() ([]byte, error) {
	out := *c
	addr, err := c.ResolveAddress()
	if err != nil {
		return nil, err
	}
	out.Address = addr
	buf, err := toml.Marshal(out)
	return buf, errors.Wrap(err, "marshaling config")
}

// ReadAddress returns the first non-empty line of the address file, or ""
// if the file does not exist.
func ReadAddress(path string) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "opening address file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", errors.Wrap(scanner.Err(), "reading address file")
}

// SaveAddress replaces the address file with addr.
func SaveAddress(path, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return errors.New(errors.ErrUncoded, "empty server address")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	return errors.Wrap(renameio.WriteFile(path, []byte(addr+"\n"), 0600), "writing address file")
}
