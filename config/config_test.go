// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/featurebasedb/horuz/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ResolveAddress(t *testing.T) {
	c := NewConfig()
	c.Dir = filepath.Join(t.TempDir(), DefaultDirName)

	addr, err := c.ResolveAddress()
	require.NoError(t, err)
	assert.Equal(t, search.DefaultAddress, addr)

	require.NoError(t, SaveAddress(c.AddressPath(), " http://es:9200 \n"))
	addr, err = c.ResolveAddress()
	require.NoError(t, err)
	assert.Equal(t, "http://es:9200", addr)

	data, err := os.ReadFile(c.AddressPath())
	require.NoError(t, err)
	assert.Equal(t, "http://es:9200\n", string(data))

	c.Address = "http://flag:9200"
	addr, err = c.ResolveAddress()
	require.NoError(t, err)
	assert.Equal(t, "http://flag:9200", addr)

	sc, err := c.SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://flag:9200", sc.Address)
	assert.Equal(t, 3, sc.Retries)
}

func TestReadAddress_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), AddressFile)
	require.NoError(t, os.WriteFile(path, []byte("\n\n  http://x:9200\nignored\n"), 0600))
	addr, err := ReadAddress(path)
	require.NoError(t, err)
	assert.Equal(t, "http://x:9200", addr)
}

func TestSaveAddress_Empty(t *testing.T) {
	assert.Error(t, SaveAddress(filepath.Join(t.TempDir(), AddressFile), "  "))
}

func TestConfig_LoadEnv(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	require.NoError(t, c.LoadEnv())

	require.NoError(t, os.WriteFile(filepath.Join(c.Dir, EnvFile), []byte("HORUZ_TEST_ENV_VALUE=from-file\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("HORUZ_TEST_ENV_VALUE") })
	require.NoError(t, c.LoadEnv())
	assert.Equal(t, "from-file", os.Getenv("HORUZ_TEST_ENV_VALUE"))

	os.Setenv("HORUZ_TEST_ENV_VALUE", "already-set")
	require.NoError(t, c.LoadEnv())
	assert.Equal(t, "already-set", os.Getenv("HORUZ_TEST_ENV_VALUE"))
}

func TestConfig_TOML(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	c.Verbose = true

	buf, err := c.TOML()
	require.NoError(t, err)
	out := string(buf)
	assert.Contains(t, out, `address = "`+search.DefaultAddress+`"`)
	assert.Contains(t, out, "verbose = true")
	assert.Contains(t, out, "retries = 3")
	assert.Contains(t, out, `log-path = ""`)
	assert.Contains(t, out, `timeout = "30s"`)
}

func TestConfig_Paths(t *testing.T) {
	c := &Config{Dir: "/home/u/.horuz"}
	assert.Equal(t, "/home/u/.horuz/horuz.cfg", c.AddressPath())
	assert.Equal(t, "/home/u/.horuz/sessions.log", c.SessionLogPath())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, Duration(90*time.Second), d)
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	buf, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(buf))
}
