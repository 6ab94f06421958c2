// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package session keeps the local log of session names used with collect,
// which feeds shell completion of the --session flag.
package session

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/featurebasedb/horuz/errors"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
)

// DefaultFile is the session log's file name inside the horuz directory.
const DefaultFile = "sessions.log"

// lockTimeout bounds how long Add waits for another hz process holding the
// log.
const lockTimeout = 5 * time.Second

// RandomName returns a generated session name such as "brave_turing".
func RandomName() string {
	return namesgenerator.GetRandomName(0)
}

// Log is the session log file: one name per line, no duplicates.
type Log struct {
	Path string
}

// NewLog returns the log at path.
func NewLog(path string) *Log {
	return &Log{Path: path}
}

// Add records name unless it is already present. Concurrent hz processes
// serialize on a lock file next to the log, and the log is replaced
// atomically so readers never see a partial write.
func (l *Log) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return errors.Wrap(err, "creating session log directory")
	}

	lock := flock.New(l.Path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return errors.Wrap(err, "locking session log")
	} else if !locked {
		return errors.Errorf("session log %s is locked", l.Path)
	}
	defer lock.Unlock() // nolint: errcheck

	names, err := l.read()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	names = append(names, name)

	var buf bytes.Buffer
	for _, n := range names {
		buf.WriteString(n)
		buf.WriteByte('\n')
	}
	if err := renameio.WriteFile(l.Path, buf.Bytes(), 0600); err != nil {
		return errors.Wrap(err, "writing session log")
	}
	return nil
}

// List returns the logged names containing substr, in the order they were
// first added. A missing log is empty.
func (l *Log) List(substr string) ([]string, error) {
	names, err := l.read()
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.Contains(n, substr) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (l *Log) read() ([]string, error) {
	f, err := os.Open(l.Path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "opening session log")
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if n := strings.TrimSpace(scanner.Text()); n != "" {
			names = append(names, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading session log")
	}
	return names, nil
}
