// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"os"
	"path/filepath"
	"sync"
)

// FileWriter appends log lines to a file that can be reopened, so an
// external rotation of --log-path does not lose output.
type FileWriter struct {
	mu   sync.Mutex // protects f
	f    *os.File
	mode os.FileMode
	name string
}

// NewFileWriter opens name for appending, creating it and its parent
// directory if needed.
func NewFileWriter(name string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0750); err != nil {
		return nil, err
	}
	fw := &FileWriter{name: name, mode: 0600}
	if err := fw.reopen(); err != nil {
		return nil, err
	}
	return fw, nil
}

// mutex free version
func (fw *FileWriter) reopen() error {
	if fw.f != nil {
		fw.f.Close()
		fw.f = nil
	}
	f, err := os.OpenFile(fw.name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, fw.mode)
	if err != nil {
		return err
	}
	fw.f = f
	return nil
}

// Reopen closes and reopens the underlying file.
func (fw *FileWriter) Reopen() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.reopen()
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.f.Write(p)
}

func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.f.Close()
}
