// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package render writes command output: tables, JSON, YAML, the pager and
// the ingestion progress display.
package render

import (
	"encoding/json"
	"io"
	"os"

	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/record"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"golang.org/x/term"
	"sigs.k8s.io/yaml"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Table writes rows under header. With color set, every column is cyan.
func Table(w io.Writer, header []string, rows [][]string, color bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault

	hdr := make(table.Row, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	t.AppendHeader(hdr)

	if color {
		configs := make([]table.ColumnConfig, len(header))
		for i := range header {
			configs[i] = table.ColumnConfig{Number: i + 1, Colors: text.Colors{text.FgCyan}}
		}
		t.SetColumnConfigs(configs)
	}

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

// FlatTable writes flattened records as a table. The columns are those of
// the first record; other records are aligned to them by name.
func FlatTable(w io.Writer, recs []record.FlatRecord, color bool) {
	if len(recs) == 0 {
		return
	}
	header := recs[0].Keys
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = rec.Get(k)
		}
		rows[i] = row
	}
	Table(w, header, rows, color)
}

// JSON writes v indented by four spaces. Object keys come out sorted.
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return errors.Wrap(enc.Encode(v), "encoding json")
}

// JSONLine writes v as compact JSON followed by a newline.
func JSONLine(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(v), "encoding json")
}

// YAML writes v as YAML.
func YAML(w io.Writer, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding yaml")
	}
	_, err = w.Write(b)
	return errors.Wrap(err, "writing yaml")
}
