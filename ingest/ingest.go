// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ingest stores JSON reports in a project: ffuf reports get one
// document per result, any other JSON gets one document per record.
package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/featurebasedb/horuz/record"
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/search"
	"github.com/hashicorp/go-multierror"
)

// Fields set on every stored document.
const (
	TimeField    = "time"
	SessionField = "session"
)

// Summary describes what one ingestion stored.
type Summary struct {
	Project string
	Session string
	// Results is the number of input records (ffuf results or generic
	// records) across all files.
	Results int
	// Documents is the number of documents indexed, duplicates included.
	Documents int
	// Duplicates is the number of documents stored with a
	// duplicate_reference_id.
	Duplicates int
	// Skipped is the number of ffuf reports already stored earlier.
	Skipped int
}

// Ingester stores files into Project under Session.
type Ingester struct {
	Backend search.Backend
	Project string
	Session string

	// FilterDups are the key fields for duplicate grouping. Empty disables
	// grouping.
	FilterDups []string
	// RemoveFilterDups are removed from every record before grouping. They
	// only apply when FilterDups is set.
	RemoveFilterDups []string

	Logger logger.Logger
	// Progress, if set, shows a bar per file.
	Progress *render.Progress
	// Now stamps generic records. Defaults to time.Now.
	Now func() time.Time

	summary Summary
}

func (in *Ingester) logger() logger.Logger {
	if in.Logger == nil {
		return logger.NopLogger
	}
	return in.Logger
}

func (in *Ingester) now() time.Time {
	if in.Now == nil {
		return time.Now()
	}
	return in.Now()
}

// SaveFiles ingests every file in paths. The backend must answer a health
// check first. A file that can't be read or decoded is logged and skipped,
// and its error is part of the returned multierror; losing the backend
// aborts at once.
func (in *Ingester) SaveFiles(ctx context.Context, paths []string) (Summary, error) {
	if err := in.begin(ctx); err != nil {
		return in.summary, err
	}
	if len(paths) == 0 {
		return in.summary, errors.New(horuz.ErrNoInput, "no files to ingest")
	}

	var errs *multierror.Error
	for _, path := range paths {
		err := in.saveFile(ctx, path)
		if err == nil {
			continue
		}
		if errors.Is(err, horuz.ErrBackendUnavailable) {
			return in.summary, multierror.Append(errs, err).ErrorOrNil()
		}
		in.logger().Errorf("skipping %s: %v", path, err)
		errs = multierror.Append(errs, errors.Wrap(err, path))
	}
	return in.summary, errs.ErrorOrNil()
}

// SaveReader ingests one JSON document read from r. name labels it in
// logs and progress.
func (in *Ingester) SaveReader(ctx context.Context, name string, r io.Reader) (Summary, error) {
	if err := in.begin(ctx); err != nil {
		return in.summary, err
	}
	return in.summary, in.save(ctx, name, r)
}

func (in *Ingester) begin(ctx context.Context) error {
	in.summary = Summary{Project: in.Project, Session: in.Session}
	if err := horuz.ValidateProjectName(in.Project); err != nil {
		return err
	}
	if !in.Backend.Healthy(ctx) {
		return errors.New(horuz.ErrBackendUnavailable, "elasticsearch connection error")
	}
	return nil
}

func (in *Ingester) saveFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	defer f.Close()
	return in.save(ctx, filepath.Base(path), f)
}

func (in *Ingester) save(ctx context.Context, name string, r io.Reader) error {
	v, err := record.Decode(r)
	if err != nil {
		in.logger().Debugf("error decoding the json data in %s: %v", name, err)
		return errors.Wrap(err, "decoding json")
	}

	if doc, ok := record.AsRecord(v); ok && isFFUF(doc) {
		return in.saveFFUF(ctx, name, doc)
	}

	recs, err := genericRecords(v)
	if err != nil {
		return err
	}
	return in.saveGeneral(ctx, name, recs)
}

// genericRecords accepts a list of objects or a single object.
func genericRecords(v interface{}) ([]record.Record, error) {
	if r, ok := record.AsRecord(v); ok {
		return []record.Record{r}, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, errors.Newf(horuz.ErrNoInput, "expected a json object or a list of objects, got %s", record.String(v))
	}
	out := make([]record.Record, 0, len(list))
	for i, item := range list {
		r, ok := record.AsRecord(item)
		if !ok {
			return nil, errors.Newf(horuz.ErrNoInput, "item %d is not a json object", i)
		}
		out = append(out, r)
	}
	return out, nil
}

// saveGeneral stamps and stores generic records.
func (in *Ingester) saveGeneral(ctx context.Context, name string, recs []record.Record) error {
	in.summary.Results += len(recs)
	groups := in.group(recs)

	stamp := func(r record.Record) record.Record {
		r[TimeField] = in.now().UTC().Format(time.RFC3339Nano)
		r[SessionField] = in.Session
		return r
	}
	return in.store(ctx, name, groups, stamp, func(r record.Record, id string) record.Record {
		r = stamp(r)
		r[record.DuplicateReferenceField] = id
		return r
	})
}

// group applies the duplicate filter, or puts every record in its own
// group when no key fields are set.
func (in *Ingester) group(recs []record.Record) []record.Group {
	if len(in.FilterDups) == 0 {
		groups := make([]record.Group, len(recs))
		for i, r := range recs {
			groups[i] = record.Group{Record: r}
		}
		return groups
	}
	groups := record.Filter(recs, in.FilterDups, in.RemoveFilterDups)
	in.logger().Debugf("%d records in %d groups by %s", len(recs), len(groups), strings.Join(in.FilterDups, ","))
	return groups
}

// store indexes each group's representative, then its duplicates carrying
// the representative's id. doc and dup build the stored document.
func (in *Ingester) store(ctx context.Context, name string, groups []record.Group, doc func(record.Record) record.Record, dup func(record.Record, string) record.Record) error {
	total := 0
	for _, g := range groups {
		total += 1 + len(g.Duplicates)
	}
	var tracker interface{ Increment(int64) }
	if in.Progress != nil {
		t := in.Progress.Track(name, int64(total))
		defer t.MarkAsDone()
		tracker = t
	}

	for _, g := range groups {
		id, err := in.Backend.IndexDocument(ctx, in.Project, doc(g.Record))
		if err != nil {
			return errors.Wrap(err, "storing record")
		}
		in.summary.Documents++
		if tracker != nil {
			tracker.Increment(1)
		}

		for _, d := range g.Duplicates {
			if _, err := in.Backend.IndexDocument(ctx, in.Project, dup(d, id)); err != nil {
				return errors.Wrap(err, "storing duplicate")
			}
			in.summary.Documents++
			in.summary.Duplicates++
			if tracker != nil {
				tracker.Increment(1)
			}
		}
	}
	return nil
}

// Collect returns the files below dir whose name contains substr, in
// lexical order.
func Collect(dir, substr string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.Contains(d.Name(), substr) {
			out = append(out, path)
		}
		return nil
	})
	return out, errors.Wrapf(err, "collecting files in %s", dir)
}
