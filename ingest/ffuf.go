// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/record"
	"github.com/featurebasedb/horuz/search"
)

// Fields of stored ffuf documents.
const (
	FFUFType = "ffuf"

	HostField   = "host"
	TypeField   = "type"
	CmdField    = "cmd"
	ResultField = "result"
	HTMLField   = "html"
)

// isFFUF reports whether doc is an ffuf JSON report.
func isFFUF(doc record.Record) bool {
	_, hasResults := doc["results"]
	_, hasConfig := record.AsRecord(doc["config"])
	return hasResults && hasConfig
}

// ffufReport is the part of an ffuf report horuz stores.
type ffufReport struct {
	Host      string
	Time      string
	Command   string
	OutputDir string
	Results   []record.Record
}

func parseFFUF(doc record.Record) (*ffufReport, error) {
	cfg, _ := record.AsRecord(doc["config"])
	rep := &ffufReport{
		Host:    strings.ReplaceAll(record.String(cfg["url"]), "FUZZ", ""),
		Time:    record.String(doc["time"]),
		Command: record.String(doc["commandline"]),
	}
	if dir, ok := cfg["outputdirectory"].(string); ok {
		rep.OutputDir = dir
	}

	switch results := doc["results"].(type) {
	case nil:
	case []interface{}:
		for i, v := range results {
			r, ok := record.AsRecord(v)
			if !ok {
				return nil, errors.Errorf("ffuf result %d is not an object", i)
			}
			rep.Results = append(rep.Results, r)
		}
	default:
		return nil, errors.Errorf("ffuf results are not a list")
	}
	return rep, nil
}

// existsQuery finds documents of an earlier ingestion of the same report.
func (rep *ffufReport) existsQuery() search.Query {
	host := strings.ReplaceAll(strings.ReplaceAll(rep.Host, "/", ""), "http:", "")
	q := search.NewQuery(fmt.Sprintf(`host:"*%s" AND time:"%s" AND type:%s`, host, rep.Time, FFUFType))
	q.Size = 1
	return q
}

// loadHTML sets each result's html field to the raw response ffuf saved in
// its output directory. A missing file leaves it empty.
func (in *Ingester) loadHTML(rep *ffufReport) {
	for _, r := range rep.Results {
		r[HTMLField] = ""
		name, _ := r["resultfile"].(string)
		if rep.OutputDir == "" || name == "" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(rep.OutputDir, name))
		if err != nil {
			in.logger().Debugf("could not open %s: %v", name, err)
			continue
		}
		r[HTMLField] = strings.ToValidUTF8(string(b), "")
	}
}

// saveFFUF stores one document per ffuf result. A report whose host and
// time are already stored is skipped.
func (in *Ingester) saveFFUF(ctx context.Context, name string, doc record.Record) error {
	rep, err := parseFFUF(doc)
	if err != nil {
		return err
	}

	existing, err := in.Backend.Search(ctx, in.Project, rep.existsQuery())
	if err != nil {
		return errors.Wrap(err, "checking for earlier ingestion")
	}
	if len(existing) > 0 {
		in.logger().Infof("ffuf report %s %s already stored, skipping", rep.Host, rep.Time)
		in.summary.Skipped++
		return nil
	}

	wrap := func(result interface{}) record.Record {
		return record.Record{
			HostField:    rep.Host,
			TimeField:    rep.Time,
			TypeField:    FFUFType,
			SessionField: in.Session,
			CmdField:     rep.Command,
			ResultField:  result,
		}
	}

	if len(rep.Results) == 0 {
		if _, err := in.Backend.IndexDocument(ctx, in.Project, wrap([]interface{}{})); err != nil {
			return errors.Wrap(err, "storing ffuf report")
		}
		in.summary.Documents++
		return nil
	}

	in.summary.Results += len(rep.Results)
	in.loadHTML(rep)
	groups := in.group(rep.Results)
	return in.store(ctx, name, groups,
		func(r record.Record) record.Record { return wrap(r) },
		func(r record.Record, id string) record.Record {
			d := wrap(r)
			d[record.DuplicateReferenceField] = id
			return d
		})
}
