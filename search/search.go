// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package search is the storage side of horuz: projects are Elasticsearch
// indices and every ingested record is a document in one of them.
package search

import (
	"context"
	"sort"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/record"
	"github.com/tidwall/gjson"
)

// Backend is the set of index operations the commands need.
type Backend interface {
	// Healthy reports whether the cluster answers a health check.
	Healthy(ctx context.Context) bool
	CreateIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// IndexDocument stores doc in index, creating the index if needed, and
	// returns the generated document id.
	IndexDocument(ctx context.Context, index string, doc record.Record) (string, error)
	// DeleteIndex removes the index. A missing index is not an error.
	DeleteIndex(ctx context.Context, name string) error
	// Search runs a query string search and returns each hit's source with
	// its id under record.IDField. A missing index yields no hits.
	Search(ctx context.Context, index string, q Query) ([]record.Record, error)
	// SearchRaw sends body as a search request and returns the raw response.
	SearchRaw(ctx context.Context, index string, body []byte) ([]byte, error)
	// Mapping returns the dotted names of every field mapped in index.
	Mapping(ctx context.Context, index string) ([]string, error)
	// Indices returns the names of all indices, sorted.
	Indices(ctx context.Context) ([]string, error)
}

// Query is a Lucene query string search.
type Query struct {
	Term string
	// Sort entries look like "time:desc".
	Sort []string
	Size int
	// Fields limits the returned _source fields. Empty means all.
	Fields []string
}

// NewQuery returns a query for term with the default sort and size 100.
func NewQuery(term string) Query {
	return Query{
		Term: term,
		Sort: []string{horuz.DefaultOrder},
		Size: 100,
	}
}

// Validate checks the query size bounds.
func (q Query) Validate() error {
	if q.Term == "" {
		return errors.New(horuz.ErrQueryRequired, "query required")
	}
	if q.Size < horuz.MinSearchSize || q.Size > horuz.MaxSearchSize {
		return errors.Newf(horuz.ErrInvalidSize, "size %d out of range %d-%d", q.Size, horuz.MinSearchSize, horuz.MaxSearchSize)
	}
	return nil
}

// SessionCount is the number of documents ingested under a session.
type SessionCount struct {
	Name  string
	Count int64
}

// sessionsAggregation counts documents per session name.
const sessionsAggregation = `{
	"size": 0,
	"aggs": {
		"sessions": {
			"terms": {"field": "session.keyword", "size": 1000}
		}
	}
}`

// SessionCounts returns every session stored in index with its document
// count, most documents first.
func SessionCounts(ctx context.Context, b Backend, index string) ([]SessionCount, error) {
	body, err := b.SearchRaw(ctx, index, []byte(sessionsAggregation))
	if err != nil {
		return nil, errors.Wrap(err, "aggregating sessions")
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New(horuz.ErrMalformedQuery, "session aggregation returned invalid json")
	}
	buckets := gjson.GetBytes(body, "aggregations.sessions.buckets")
	out := make([]SessionCount, 0, len(buckets.Array()))
	buckets.ForEach(func(_, b gjson.Result) bool {
		out = append(out, SessionCount{
			Name:  b.Get("key").String(),
			Count: b.Get("doc_count").Int(),
		})
		return true
	})
	return out, nil
}

// mappingFields walks an index mapping's properties and returns the dotted
// path of every leaf field, sorted.
func mappingFields(properties gjson.Result) []string {
	var out []string
	var walk func(prefix string, props gjson.Result)
	walk = func(prefix string, props gjson.Result) {
		props.ForEach(func(k, v gjson.Result) bool {
			name := k.String()
			if prefix != "" {
				name = prefix + record.PathSeparator + name
			}
			if sub := v.Get("properties"); sub.Exists() {
				walk(name, sub)
			} else {
				out = append(out, name)
			}
			return true
		})
	}
	walk("", properties)
	sort.Strings(out)
	return out
}
