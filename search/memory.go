// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/featurebasedb/horuz/record"
)

// Ensure Memory implements interface.
var _ Backend = &Memory{}

// Document is a stored document and its id.
type Document struct {
	ID     string
	Source record.Record
}

// Memory is a Backend which keeps everything in process. It backs
// `collect --dry-run` and the tests. Search returns the newest matching
// documents first unless SearchFunc is set; see matchTerm for the query
// syntax it understands.
type Memory struct {
	mu      sync.Mutex
	indices map[string][]Document
	nextID  int

	// Down makes every operation fail as if the cluster were unreachable.
	Down bool
	// SearchFunc, if set, answers Search instead of the default behavior.
	SearchFunc func(index string, q Query) ([]record.Record, error)
	// RawFunc, if set, answers SearchRaw. Otherwise SearchRaw returns a
	// session aggregation computed from the stored documents.
	RawFunc func(index string, body []byte) ([]byte, error)
	// Queries records every Search call.
	Queries []Query
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{indices: make(map[string][]Document)}
}

func (m *Memory) down() error {
	if m.Down {
		return unavailable(fmt.Errorf("connection refused"), "memory backend")
	}
	return nil
}

// Healthy implements Backend.
func (m *Memory) Healthy(ctx context.Context) bool {
	return !m.Down
}

// CreateIndex implements Backend.
func (m *Memory) CreateIndex(ctx context.Context, name string) error {
	if err := m.down(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indices[name]; !ok {
		m.indices[name] = nil
	}
	return nil
}

// IndexExists implements Backend.
func (m *Memory) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := m.down(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.indices[name]
	return ok, nil
}

// IndexDocument implements Backend. The document is deep copied, so later
// changes by the caller are not seen.
func (m *Memory) IndexDocument(ctx context.Context, index string, doc record.Record) (string, error) {
	if err := m.down(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("mem-%d", m.nextID)
	m.nextID++
	m.indices[index] = append(m.indices[index], Document{ID: id, Source: doc.Clone()})
	return id, nil
}

// DeleteIndex implements Backend.
func (m *Memory) DeleteIndex(ctx context.Context, name string) error {
	if err := m.down(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indices, name)
	return nil
}

// Search implements Backend.
func (m *Memory) Search(ctx context.Context, index string, q Query) ([]record.Record, error) {
	if err := m.down(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	fn := m.SearchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(index, q)
	}

	docs := m.Documents(index)
	out := make([]record.Record, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		if q.Size > 0 && len(out) == q.Size {
			break
		}
		if !matchTerm(docs[i].Source, q.Term) {
			continue
		}
		src := docs[i].Source.Clone()
		src[record.IDField] = docs[i].ID
		out = append(out, src)
	}
	return out, nil
}

// matchTerm reports whether doc satisfies a query string. Only the subset
// hz sends is understood: "*", and clauses joined by AND that are either
// field:value or free text. A value may be quoted, "*" matches any present
// field and a leading * matches a suffix. Values are compared on their
// lowercased letters and digits, close to how an analyzed text field
// matches.
func matchTerm(doc record.Record, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" || term == "*" {
		return true
	}
	for _, clause := range strings.Split(term, " AND ") {
		clause = strings.TrimSpace(clause)
		field, value, ok := strings.Cut(clause, ":")
		if !ok {
			if !containsText(doc, clause) {
				return false
			}
			continue
		}
		v, found := doc.Lookup(field)
		if !found {
			return false
		}
		value = strings.Trim(value, `"`)
		switch {
		case value == "*":
		case strings.HasPrefix(value, "*"):
			if !strings.HasSuffix(analyze(record.String(v)), analyze(value)) {
				return false
			}
		default:
			if analyze(record.String(v)) != analyze(value) {
				return false
			}
		}
	}
	return true
}

// containsText reports whether any leaf of doc contains text.
func containsText(doc record.Record, text string) bool {
	want := analyze(strings.Trim(text, `"`))
	found := false
	record.Walk(doc, func(_ string, v interface{}) {
		if !found && strings.Contains(analyze(record.String(v)), want) {
			found = true
		}
	})
	return found
}

func analyze(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// SearchRaw implements Backend.
func (m *Memory) SearchRaw(ctx context.Context, index string, body []byte) ([]byte, error) {
	if err := m.down(); err != nil {
		return nil, err
	}
	if m.RawFunc != nil {
		return m.RawFunc(index, body)
	}

	counts := make(map[string]int)
	var names []string
	for _, d := range m.Documents(index) {
		s := record.String(d.Source["session"])
		if _, ok := counts[s]; !ok {
			names = append(names, s)
		}
		counts[s]++
	}
	sort.SliceStable(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })

	buckets := make([]map[string]interface{}, len(names))
	for i, n := range names {
		buckets[i] = map[string]interface{}{"key": n, "doc_count": counts[n]}
	}
	return json.Marshal(map[string]interface{}{
		"aggregations": map[string]interface{}{
			"sessions": map[string]interface{}{"buckets": buckets},
		},
	})
}

// Mapping implements Backend. Fields are derived from the stored documents.
func (m *Memory) Mapping(ctx context.Context, index string) ([]string, error) {
	if err := m.down(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var walk func(prefix string, r record.Record)
	walk = func(prefix string, r record.Record) {
		for k, v := range r {
			name := k
			if prefix != "" {
				name = prefix + record.PathSeparator + k
			}
			if sub, ok := record.AsRecord(v); ok {
				walk(name, sub)
				continue
			}
			seen[name] = struct{}{}
		}
	}
	for _, d := range m.Documents(index) {
		walk("", d.Source)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Indices implements Backend.
func (m *Memory) Indices(ctx context.Context) ([]string, error) {
	if err := m.down(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.indices))
	for k := range m.indices {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Documents returns the documents stored in index in insertion order.
func (m *Memory) Documents(index string) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, len(m.indices[index]))
	copy(out, m.indices[index])
	return out
}
