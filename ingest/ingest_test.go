// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/logger"
	"github.com/featurebasedb/horuz/record"
	"github.com/featurebasedb/horuz/search"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2021, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestIngester(t *testing.T) (*Ingester, *search.Memory) {
	t.Helper()
	m := search.NewMemory()
	return &Ingester{
		Backend: m,
		Project: "acme",
		Session: "brave_turing",
		Logger:  logger.NewLogfLogger(t),
		Now:     func() time.Time { return testNow },
	}, m
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func sources(docs []search.Document) []record.Record {
	out := make([]record.Record, len(docs))
	for i, d := range docs {
		out[i] = d.Source
	}
	return out
}

func TestIngester_GeneralRecords(t *testing.T) {
	in, m := newTestIngester(t)
	path := writeFile(t, t.TempDir(), "subs.json", `[{"name": "a.acme.com"}, {"name": "b.acme.com"}]`)

	sum, err := in.SaveFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, Summary{Project: "acme", Session: "brave_turing", Results: 2, Documents: 2}, sum)

	exp := []record.Record{
		{"name": "a.acme.com", "time": "2021-04-01T10:00:00Z", "session": "brave_turing"},
		{"name": "b.acme.com", "time": "2021-04-01T10:00:00Z", "session": "brave_turing"},
	}
	if diff := cmp.Diff(exp, sources(m.Documents("acme"))); diff != "" {
		t.Fatalf("unexpected documents (-want +got):\n%s", diff)
	}
}

func TestIngester_GeneralSingleObject(t *testing.T) {
	in, m := newTestIngester(t)
	sum, err := in.SaveReader(context.Background(), "stdin", strings.NewReader(`{"ip": "10.0.0.1"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Documents)
	assert.Equal(t, "10.0.0.1", m.Documents("acme")[0].Source["ip"])
}

func TestIngester_GeneralDuplicates(t *testing.T) {
	in, m := newTestIngester(t)
	in.FilterDups = []string{"a"}
	in.RemoveFilterDups = []string{"noise"}

	sum, err := in.SaveReader(context.Background(), "x.json", strings.NewReader(
		`[{"a": 1, "b": "x", "noise": 1}, {"a": 1, "b": "y"}, {"a": 2, "b": "z"}, {"a": 1, "b": "x"}]`))
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Results)
	assert.Equal(t, 4, sum.Documents)
	assert.Equal(t, 2, sum.Duplicates)

	docs := m.Documents("acme")
	require.Len(t, docs, 4)
	rep := docs[0]
	assert.Equal(t, "x", rep.Source["b"])
	assert.NotContains(t, rep.Source, "noise")
	assert.NotContains(t, rep.Source, record.DuplicateReferenceField)

	assert.Equal(t, "y", docs[1].Source["b"])
	assert.Equal(t, rep.ID, docs[1].Source[record.DuplicateReferenceField])
	assert.Equal(t, "x", docs[2].Source["b"])
	assert.Equal(t, rep.ID, docs[2].Source[record.DuplicateReferenceField])

	assert.Equal(t, "z", docs[3].Source["b"])
	assert.NotContains(t, docs[3].Source, record.DuplicateReferenceField)
}

const ffufReportJSON = `{
	"commandline": "ffuf -u http://target/FUZZ -w words",
	"time": "2021-04-01T10:00:00Z",
	"config": {"url": "http://target/FUZZ", "outputdirectory": %q},
	"results": [
		{"input": {"FUZZ": "admin"}, "status": 200, "length": 10, "url": "http://target/admin", "resultfile": "r1"},
		{"input": {"FUZZ": "login"}, "status": 200, "length": 10, "url": "http://target/login", "resultfile": "r2"},
		{"input": {"FUZZ": "old"}, "status": 301, "length": 3, "url": "http://target/old", "resultfile": "missing"}
	]
}`

func writeFFUF(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "r1", "<html>admin</html>")
	writeFile(t, dir, "r2", "<html>login\xff</html>")
	return writeFile(t, dir, "ffuf_http.json", strings.Replace(ffufReportJSON, "%q", `"`+dir+`"`, 1))
}

func TestIngester_FFUF(t *testing.T) {
	in, m := newTestIngester(t)
	path := writeFFUF(t)

	sum, err := in.SaveFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Results)
	assert.Equal(t, 3, sum.Documents)

	docs := m.Documents("acme")
	require.Len(t, docs, 3)
	first := docs[0].Source
	assert.Equal(t, "http://target/", first[HostField])
	assert.Equal(t, "2021-04-01T10:00:00Z", first[TimeField])
	assert.Equal(t, FFUFType, first[TypeField])
	assert.Equal(t, "brave_turing", first[SessionField])
	assert.Equal(t, "ffuf -u http://target/FUZZ -w words", first[CmdField])

	html := func(i int) interface{} {
		r, _ := record.AsRecord(docs[i].Source[ResultField])
		return r[HTMLField]
	}
	assert.Equal(t, "<html>admin</html>", html(0))
	assert.Equal(t, "<html>login</html>", html(1))
	assert.Equal(t, "", html(2))

	q := m.Queries[0]
	assert.Equal(t, `host:"*target" AND time:"2021-04-01T10:00:00Z" AND type:ffuf`, q.Term)
}

func TestIngester_FFUFAlreadyStored(t *testing.T) {
	in, m := newTestIngester(t)
	m.SearchFunc = func(index string, q search.Query) ([]record.Record, error) {
		return []record.Record{{"_id": "old"}}, nil
	}

	sum, err := in.SaveFiles(context.Background(), []string{writeFFUF(t)})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, m.Documents("acme"))
}

func TestIngester_FFUFDistinctReports(t *testing.T) {
	in, m := newTestIngester(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a/ffuf_http.json",
		`{"time": "2021-04-01T10:00:00Z", "commandline": "ffuf", "config": {"url": "http://a.acme.com/FUZZ"}, "results": [{"url": "http://a.acme.com/x", "status": 200}]}`)
	b := writeFile(t, dir, "b/ffuf_http.json",
		`{"time": "2021-04-02T10:00:00Z", "commandline": "ffuf", "config": {"url": "http://b.acme.com/FUZZ"}, "results": [{"url": "http://b.acme.com/y", "status": 403}]}`)

	sum, err := in.SaveFiles(context.Background(), []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Results)
	assert.Equal(t, 2, sum.Documents)
	assert.Equal(t, 0, sum.Skipped)

	// Only the report already stored is skipped the second time.
	c := writeFile(t, dir, "c/ffuf_http.json",
		`{"time": "2021-04-03T10:00:00Z", "commandline": "ffuf", "config": {"url": "http://a.acme.com/FUZZ"}, "results": [{"url": "http://a.acme.com/z", "status": 200}]}`)
	sum, err = in.SaveFiles(context.Background(), []string{a, c})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Documents)
	assert.Len(t, m.Documents("acme"), 3)
}

func TestIngester_FFUFDuplicates(t *testing.T) {
	in, m := newTestIngester(t)
	in.FilterDups = []string{"status", "length"}
	in.RemoveFilterDups = []string{"html", "resultfile"}

	sum, err := in.SaveFiles(context.Background(), []string{writeFFUF(t)})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Duplicates)

	docs := m.Documents("acme")
	require.Len(t, docs, 3)
	res := func(i int) record.Record {
		r, _ := record.AsRecord(docs[i].Source[ResultField])
		return r
	}
	assert.Equal(t, "http://target/admin", res(0)["url"])
	assert.NotContains(t, res(0), HTMLField)
	assert.NotContains(t, res(0), "resultfile")

	assert.Equal(t, "http://target/login", res(1)["url"])
	assert.Equal(t, docs[0].ID, docs[1].Source[record.DuplicateReferenceField])

	assert.Equal(t, "http://target/old", res(2)["url"])
	assert.NotContains(t, docs[2].Source, record.DuplicateReferenceField)
}

func TestIngester_FFUFNoResults(t *testing.T) {
	in, m := newTestIngester(t)
	_, err := in.SaveReader(context.Background(), "ffuf.json", strings.NewReader(
		`{"time": "t", "config": {"url": "http://x/FUZZ"}, "results": []}`))
	require.NoError(t, err)
	docs := m.Documents("acme")
	require.Len(t, docs, 1)
	assert.Equal(t, []interface{}{}, docs[0].Source[ResultField])
}

func TestIngester_BadFilesContinue(t *testing.T) {
	in, m := newTestIngester(t)
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{not json`)
	scalar := writeFile(t, dir, "scalar.json", `42`)
	good := writeFile(t, dir, "good.json", `[{"a": 1}]`)

	sum, err := in.SaveFiles(context.Background(), []string{bad, filepath.Join(dir, "missing.json"), scalar, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors occurred")
	assert.Contains(t, err.Error(), "bad.json")
	assert.Equal(t, 1, sum.Documents)
	assert.Len(t, m.Documents("acme"), 1)
}

func TestIngester_BackendDown(t *testing.T) {
	in, m := newTestIngester(t)
	m.Down = true
	_, err := in.SaveReader(context.Background(), "x", strings.NewReader(`{}`))
	assert.True(t, errors.Is(err, horuz.ErrBackendUnavailable))
}

func TestIngester_Validation(t *testing.T) {
	in, _ := newTestIngester(t)
	_, err := in.SaveFiles(context.Background(), nil)
	assert.True(t, errors.Is(err, horuz.ErrNoInput))

	in.Project = ""
	_, err = in.SaveFiles(context.Background(), []string{"x"})
	assert.True(t, errors.Is(err, horuz.ErrProjectRequired))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ffuf_http.json", "{}")
	writeFile(t, dir, "sub/ffuf_http.json.1", "{}")
	writeFile(t, dir, "other.json", "{}")

	files, err := Collect(dir, "ffuf_http")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "ffuf_http.json"),
		filepath.Join(dir, "sub", "ffuf_http.json.1"),
	}, files)

	_, err = Collect(filepath.Join(dir, "nope"), "x")
	assert.Error(t, err)
}
