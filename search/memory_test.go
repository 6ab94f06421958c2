// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package search

import (
	"context"
	"testing"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	src := record.Record{"session": "s1", "result": record.Record{"url": "u"}}
	id0, err := m.IndexDocument(ctx, "acme", src)
	require.NoError(t, err)
	src["session"] = "changed"
	id1, err := m.IndexDocument(ctx, "acme", record.Record{"session": "s2"})
	require.NoError(t, err)
	_, err = m.IndexDocument(ctx, "acme", record.Record{"session": "s2"})
	require.NoError(t, err)
	assert.NotEqual(t, id0, id1)

	q := NewQuery("*")
	q.Size = 2
	docs, err := m.Search(ctx, "acme", q)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, id1, docs[1][record.IDField])
	assert.Equal(t, []Query{q}, m.Queries)

	all := m.Documents("acme")
	assert.Equal(t, "s1", all[0].Source["session"])

	counts, err := SessionCounts(ctx, m, "acme")
	require.NoError(t, err)
	assert.Equal(t, []SessionCount{{Name: "s2", Count: 2}, {Name: "s1", Count: 1}}, counts)

	fields, err := m.Mapping(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"result.url", "session"}, fields)

	names, err := m.Indices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, names)

	require.NoError(t, m.DeleteIndex(ctx, "acme"))
	exists, err := m.IndexExists(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_Down(t *testing.T) {
	m := NewMemory()
	m.Down = true
	assert.False(t, m.Healthy(context.Background()))
	_, err := m.Indices(context.Background())
	assert.True(t, errors.Is(err, horuz.ErrBackendUnavailable))
}

func TestMemory_SearchTerm(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, doc := range []record.Record{
		{"host": "http://a.acme.com/", "time": "2021-04-01T10:00:00Z", "type": "ffuf"},
		{"host": "http://b.acme.com/", "time": "2021-04-02T10:00:00Z", "type": "ffuf"},
		{"name": "Admin Panel", "result": record.Record{"status": 200}},
	} {
		_, err := m.IndexDocument(ctx, "acme", doc)
		require.NoError(t, err)
	}

	tests := []struct {
		term string
		ids  []string
	}{
		{term: "*", ids: []string{"mem-2", "mem-1", "mem-0"}},
		{term: `host:"*a.acme.com" AND time:"2021-04-01T10:00:00Z" AND type:ffuf`, ids: []string{"mem-0"}},
		{term: `host:"*b.acme.com" AND time:"2021-04-01T10:00:00Z" AND type:ffuf`, ids: []string{}},
		{term: "type:ffuf", ids: []string{"mem-1", "mem-0"}},
		{term: "result.status:200", ids: []string{"mem-2"}},
		{term: "host:*", ids: []string{"mem-1", "mem-0"}},
		{term: "admin", ids: []string{"mem-2"}},
	}
	for _, test := range tests {
		t.Run(test.term, func(t *testing.T) {
			docs, err := m.Search(ctx, "acme", NewQuery(test.term))
			require.NoError(t, err)
			ids := []string{}
			for _, d := range docs {
				ids = append(ids, d[record.IDField].(string))
			}
			assert.Equal(t, test.ids, ids)
		})
	}
}
