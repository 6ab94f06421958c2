// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package record

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFilter_StableGrouping(t *testing.T) {
	records := []Record{
		{"a": 1, "b": "x"},
		{"a": 1, "b": "y"},
		{"a": 1, "b": "x"},
	}
	got := Filter(records, []string{"a"}, nil)

	exp := []Group{{
		Record:     Record{"a": 1, "b": "x"},
		Duplicates: []Record{{"a": 1, "b": "y"}, {"a": 1, "b": "x"}},
	}}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("unexpected groups (-want +got):\n%s", diff)
	}
}

func TestFilter_SingleMemberGroupsHaveNoDuplicates(t *testing.T) {
	records := []Record{
		{"url": "/a", "status": 200},
		{"url": "/b", "status": 200},
		{"url": "/a", "status": 404},
		{"url": "/c", "status": 200},
	}
	got := Filter(records, []string{"url"}, nil)

	if assert.Len(t, got, 3) {
		assert.Equal(t, "/a", got[0].Record["url"])
		assert.Len(t, got[0].Duplicates, 1)
		assert.Equal(t, 404, got[0].Duplicates[0]["status"])
		assert.Equal(t, "/b", got[1].Record["url"])
		assert.Nil(t, got[1].Duplicates)
		assert.Equal(t, "/c", got[2].Record["url"])
		assert.Nil(t, got[2].Duplicates)
	}
}

func TestFilter_MissingKeyFieldsGroupTogether(t *testing.T) {
	records := []Record{
		{"a": 1},
		{"b": 2},
		{"c": "set"},
		{"a": 3, "b": 4},
	}
	got := Filter(records, []string{"c"}, nil)

	if assert.Len(t, got, 2) {
		assert.Equal(t, Record{"a": 1}, got[0].Record)
		assert.Equal(t, []Record{{"b": 2}, {"a": 3, "b": 4}}, got[0].Duplicates)
		assert.Equal(t, Record{"c": "set"}, got[1].Record)
	}
}

func TestFilter_NestedKeysAndStringCoercion(t *testing.T) {
	records := []Record{
		{"result": Record{"length": 10, "words": 3}},
		{"result": Record{"length": "10", "words": 3}},
		{"result": Record{"length": 11, "words": 3}},
	}
	got := Filter(records, []string{"result.length", "result.words"}, nil)

	if assert.Len(t, got, 2) {
		assert.Len(t, got[0].Duplicates, 1)
		assert.Nil(t, got[1].Duplicates)
	}
}

func TestFilter_KeyTupleIsUnambiguous(t *testing.T) {
	records := []Record{
		{"a": "x,", "b": "y"},
		{"a": "x", "b": ",y"},
	}
	got := Filter(records, []string{"a", "b"}, nil)
	assert.Len(t, got, 2)
}

func TestFilter_DropFieldsBeforeGrouping(t *testing.T) {
	records := []Record{
		{"url": "/a", "html": "<p>1</p>", "resultfile": "f1"},
		{"url": "/a", "html": "<p>2</p>", "resultfile": "f2"},
	}
	got := Filter(records, []string{"url", "html"}, []string{"html", "resultfile"})

	exp := []Group{{
		Record:     Record{"url": "/a"},
		Duplicates: []Record{{"url": "/a"}},
	}}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("unexpected groups (-want +got):\n%s", diff)
	}
}

func TestFilter_EmptyKeysCollapse(t *testing.T) {
	records := []Record{{"a": 1}, {"a": 2}, {"a": 3}}
	got := Filter(records, []string{"nope"}, nil)
	if assert.Len(t, got, 1) {
		assert.Len(t, got[0].Duplicates, 2)
	}

	assert.Empty(t, Filter(nil, []string{"a"}, nil))
}

// Every input record must show up exactly once, either as a representative
// or as one of the duplicates of exactly one group.
func TestFilter_Partition(t *testing.T) {
	var records []Record
	for i := 0; i < 50; i++ {
		records = append(records, Record{
			"id":  i,
			"mod": fmt.Sprint(i % 7),
			"sub": Record{"even": i%2 == 0},
		})
	}
	for _, keys := range [][]string{{"mod"}, {"sub.even"}, {"mod", "sub.even"}, {"id"}, {"missing"}} {
		t.Run(fmt.Sprint(keys), func(t *testing.T) {
			seen := make(map[int]int)
			for _, g := range Filter(records, keys, nil) {
				for _, r := range g.Records() {
					seen[r["id"].(int)]++
				}
			}
			assert.Len(t, seen, len(records))
			for id, n := range seen {
				assert.Equal(t, 1, n, "record %d", id)
			}
		})
	}
}
