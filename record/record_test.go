// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package record

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, s string) Record {
	t.Helper()
	v, err := Decode(strings.NewReader(s))
	require.NoError(t, err)
	r, ok := AsRecord(v)
	require.True(t, ok, "not an object: %s", s)
	return r
}

func TestRecord_Lookup(t *testing.T) {
	r := mustRecord(t, `{"host": "a", "result": {"resultfile": "f1", "input": {"FUZZ": "admin"}}, "n": 3}`)

	tests := []struct {
		path  string
		exp   interface{}
		found bool
	}{
		{"host", "a", true},
		{"result.resultfile", "f1", true},
		{"result.input.FUZZ", "admin", true},
		{"n", json.Number("3"), true},
		{"result.missing", nil, false},
		{"missing.deeper", nil, false},
		{"host.deeper", nil, false},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			v, ok := r.Lookup(test.path)
			assert.Equal(t, test.found, ok)
			assert.Equal(t, test.exp, v)
		})
	}
}

func TestRecord_RemoveSet(t *testing.T) {
	r := mustRecord(t, `{"result": {"html": "<html>", "url": "u"}, "x": 1}`)

	assert.True(t, r.Remove("result.html"))
	assert.False(t, r.Remove("result.html"))
	assert.False(t, r.Remove("nope.html"))
	assert.False(t, r.Remove("x.y"))

	r.Set("result.duplicate_reference_id", "abc")
	r.Set("meta.session", "s1")
	r.Set("x.y", "replaced")

	exp := Record{
		"result": map[string]interface{}{"url": "u", "duplicate_reference_id": "abc"},
		"meta":   Record{"session": "s1"},
		"x":      Record{"y": "replaced"},
	}
	if diff := cmp.Diff(exp, r); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
}

func TestRecord_Clone(t *testing.T) {
	r := mustRecord(t, `{"a": {"b": [1, {"c": 2}]}}`)
	c := r.Clone()
	c.Set("a.b", "changed")
	v, _ := r.Lookup("a.b")
	assert.IsType(t, []interface{}{}, v)
}

func TestString(t *testing.T) {
	r := mustRecord(t, `{"s": "x", "i": 200, "f": 1.50, "b": true, "n": null, "l": ["a", 1], "o": {"z": 1, "a": 2}}`)
	exp := map[string]string{
		"s": "x",
		"i": "200",
		"f": "1.50",
		"b": "true",
		"n": "null",
		"l": `["a",1]`,
		"o": `{"a":2,"z":1}`,
	}
	for k, want := range exp {
		assert.Equal(t, want, String(r[k]), k)
	}
	assert.Equal(t, "2.5", String(2.5))
	assert.Equal(t, "7", String(7))
}
