// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package record contains the in-memory transforms applied to ingested and
// queried documents: nested field access, duplicate grouping and flattening
// for display.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/featurebasedb/horuz/errors"
)

// PathSeparator separates the components of a field path.
const PathSeparator = "."

// Record is a decoded JSON object. Values are whatever encoding/json produces
// with UseNumber: string, json.Number, bool, nil, []interface{} and nested
// map[string]interface{} (or Record).
type Record map[string]interface{}

// Decode reads a single JSON document from r. Numbers are kept as
// json.Number so they print back exactly as they were written.
func Decode(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decoding json")
	}
	return v, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte) (interface{}, error) {
	return Decode(bytes.NewReader(b))
}

// AsRecord returns v as a Record if it is a JSON object.
func AsRecord(v interface{}) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]interface{}:
		return Record(m), true
	}
	return nil, false
}

// Lookup returns the value at the dotted path. Missing intermediate keys, or
// intermediate values that are not objects, report false.
func (r Record) Lookup(path string) (interface{}, bool) {
	cur := r
	parts := strings.Split(path, PathSeparator)
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if cur, ok = AsRecord(v); !ok {
			return nil, false
		}
	}
	return nil, false
}

// Remove deletes the value at the dotted path and reports whether anything
// was removed.
func (r Record) Remove(path string) bool {
	parts := strings.Split(path, PathSeparator)
	cur := r
	for _, p := range parts[:len(parts)-1] {
		next, ok := AsRecord(cur[p])
		if !ok {
			return false
		}
		cur = next
	}
	last := parts[len(parts)-1]
	if _, ok := cur[last]; !ok {
		return false
	}
	delete(cur, last)
	return true
}

// Set stores v at the dotted path, creating intermediate objects as needed.
// A non-object value in the way is replaced.
func (r Record) Set(path string, v interface{}) {
	parts := strings.Split(path, PathSeparator)
	cur := r
	for _, p := range parts[:len(parts)-1] {
		next, ok := AsRecord(cur[p])
		if !ok {
			next = Record{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return cloneValue(r).(Record)
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Record:
		out := make(Record, len(t))
		for k, v := range t {
			out[k] = cloneValue(v)
		}
		return out
	case map[string]interface{}:
		out := make(Record, len(t))
		for k, v := range t {
			out[k] = cloneValue(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = cloneValue(v)
		}
		return out
	}
	return v
}

// String returns the string form of a JSON value: strings as is, numbers
// and booleans as written in JSON, null as "null", and objects or arrays as
// compact JSON.
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case Record, map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
