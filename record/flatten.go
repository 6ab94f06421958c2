// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package record

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
)

// IDField is the key a search hit's document id is stored under when it is
// merged into its source.
const IDField = "_id"

// FlatRecord is a single level view of a Record for display. Keys holds the
// column order produced by Flatten.
type FlatRecord struct {
	Keys   []string
	Values map[string]string
}

// Get returns the value for key, or "" if it is absent.
func (f FlatRecord) Get(key string) string {
	return f.Values[key]
}

// MarshalJSON encodes f as an object with its keys in column order.
func (f FlatRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Walk calls fn for every leaf of r. Keys are visited in sorted order at
// every level, and a nested object's leaves are reported under their own key
// without the parent's name.
func Walk(r Record, fn func(key string, value interface{})) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m, ok := AsRecord(r[k]); ok {
			Walk(m, fn)
			continue
		}
		fn(k, r[k])
	}
}

// Flatten collapses r into a FlatRecord. Leaves with the same key at
// different depths collide: the later one in walk order wins, but the column
// keeps the position where the key first appeared. Every value is converted
// to its string form and then escape decoded with Unescape.
func Flatten(r Record) FlatRecord {
	f := FlatRecord{Values: make(map[string]string)}
	Walk(r, func(key string, value interface{}) {
		if _, ok := f.Values[key]; !ok {
			f.Keys = append(f.Keys, key)
		}
		f.Values[key] = Unescape(String(value))
	})
	return f
}

// FlattenAll flattens every record.
func FlattenAll(records []Record) []FlatRecord {
	out := make([]FlatRecord, len(records))
	for i, r := range records {
		out[i] = Flatten(r)
	}
	return out
}

// Hits extracts the documents from a search response envelope. Each
// document is the hit's _source with the hit's _id added under IDField. A
// nil envelope yields no documents; an envelope without hits.hits is
// malformed.
func Hits(envelope Record) ([]Record, error) {
	if envelope == nil {
		return nil, nil
	}
	rawHits, ok := envelope["hits"]
	if !ok {
		return nil, errors.New(horuz.ErrMalformedQuery, "query result is malformed: no hits")
	}
	hits, ok := AsRecord(rawHits)
	if !ok {
		return nil, errors.New(horuz.ErrMalformedQuery, "query result is malformed: hits is not an object")
	}
	list, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New(horuz.ErrMalformedQuery, "query result is malformed: hits.hits is not a list")
	}

	out := make([]Record, 0, len(list))
	for i, h := range list {
		hit, ok := AsRecord(h)
		if !ok {
			return nil, errors.Newf(horuz.ErrMalformedQuery, "query result is malformed: hit %d is not an object", i)
		}
		src := Record{}
		if s, ok := hit["_source"]; ok && s != nil {
			if src, ok = AsRecord(s); !ok {
				return nil, errors.Newf(horuz.ErrMalformedQuery, "query result is malformed: hit %d has a non-object _source", i)
			}
		}
		src[IDField] = hit["_id"]
		out = append(out, src)
	}
	return out, nil
}

// Unescape decodes backslash escapes in s: \n \t \r \a \b \f \v \\ \' \",
// \xHH, \uXXXX, \UXXXXXXXX and one to three digit octal escapes. A
// backslash followed by a newline is dropped. Escapes that don't parse are
// kept as written.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			i++
			continue
		}
		r, n, ok := unescapeOne(s[i+1:])
		if !ok {
			sb.WriteByte(c)
			i++
			continue
		}
		if r >= 0 {
			sb.WriteRune(r)
		}
		i += 1 + n
	}
	return sb.String()
}

// unescapeOne decodes the escape at the start of s, which follows a
// backslash. It returns the rune (-1 for none), the number of bytes
// consumed, and whether s began with a valid escape.
func unescapeOne(s string) (rune, int, bool) {
	switch s[0] {
	case 'n':
		return '\n', 1, true
	case 't':
		return '\t', 1, true
	case 'r':
		return '\r', 1, true
	case 'a':
		return '\a', 1, true
	case 'b':
		return '\b', 1, true
	case 'f':
		return '\f', 1, true
	case 'v':
		return '\v', 1, true
	case '\\', '\'', '"':
		return rune(s[0]), 1, true
	case '\n':
		return -1, 1, true
	case 'x':
		return hexEscape(s, 2)
	case 'u':
		return hexEscape(s, 4)
	case 'U':
		return hexEscape(s, 8)
	}
	if isOctal(s[0]) {
		var r rune
		n := 0
		for n < 3 && n < len(s) && isOctal(s[n]) {
			r = r*8 + rune(s[n]-'0')
			n++
		}
		return r, n, true
	}
	return 0, 0, false
}

func hexEscape(s string, digits int) (rune, int, bool) {
	if len(s) < 1+digits {
		return 0, 0, false
	}
	var r rune
	for _, c := range []byte(s[1 : 1+digits]) {
		d, ok := hexValue(c)
		if !ok {
			return 0, 0, false
		}
		r = r<<4 | rune(d)
	}
	if !utf8.ValidRune(r) {
		return 0, 0, false
	}
	return r, 1 + digits, true
}

func hexValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isOctal(c byte) bool {
	return '0' <= c && c <= '7'
}
