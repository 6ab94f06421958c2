// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package record

import (
	"strconv"
	"strings"
)

// DuplicateReferenceField is set on every stored duplicate to the id the
// backend generated for its group's representative.
const DuplicateReferenceField = "duplicate_reference_id"

// Group is a representative record and the records that share its values at
// the key fields. Duplicates is nil for a record with no duplicates.
type Group struct {
	Record     Record
	Duplicates []Record
}

// Filter groups records by the string form of their values at keyFields.
//
// dropFields are removed from every record first, so they take no part in
// the comparison and are not stored. A missing key field counts as the empty
// string. The first record seen for a key becomes the representative and the
// rest, in input order, its duplicates. Groups come back in the order their
// representatives appeared. Every input record ends up in exactly one group.
//
// If every key resolves to the empty string the whole input collapses into a
// single group.
func Filter(records []Record, keyFields, dropFields []string) []Group {
	groups := make([]Group, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		for _, path := range dropFields {
			rec.Remove(path)
		}

		key := groupKey(rec, keyFields)
		if i, ok := index[key]; ok {
			groups[i].Duplicates = append(groups[i].Duplicates, rec)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Record: rec})
	}
	return groups
}

func groupKey(rec Record, keyFields []string) string {
	var sb strings.Builder
	for i, path := range keyFields {
		if i > 0 {
			sb.WriteByte(',')
		}
		var s string
		if v, ok := rec.Lookup(path); ok {
			s = String(v)
		}
		sb.WriteString(strconv.Quote(s))
	}
	return sb.String()
}

// Records returns the representative followed by its duplicates.
func (g Group) Records() []Record {
	out := make([]Record, 0, 1+len(g.Duplicates))
	out = append(out, g.Record)
	return append(out, g.Duplicates...)
}
