// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package horuz holds the types and errors shared by the hz command line
// tool: ingesting reconnaissance output into Elasticsearch and querying it
// back by project and session.
package horuz

import (
	"regexp"
	"strings"

	"github.com/featurebasedb/horuz/errors"
)

// Error codes.
const (
	ErrProjectRequired    errors.Code = "ProjectRequired"
	ErrProjectName        errors.Code = "ProjectName"
	ErrQueryRequired      errors.Code = "QueryRequired"
	ErrNoInput            errors.Code = "NoInput"
	ErrInvalidSize        errors.Code = "InvalidSize"
	ErrMalformedQuery     errors.Code = "MalformedQuery"
	ErrBackendUnavailable errors.Code = "BackendUnavailable"
	ErrAborted            errors.Code = "Aborted"
)

// Search size limits accepted by the search command.
const (
	MinSearchSize = 1
	MaxSearchSize = 10000
)

// DefaultOrder is the sort applied to searches unless overridden.
const DefaultOrder = "time:desc"

// Elasticsearch index names: lowercase, no path or wildcard characters, and
// not starting with -, _ or +.
var projectNameRegexp = regexp.MustCompile(`^[a-z0-9][^\\/*?"<>| ,#:A-Z]{0,254}$`)

// ValidateProjectName returns an error if name can't be used as a project
// (index) name.
func ValidateProjectName(name string) error {
	if name == "" {
		return errors.New(ErrProjectRequired, "project required")
	}
	if name == "." || name == ".." || !projectNameRegexp.MatchString(name) {
		return errors.Newf(ErrProjectName, "invalid project name %q: must be lowercase and must not contain \\ / * ? \" < > | , # : or spaces", name)
	}
	return nil
}

// SplitList splits a comma separated flag value into trimmed, non-empty
// items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
