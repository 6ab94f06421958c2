// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package errors_test

import (
	"fmt"
	"testing"

	"github.com/featurebasedb/horuz/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		uncoded := newUncoded("uncoded error")
		pnf := newErrProjectNotFound("prj")
		bad := newErrMalformedQuery("hits")
		pnfCustom := errors.New(errProjectNotFound, "custom project message")

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{
				err:    uncoded,
				target: errUncoded,
				exp:    true,
			},
			{
				err:    uncoded,
				target: errProjectNotFound,
				exp:    false,
			},
			{
				err:    pnf,
				target: errProjectNotFound,
				exp:    true,
			},
			{
				err:    pnf,
				target: errMalformedQuery,
				exp:    false,
			},
			{
				err:    errors.Wrap(bad, "with message"),
				target: errMalformedQuery,
				exp:    true,
			},
			{
				err:    pnfCustom,
				target: errProjectNotFound,
				exp:    true,
			},
			{
				err:    fmt.Errorf("plain"),
				target: errUncoded,
				exp:    false,
			},
		}

		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				got := errors.Is(test.err, test.target)
				assert.Equal(t, test.exp, got)
			})
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		assert.Equal(t, errMalformedQuery, errors.CodeOf(errors.Wrap(newErrMalformedQuery("x"), "outer")))
		assert.Equal(t, errors.Code(""), errors.CodeOf(fmt.Errorf("plain")))
	})

	t.Run("Newf", func(t *testing.T) {
		err := errors.Newf(errProjectNotFound, "project %q not found", "acme")
		assert.EqualError(t, err, `project "acme" not found`)
		assert.True(t, errors.Is(err, errProjectNotFound))
	})
}

// Test error codes.

const (
	errUncoded         errors.Code = "Uncoded"
	errProjectNotFound errors.Code = "ProjectNotFound"
	errMalformedQuery  errors.Code = "MalformedQuery"
)

func newUncoded(message string) error {
	return errors.New(
		errUncoded,
		message,
	)
}

func newErrProjectNotFound(project string) error {
	return errors.New(
		errProjectNotFound,
		"project not found: "+project,
	)
}

func newErrMalformedQuery(part string) error {
	return errors.New(
		errMalformedQuery,
		"malformed query result: "+part,
	)
}
