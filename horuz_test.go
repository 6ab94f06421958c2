// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package horuz_test

import (
	"testing"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateProjectName(t *testing.T) {
	for _, name := range []string{"acme", "acme.com", "bug-bounty_2021", "9lives"} {
		assert.NoError(t, horuz.ValidateProjectName(name), name)
	}

	err := horuz.ValidateProjectName("")
	assert.True(t, errors.Is(err, horuz.ErrProjectRequired))

	for _, name := range []string{"Acme", "_hidden", "-x", "a b", "a/b", "a*", "..", "a:b", "a,b"} {
		err := horuz.ValidateProjectName(name)
		assert.True(t, errors.Is(err, horuz.ErrProjectName), name)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, horuz.SplitList(""))
	assert.Nil(t, horuz.SplitList("  "))
	assert.Equal(t, []string{"html", "result.resultfile"}, horuz.SplitList(" html, ,result.resultfile ,"))
}
