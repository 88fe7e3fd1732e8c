// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gatedsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Simple(t *testing.T) {
	n, err := Parse("typecheck")
	require.NoError(t, err)
	require.Equal(t, KindCheck, n.Kind)
	assert.Equal(t, CheckSimple, n.Check.Kind)
	assert.Equal(t, "typecheck", n.Check.Name)
}

func TestParse_CompoundAnd(t *testing.T) {
	n, err := Parse("typecheck AND tests")
	require.NoError(t, err)
	require.Equal(t, KindAnd, n.Kind)
	assert.Equal(t, "typecheck", n.Left.Check.Name)
	assert.Equal(t, "tests", n.Right.Check.Name)
}

func TestParse_Not(t *testing.T) {
	n, err := Parse("NOT typecheck")
	require.NoError(t, err)
	require.Equal(t, KindNot, n.Kind)
	assert.Equal(t, "typecheck", n.Left.Check.Name)
}

func TestParse_Parenthesized(t *testing.T) {
	n, err := Parse("typecheck AND (tests OR memory:*.md)")
	require.NoError(t, err)
	require.Equal(t, KindAnd, n.Kind)
	require.Equal(t, KindOr, n.Right.Kind)
}

func TestParse_MemoryColon(t *testing.T) {
	n, err := Parse("memory:notes-*.md")
	require.NoError(t, err)
	assert.Equal(t, CheckMemory, n.Check.Kind)
	assert.Equal(t, "notes-*.md", n.Check.Name)
}

func TestParse_Traceability(t *testing.T) {
	n, err := Parse("traceability:requirementId")
	require.NoError(t, err)
	assert.Equal(t, CheckTraceability, n.Check.Kind)
	assert.Equal(t, "requirementId", n.Check.Name)
}

func TestParse_EvidenceExists(t *testing.T) {
	n, err := Parse("evidence:t1 exists")
	require.NoError(t, err)
	assert.Equal(t, CheckEvidenceExists, n.Check.Kind)
	assert.Equal(t, "t1", n.Check.Name)
}

func TestParse_EvidenceExists_NoKeyword(t *testing.T) {
	n, err := Parse("evidence:t1")
	require.NoError(t, err)
	assert.Equal(t, CheckEvidenceExists, n.Check.Kind)
}

func TestParse_EvidenceCoverage(t *testing.T) {
	n, err := Parse("evidence:coverage >= 80")
	require.NoError(t, err)
	require.Equal(t, CheckEvidenceCoverage, n.Check.Kind)
	assert.Equal(t, ">=", n.Check.Op)
	assert.Equal(t, float64(80), n.Check.Value)
}

func TestParse_BareCoveragePercent(t *testing.T) {
	n, err := Parse("coverage >= 80%")
	require.NoError(t, err)
	require.Equal(t, CheckCoverage, n.Check.Kind)
	assert.True(t, n.Check.Percent)
}

func TestParse_Threshold(t *testing.T) {
	n, err := Parse("tests[passed] >= 10")
	require.NoError(t, err)
	require.Equal(t, CheckThreshold, n.Check.Kind)
	assert.Equal(t, "tests", n.Check.Subject)
	assert.Equal(t, "passed", n.Check.Field)
	assert.Equal(t, float64(10), n.Check.Value)
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	n, err := Parse("typecheck and tests")
	require.NoError(t, err)
	assert.Equal(t, KindAnd, n.Kind)
}

func TestParse_UnbalancedParen(t *testing.T) {
	_, err := Parse("(typecheck AND tests")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParse_UnrecognizedCharacter(t *testing.T) {
	_, err := Parse("typecheck @ tests")
	require.Error(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"typecheck",
		"typecheck AND tests",
		"typecheck AND tests OR memory:*.md",
		"typecheck AND (tests OR memory:*.md)",
		"NOT typecheck",
		"NOT (typecheck AND tests)",
		"evidence:coverage >= 80",
		"tests[passed] >= 10",
		"traceability:reqId AND evidence:chain1 exists",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			first, err := Parse(c)
			require.NoError(t, err)
			printed := first.String()
			second, err := Parse(printed)
			require.NoError(t, err, "reparsing printed form %q", printed)
			assert.Equal(t, first.String(), second.String())
		})
	}
}

func TestIsLegacy(t *testing.T) {
	assert.True(t, IsLegacy("typecheck, tests, coverage:80"))
	assert.False(t, IsLegacy("typecheck AND tests"))
	assert.False(t, IsLegacy("coverage >= 80"))
}

func TestParseLegacy(t *testing.T) {
	cfg := ParseLegacy("typecheck, tests, coverage:80")
	assert.True(t, cfg.Typecheck)
	assert.True(t, cfg.Tests)
	require.NotNil(t, cfg.Coverage)
	assert.Equal(t, 80, *cfg.Coverage)
}
