package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/jsbench/pkg/apperr"
)

const fixtureYAML = `
title: Regex
slug: regex
status: public
harness:
  setUp: var str = 'Hello world';
env:
  browserName: Chrome
  browserVersion: "55"
  os: {architecture: "64", family: Linux, version: "6.1"}
entries:
  - {title: test, code: "/o/.test(str);", results: {opsPerSec: 100}}
  - {title: indexOf, code: "str.indexOf('o') > -1;", results: {opsPerSec: 300}}
---
- slug: loops
  entries:
    - {title: for, code: "for (;;) break;"}
    - {title: while, code: "while (true) break;"}
- slug: arrays
  entries:
    - {title: push, code: "a.push(1);"}
    - {title: concat, code: "a.concat([1]);"}
`

func TestReadFixtures(t *testing.T) {
	inputs, err := readFixtures(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, inputs, 3)

	assert.Equal(t, "regex", inputs[0].Slug)
	assert.Equal(t, "public", inputs[0].Status)
	require.Len(t, inputs[0].Entries, 2)
	require.Len(t, inputs[0].Entries[0].Totals, 1)
	assert.InDelta(t, 100, inputs[0].Entries[0].Totals[0].Value, 0.0001)

	assert.Equal(t, "loops", inputs[1].Slug)
	assert.Equal(t, "arrays", inputs[2].Slug)
}

func TestReadFixtures_JSON(t *testing.T) {
	inputs, err := readFixtures(strings.NewReader(`{"slug": "json", "entries": [
		{"title": "a", "code": "a();"},
		{"title": "b", "code": "b();"}
	]}`))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "json", inputs[0].Slug)
}

func TestReadFixtures_IntegerKeyedEntries(t *testing.T) {
	inputs, err := readFixtures(strings.NewReader(`
slug: keyed
entries:
  1: {title: second, code: "b();", results: {opsPerSec: 20}}
  0: {title: first, code: "a();", results: {opsPerSec: 10}}
`))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.Len(t, inputs[0].Entries, 2)
	assert.Equal(t, "a();", inputs[0].Entries[0].Code)
	assert.Equal(t, "b();", inputs[0].Entries[1].Code)
}

func TestStringKeys(t *testing.T) {
	got := stringKeys(map[string]any{
		"entries": map[any]any{0: "a", 1: map[any]any{true: "b"}},
		"list":    []any{map[any]any{2: "c"}},
	})

	assert.Equal(t, map[string]any{
		"entries": map[string]any{"0": "a", "1": map[string]any{"true": "b"}},
		"list":    []any{map[string]any{"2": "c"}},
	}, got)
}

func TestReadFixtures_Invalid(t *testing.T) {
	_, err := readFixtures(strings.NewReader(`
slug: lonely
entries:
  - {title: only, code: "x();"}
`))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeEntryCount))

	_, err = readFixtures(strings.NewReader("slug: [unterminated"))
	require.Error(t, err)
}
