package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(value float64, env Environment) []Metric {
	return []Metric{{
		Type:        MetricTypeOpsPerSec,
		Value:       value,
		RunCount:    1,
		Environment: env,
	}}
}

// storedRevision mimics a revision read back from storage.
func storedRevision() *Revision {
	return &Revision{
		TestCaseID:  1,
		ID:          10,
		Number:      1,
		Title:       "Regex vs search",
		Slug:        "regex-vs-search",
		Status:      StatusPublic,
		Description: "compare",
		Harness:     Harness{SetUp: "var str = 'Hello';"},
		Entries: []Entry{
			{ID: 100, Title: "test", Code: "a()", Totals: withIDs(sample(100, chrome("55")), 1000)},
			{ID: 101, Title: "search", Code: "b()", Totals: withIDs(sample(200, chrome("55")), 1001)},
			{ID: 102, Title: "match", Code: "c()", Totals: withIDs(sample(300, chrome("55")), 1002)},
		},
	}
}

func withIDs(metrics []Metric, id uint) []Metric {
	for i := range metrics {
		metrics[i].ID = id
	}

	return metrics
}

// resubmission mimics a validated draft built from the same payload.
func resubmission(env Environment) *Revision {
	return &Revision{
		Number:      1,
		Title:       "Regex vs search",
		Slug:        "regex-vs-search",
		Status:      StatusPublic,
		Description: "compare",
		Harness:     Harness{SetUp: "var str = 'Hello';"},
		Entries: []Entry{
			{Title: "test", Code: "a()", Totals: sample(250, env)},
			{Title: "search", Code: "b()", Totals: sample(200, env)},
			{Title: "match", Code: "c()", Totals: sample(300, env)},
		},
	}
}

func TestMerge_UnchangedPayloadStaysInPlace(t *testing.T) {
	current := storedRevision()
	result := Merge(current, resubmission(chrome("55")))

	require.Equal(t, MergeInPlace, result.Kind)

	merged := result.Revision
	assert.Equal(t, 1, merged.Number)
	assert.Equal(t, uint(10), merged.ID)
	require.Len(t, merged.Entries, 3)

	first := merged.Entries[0]
	assert.Equal(t, uint(100), first.ID)
	require.Len(t, first.Totals, 1)
	assert.Equal(t, uint(1000), first.Totals[0].ID)
	assert.InDelta(t, 175.0, first.Totals[0].Value, 1e-9)
	assert.Equal(t, 2, first.Totals[0].RunCount)

	// The inputs are left untouched.
	assert.InDelta(t, 100.0, current.Entries[0].Totals[0].Value, 1e-9)
	assert.Equal(t, 1, current.Entries[0].Totals[0].RunCount)
}

func TestMerge_NewEnvironmentAddsBucket(t *testing.T) {
	result := Merge(storedRevision(), resubmission(chrome("53")))

	require.Equal(t, MergeInPlace, result.Kind)

	for _, e := range result.Revision.Entries {
		require.Len(t, e.Totals, 2)
		assert.Equal(t, "55", e.Totals[0].BrowserVersion)
		assert.Equal(t, "53", e.Totals[1].BrowserVersion)
		assert.Equal(t, uint(0), e.Totals[1].ID)
	}
}

func TestMerge_ScalarFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Revision)
		wantKind MergeKind
	}{
		{name: "title", mutate: func(r *Revision) { r.Title = "renamed" }, wantKind: MergeInPlace},
		{name: "status", mutate: func(r *Revision) { r.Status = StatusPrivate }, wantKind: MergeInPlace},
		{name: "entry title", mutate: func(r *Revision) { r.Entries[0].Title = "other" }, wantKind: MergeInPlace},
		{name: "slug", mutate: func(r *Revision) { r.Slug = "new-slug" }, wantKind: MergeNewRevision},
		{name: "description", mutate: func(r *Revision) { r.Description = "changed" }, wantKind: MergeNewRevision},
		{name: "harness html", mutate: func(r *Revision) { r.Harness.HTML = "<div>" }, wantKind: MergeNewRevision},
		{name: "harness setUp", mutate: func(r *Revision) { r.Harness.SetUp = "var x;" }, wantKind: MergeNewRevision},
		{name: "harness tearDown", mutate: func(r *Revision) { r.Harness.TearDown = "x = null;" }, wantKind: MergeNewRevision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := resubmission(chrome("55"))
			tt.mutate(input)

			result := Merge(storedRevision(), input)

			assert.Equal(t, tt.wantKind, result.Kind)
			assert.Equal(t, input.Title, result.Revision.Title)
			assert.Equal(t, input.Status, result.Revision.Status)
			assert.Equal(t, input.Slug, result.Revision.Slug)
			assert.Equal(t, input.Harness, result.Revision.Harness)
		})
	}
}

func TestMerge_HarnessChangeKeepsMetricHistory(t *testing.T) {
	input := resubmission(chrome("55"))
	input.Harness.SetUp = "var str = 'changed';"

	result := Merge(storedRevision(), input)

	require.Equal(t, MergeNewRevision, result.Kind)

	forked := result.Revision
	assert.Equal(t, 2, forked.Number)
	assert.Equal(t, uint(0), forked.ID)
	assert.Equal(t, uint(10), forked.ParentID)
	require.Len(t, forked.Entries, 3)

	for _, e := range forked.Entries {
		assert.False(t, e.Obsolete)
		assert.Equal(t, uint(0), e.ID)
		require.Len(t, e.Totals, 1)
		assert.Equal(t, 2, e.Totals[0].RunCount)
		assert.Equal(t, uint(0), e.Totals[0].ID)
	}

	assert.InDelta(t, 175.0, forked.Entries[0].Totals[0].Value, 1e-9)
}

func TestMerge_RemovedEntryIsMarkedObsolete(t *testing.T) {
	input := resubmission(chrome("55"))
	input.Entries = []Entry{input.Entries[0], input.Entries[2]}

	result := Merge(storedRevision(), input)

	require.Equal(t, MergeNewRevision, result.Kind)
	require.Len(t, result.Revision.Entries, 3)

	obsolete := result.Revision.Entries[1]
	assert.True(t, obsolete.Obsolete)
	assert.Equal(t, "b()", obsolete.Code)
	assert.Equal(t, uint(101), obsolete.ID)

	live := result.Revision.LiveEntries()
	require.Len(t, live, 2)
	assert.Equal(t, "a()", live[0].Code)
	assert.Equal(t, "c()", live[1].Code)

	for _, e := range live {
		assert.Equal(t, 2, e.Totals[0].RunCount)
	}
}

func TestMerge_AddedEntryIsAppended(t *testing.T) {
	input := resubmission(chrome("55"))
	input.Entries = append(input.Entries, Entry{
		ID:     55,
		Title:  "indexOf",
		Code:   "d()",
		Totals: sample(400, chrome("55")),
	})

	result := Merge(storedRevision(), input)

	require.Equal(t, MergeNewRevision, result.Kind)
	require.Len(t, result.Revision.Entries, 4)

	added := result.Revision.Entries[3]
	assert.Equal(t, "d()", added.Code)
	assert.Equal(t, uint(0), added.ID)
	require.Len(t, added.Totals, 1)
	assert.Equal(t, 1, added.Totals[0].RunCount)
}

func TestMerge_DuplicateInputCodesLastWins(t *testing.T) {
	input := resubmission(chrome("55"))
	input.Entries = append(input.Entries,
		Entry{Title: "new-first", Code: "z()", Totals: sample(1, chrome("55"))},
		Entry{Title: "new-last", Code: "z()", Totals: sample(9, chrome("55"))},
		Entry{Title: "test-last", Code: "a()", Totals: sample(500, chrome("55"))},
	)

	result := Merge(storedRevision(), input)
	entries := result.Revision.Entries

	require.Len(t, entries, 4)
	assert.Equal(t, "test-last", entries[0].Title)
	assert.InDelta(t, 300.0, entries[0].Totals[0].Value, 1e-9)
	assert.Equal(t, "new-last", entries[3].Title)
	assert.InDelta(t, 9.0, entries[3].Totals[0].Value, 1e-9)
}

func TestMerge_DraftAlwaysForks(t *testing.T) {
	current := storedRevision()
	current.Draft = true
	current.Number = 2

	result := Merge(current, resubmission(chrome("55")))

	require.Equal(t, MergeNewRevision, result.Kind)
	assert.Equal(t, 3, result.Revision.Number)
	assert.False(t, result.Revision.Draft)
	assert.Equal(t, uint(10), result.Revision.ParentID)
}

func TestMergeKind_String(t *testing.T) {
	assert.Equal(t, "in_place", MergeInPlace.String())
	assert.Equal(t, "new_revision", MergeNewRevision.String())
	assert.Equal(t, "unknown", MergeKind(9).String())
}
