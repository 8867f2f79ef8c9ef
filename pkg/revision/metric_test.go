package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chrome(version string) Environment {
	return Environment{
		BrowserName:    "Chrome",
		BrowserVersion: version,
		OSArchitecture: "64",
		OSFamily:       "Linux",
		OSVersion:      "6.1",
	}
}

func TestMetric_FoldIsOrderIndependent(t *testing.T) {
	samples := []float64{100, 200, 300}

	orders := [][]int{
		{0, 1, 2},
		{0, 2, 1},
		{1, 0, 2},
		{1, 2, 0},
		{2, 0, 1},
		{2, 1, 0},
	}

	for _, order := range orders {
		m := Metric{
			Type:        MetricTypeOpsPerSec,
			Value:       samples[order[0]],
			RunCount:    1,
			Environment: chrome("55"),
		}

		for _, idx := range order[1:] {
			m.Fold(Metric{Value: samples[idx], RunCount: 1})
		}

		assert.InDelta(t, 200.0, m.Value, 1e-9, "order %v", order)
		assert.Equal(t, 3, m.RunCount, "order %v", order)
	}
}

func TestMetric_FoldWeightsByRunCount(t *testing.T) {
	m := Metric{Value: 100, RunCount: 3}
	m.Fold(Metric{Value: 500, RunCount: 1})

	assert.InDelta(t, 200.0, m.Value, 1e-9)
	assert.Equal(t, 4, m.RunCount)
}

func TestMetric_FoldZeroRunCounts(t *testing.T) {
	m := Metric{Value: 0, RunCount: 0}
	m.Fold(Metric{Value: 10, RunCount: 0})

	assert.Equal(t, 0, m.RunCount)
	assert.Zero(t, m.Value)
}

func TestEnvironment_Fingerprint(t *testing.T) {
	a := chrome("55")
	b := chrome("55")
	c := chrome("53")

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 32)

	// Field boundaries matter: moving text between fields changes the key.
	shifted := Environment{BrowserName: "Chrome5", BrowserVersion: "5"}
	plain := Environment{BrowserName: "Chrome", BrowserVersion: "55"}
	assert.NotEqual(t, shifted.Fingerprint(), plain.Fingerprint())
}

func TestNormalizeMetricType(t *testing.T) {
	assert.Equal(t, MetricTypeOpsPerSec, NormalizeMetricType("opsPerSec"))
	assert.Equal(t, MetricTypeCustom, NormalizeMetricType("ms"))
	assert.Equal(t, MetricTypeCustom, NormalizeMetricType(""))
}

func TestEntry_InheritTotals(t *testing.T) {
	e := Entry{
		Code: "a()",
		Totals: []Metric{
			{Type: MetricTypeOpsPerSec, Value: 100, RunCount: 1, Environment: chrome("55")},
		},
	}

	e.InheritTotals([]Metric{
		{Type: MetricTypeOpsPerSec, Value: 250, RunCount: 1, Environment: chrome("55")},
		{Type: MetricTypeOpsPerSec, Value: 90, RunCount: 1, Environment: chrome("53")},
		{Type: MetricTypeOpsPerSec, Value: 110, RunCount: 1, Environment: chrome("53")},
	})

	require.Len(t, e.Totals, 2)

	assert.Equal(t, "55", e.Totals[0].BrowserVersion)
	assert.InDelta(t, 175.0, e.Totals[0].Value, 1e-9)
	assert.Equal(t, 2, e.Totals[0].RunCount)

	assert.Equal(t, "53", e.Totals[1].BrowserVersion)
	assert.InDelta(t, 100.0, e.Totals[1].Value, 1e-9)
	assert.Equal(t, 2, e.Totals[1].RunCount)
}

func TestIndexByContent_LastWins(t *testing.T) {
	entries := []Entry{
		{Title: "first", Code: "x"},
		{Title: "other", Code: "y"},
		{Title: "second", Code: "x"},
	}

	index := IndexByContent(entries)

	require.Len(t, index, 2)
	assert.Equal(t, 2, index[ContentHash("x")])
	assert.Equal(t, 1, index[ContentHash("y")])
}

func TestContentHash(t *testing.T) {
	// sha1("") is a well known constant.
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", ContentHash(""))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}
