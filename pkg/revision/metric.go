package revision

import (
	"crypto/md5" //nolint:gosec // used as a bucketing key, not for security.
	"encoding/hex"
	"strings"
)

// Metric types.
const (
	MetricTypeOpsPerSec = "opsPerSec"
	MetricTypeCustom    = "custom"
)

// Environment identifies the browser and operating system a sample was
// measured on.
type Environment struct {
	BrowserName    string
	BrowserVersion string
	OSArchitecture string
	OSFamily       string
	OSVersion      string
}

// Fingerprint returns the dedup key for metrics measured in this
// environment. The field order is fixed so equal environments always map to
// the same key.
func (e Environment) Fingerprint() string {
	sum := md5.Sum([]byte(strings.Join([]string{ //nolint:gosec // see import.
		e.BrowserName,
		e.BrowserVersion,
		e.OSArchitecture,
		e.OSFamily,
		e.OSVersion,
	}, "|")))

	return hex.EncodeToString(sum[:])
}

// Metric is the aggregated measurement of one entry in one environment.
type Metric struct {
	ID       uint
	Type     string
	Value    float64
	RunCount int
	Environment
}

// NormalizeMetricType maps anything that is not opsPerSec to custom.
func NormalizeMetricType(t string) string {
	if t == MetricTypeOpsPerSec {
		return t
	}

	return MetricTypeCustom
}

// Fold merges in into m as a running weighted mean. The resulting value does
// not depend on the order in which samples are folded.
func (m *Metric) Fold(in Metric) {
	total := m.Value*float64(m.RunCount) + in.Value*float64(in.RunCount)

	m.RunCount += in.RunCount
	if m.RunCount == 0 {
		return
	}

	m.Value = total / float64(m.RunCount)
}
