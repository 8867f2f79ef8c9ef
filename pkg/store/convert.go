package store

import "github.com/ethpandaops/jsbench/pkg/revision"

func toRevision(row *Revision, tc *TestCase) *revision.Revision {
	rev := &revision.Revision{
		TestCaseID:  row.TestCaseID,
		ID:          row.ID,
		Number:      row.Number,
		Title:       row.Title,
		Slug:        row.Slug,
		Description: row.Description,
		Harness: revision.Harness{
			HTML:     row.HarnessHTML,
			SetUp:    row.HarnessSetUp,
			TearDown: row.HarnessTearDown,
		},
		Entries: make([]revision.Entry, 0, len(row.Entries)),
		Draft:   true,
	}

	if row.ParentRevisionID != nil {
		rev.ParentID = *row.ParentRevisionID
	}

	if tc != nil {
		rev.Status = tc.Status
		rev.Draft = tc.LatestRevisionID == nil || *tc.LatestRevisionID != row.ID
	}

	for i := range row.Entries {
		e := &row.Entries[i]

		entry := revision.Entry{
			ID:     e.ID,
			Title:  e.Title,
			Code:   e.Code,
			Totals: make([]revision.Metric, 0, len(e.Totals)),
		}

		for j := range e.Totals {
			entry.Totals = append(entry.Totals, toMetric(&e.Totals[j]))
		}

		rev.Entries = append(rev.Entries, entry)
	}

	return rev
}

func toMetric(t *Total) revision.Metric {
	return revision.Metric{
		ID:       t.ID,
		Type:     t.MetricType,
		Value:    t.MetricValue,
		RunCount: t.RunCount,
		Environment: revision.Environment{
			BrowserName:    t.Browser.Name,
			BrowserVersion: t.Browser.Version,
			OSArchitecture: t.OperatingSystem.Architecture,
			OSFamily:       t.OperatingSystem.Family,
			OSVersion:      t.OperatingSystem.Version,
		},
	}
}
