package revision

// BrowserTotal is a metric aggregated over every OS a browser version ran on.
type BrowserTotal struct {
	// BrowserName holds the "name (version)" label.
	BrowserName string  `json:"browserName"`
	MetricType  string  `json:"metricType"`
	MetricValue float64 `json:"metricValue"`
	RunCount    int     `json:"runCount"`
}

// EntryReport lists the browser totals of one entry.
type EntryReport struct {
	Title  string         `json:"title"`
	Totals []BrowserTotal `json:"totals"`
}

// BrowserLabel formats the bucket label of a browser version.
func BrowserLabel(name, version string) string {
	return name + " (" + version + ")"
}

// ReportByBrowser collapses the metrics of every live entry of r down to one
// bucket per browser name and version, folding samples from different
// operating systems with the weighted mean. Entries keep their revision
// order; buckets appear in first-seen order.
func ReportByBrowser(r *Revision) []EntryReport {
	live := r.LiveEntries()
	reports := make([]EntryReport, 0, len(live))

	for _, e := range live {
		var (
			buckets = make([]Metric, 0, len(e.Totals))
			labels  = make([]string, 0, len(e.Totals))
			index   = make(map[string]int, len(e.Totals))
		)

		for _, m := range e.Totals {
			label := BrowserLabel(m.BrowserName, m.BrowserVersion)

			if i, ok := index[label]; ok {
				buckets[i].Fold(m)

				continue
			}

			index[label] = len(buckets)
			labels = append(labels, label)
			buckets = append(buckets, Metric{
				Type:     m.Type,
				Value:    m.Value,
				RunCount: m.RunCount,
			})
		}

		totals := make([]BrowserTotal, 0, len(buckets))
		for i, b := range buckets {
			totals = append(totals, BrowserTotal{
				BrowserName: labels[i],
				MetricType:  b.Type,
				MetricValue: b.Value,
				RunCount:    b.RunCount,
			})
		}

		reports = append(reports, EntryReport{Title: e.Title, Totals: totals})
	}

	return reports
}
