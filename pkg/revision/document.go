package revision

// Document is the serialized form of a revision handed to callers.
type Document struct {
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Status         string          `json:"status"`
	Description    string          `json:"description"`
	RevisionNumber int             `json:"revisionNumber"`
	Harness        Harness         `json:"harness"`
	Entries        []EntryDocument `json:"entries"`
}

// EntryDocument is the serialized form of an entry. ID is a display sequence
// number starting at 1, not the persisted id.
type EntryDocument struct {
	ID     int              `json:"id"`
	Title  string           `json:"title"`
	Code   string           `json:"code"`
	Totals []MetricDocument `json:"totals"`
}

// MetricDocument is the serialized form of a metric.
type MetricDocument struct {
	MetricType     string  `json:"metricType"`
	MetricValue    float64 `json:"metricValue"`
	RunCount       int     `json:"runCount"`
	BrowserName    string  `json:"browserName"`
	BrowserVersion string  `json:"browserVersion"`
	OSArchitecture string  `json:"osArchitecture"`
	OSFamily       string  `json:"osFamily"`
	OSVersion      string  `json:"osVersion"`
}

// Document serializes the live entries of r.
func (r *Revision) Document() Document {
	live := r.LiveEntries()

	doc := Document{
		Title:          r.Title,
		Slug:           r.Slug,
		Status:         r.Status,
		Description:    r.Description,
		RevisionNumber: r.Number,
		Harness:        r.Harness,
		Entries:        make([]EntryDocument, 0, len(live)),
	}

	for i, e := range live {
		totals := make([]MetricDocument, 0, len(e.Totals))
		for _, m := range e.Totals {
			totals = append(totals, MetricDocument{
				MetricType:     m.Type,
				MetricValue:    m.Value,
				RunCount:       m.RunCount,
				BrowserName:    m.BrowserName,
				BrowserVersion: m.BrowserVersion,
				OSArchitecture: m.OSArchitecture,
				OSFamily:       m.OSFamily,
				OSVersion:      m.OSVersion,
			})
		}

		doc.Entries = append(doc.Entries, EntryDocument{
			ID:     i + 1,
			Title:  e.Title,
			Code:   e.Code,
			Totals: totals,
		})
	}

	return doc
}
