// Package revision implements the test case revision model: input
// validation, the merge of a resubmission into the stored revision, the
// weighted metric fold and the per-browser report.
package revision

// Test case visibility.
const (
	StatusPublic  = "public"
	StatusPrivate = "private"
)

// Harness holds the shared page markup and setup/teardown code of a test case.
type Harness struct {
	HTML     string `json:"html"`
	SetUp    string `json:"setUp"`
	TearDown string `json:"tearDown"`
}

// Revision is one snapshot of a test case. Only the latest revision of a
// test case may be changed in place.
type Revision struct {
	TestCaseID uint
	ID         uint
	// ParentID links a forked revision to the revision it was created from.
	ParentID    uint
	Number      int
	Title       string
	Slug        string
	Status      string
	Description string
	Harness     Harness
	Entries     []Entry

	// Draft is set at read time when the revision is not the test case's
	// current one.
	Draft bool
}

// Clone returns a deep copy of r.
func (r *Revision) Clone() *Revision {
	c := *r

	c.Entries = make([]Entry, len(r.Entries))
	for i := range r.Entries {
		c.Entries[i] = r.Entries[i].clone()
	}

	return &c
}

// LiveEntries returns the entries that are not marked obsolete.
func (r *Revision) LiveEntries() []Entry {
	live := make([]Entry, 0, len(r.Entries))

	for i := range r.Entries {
		if !r.Entries[i].Obsolete {
			live = append(live, r.Entries[i])
		}
	}

	return live
}
