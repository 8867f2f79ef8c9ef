package revision

// MergeKind tells how a merged revision has to be persisted.
type MergeKind int

const (
	// MergeInPlace updates the stored revision rows.
	MergeInPlace MergeKind = iota
	// MergeNewRevision forks a new revision from the stored one.
	MergeNewRevision
)

// String implements fmt.Stringer.
func (k MergeKind) String() string {
	switch k {
	case MergeInPlace:
		return "in_place"
	case MergeNewRevision:
		return "new_revision"
	default:
		return "unknown"
	}
}

// MergeResult is the outcome of Merge.
type MergeResult struct {
	Kind     MergeKind
	Revision *Revision
}

// Merge reconciles input into current and returns the resulting revision
// without touching either argument.
//
// Title, status and entry titles are updated in place. A different slug,
// description or harness, an added entry or a removed entry forks a new
// revision. Entries are matched by the content hash of their code, so the
// metrics of unchanged entries survive a fork. Removed entries stay in the
// result marked obsolete.
//
// A draft (non-latest) revision is never changed in place: any merge into it
// forks.
func Merge(current, input *Revision) MergeResult {
	merged := current.Clone()
	fork := current.Draft

	merged.Title = input.Title
	merged.Status = input.Status

	if merged.Slug != input.Slug {
		merged.Slug = input.Slug
		fork = true
	}

	if merged.Description != input.Description {
		merged.Description = input.Description
		fork = true
	}

	if merged.Harness != input.Harness {
		merged.Harness = input.Harness
		fork = true
	}

	entries, changed := reconcileEntries(merged.Entries, input.Entries)
	merged.Entries = entries

	if !fork && !changed {
		return MergeResult{Kind: MergeInPlace, Revision: merged}
	}

	merged.ParentID = current.ID
	merged.ID = 0
	merged.Number = current.Number + 1
	merged.Draft = false

	for i := range merged.Entries {
		if merged.Entries[i].Obsolete {
			continue
		}

		merged.Entries[i].ID = 0
		for j := range merged.Entries[i].Totals {
			merged.Entries[i].Totals[j].ID = 0
		}
	}

	return MergeResult{Kind: MergeNewRevision, Revision: merged}
}

// reconcileEntries joins current and input entries by content hash. It
// reports whether the entry set changed.
func reconcileEntries(current, input []Entry) ([]Entry, bool) {
	var (
		inputIndex = IndexByContent(input)
		matched    = make(map[string]struct{}, len(input))
		out        = make([]Entry, 0, len(current)+len(input))
		changed    bool
	)

	for _, entry := range current {
		key := entry.ContentHash()

		i, ok := inputIndex[key]
		if !ok {
			entry.Obsolete = true
			changed = true
			out = append(out, entry)

			continue
		}

		if input[i].Title != "" {
			entry.Title = input[i].Title
		}

		entry.InheritTotals(input[i].Totals)
		matched[key] = struct{}{}
		out = append(out, entry)
	}

	for i := range input {
		key := input[i].ContentHash()

		if _, ok := matched[key]; ok || inputIndex[key] != i {
			continue
		}

		added := input[i].clone()
		added.ID = 0
		added.Obsolete = false

		matched[key] = struct{}{}
		changed = true
		out = append(out, added)
	}

	return out, changed
}
