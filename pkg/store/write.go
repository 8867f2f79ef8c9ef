package store

import (
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/revision"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createRevision inserts rev as a new revision of the test case and makes it
// the current one. The stored number never falls behind an existing revision
// of the same test case.
func createRevision(
	tx *gorm.DB, testCaseID uint, rev *revision.Revision,
) (uint, error) {
	var maxNumber int
	if err := tx.Model(&Revision{}).
		Where("test_case_id = ?", testCaseID).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber).Error; err != nil {
		return 0, fmt.Errorf("reading revision numbers: %w", err)
	}

	row := Revision{
		TestCaseID:      testCaseID,
		Number:          max(rev.Number, maxNumber+1),
		Title:           rev.Title,
		Slug:            rev.Slug,
		Description:     rev.Description,
		HarnessHTML:     rev.Harness.HTML,
		HarnessSetUp:    rev.Harness.SetUp,
		HarnessTearDown: rev.Harness.TearDown,
	}

	if rev.ParentID > 0 {
		parent := rev.ParentID
		row.ParentRevisionID = &parent
	}

	if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("inserting revision: %w", err)
	}

	if err := tx.Model(&TestCase{}).
		Where("id = ?", testCaseID).
		Updates(map[string]any{
			"latest_revision_id": row.ID,
			"slug":               rev.Slug,
			"status":             rev.Status,
		}).Error; err != nil {
		return 0, fmt.Errorf("pointing test case at revision: %w", err)
	}

	dims := newDimensions(tx)

	for i, e := range rev.LiveEntries() {
		if err := insertEntry(tx, dims, row.ID, i, &e); err != nil {
			return 0, err
		}
	}

	return row.ID, nil
}

// updateRevision writes an in-place merge: scalar fields, entry titles and
// totals. Obsolete entries are deleted with their totals and new entries are
// inserted.
func updateRevision(tx *gorm.DB, rev *revision.Revision) error {
	if err := tx.Model(&Revision{}).
		Where("id = ?", rev.ID).
		Updates(map[string]any{
			"title":             rev.Title,
			"slug":              rev.Slug,
			"description":       rev.Description,
			"number":            rev.Number,
			"harness_html":      rev.Harness.HTML,
			"harness_set_up":    rev.Harness.SetUp,
			"harness_tear_down": rev.Harness.TearDown,
		}).Error; err != nil {
		return fmt.Errorf("updating revision row: %w", err)
	}

	if err := tx.Model(&TestCase{}).
		Where("id = ?", rev.TestCaseID).
		Update("status", rev.Status).Error; err != nil {
		return fmt.Errorf("updating test case status: %w", err)
	}

	var (
		dims     = newDimensions(tx)
		obsolete = make([]uint, 0)
	)

	for i := range rev.Entries {
		e := &rev.Entries[i]

		switch {
		case e.Obsolete:
			if e.ID > 0 {
				obsolete = append(obsolete, e.ID)
			}
		case e.ID > 0:
			if err := tx.Model(&Entry{}).
				Where("id = ?", e.ID).
				Updates(map[string]any{
					"title":    e.Title,
					"position": i,
				}).Error; err != nil {
				return fmt.Errorf("updating entry %d: %w", e.ID, err)
			}

			if err := syncTotals(tx, dims, e); err != nil {
				return err
			}
		default:
			if err := insertEntry(tx, dims, rev.ID, i, e); err != nil {
				return err
			}
		}
	}

	return deleteEntries(tx, obsolete)
}

func insertEntry(
	tx *gorm.DB, dims *dimensions, revisionID uint, position int, e *revision.Entry,
) error {
	row := Entry{
		RevisionID: revisionID,
		Position:   position,
		Title:      e.Title,
		Code:       e.Code,
		CodeHash:   e.ContentHash(),
	}

	if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	for _, m := range e.Totals {
		if err := insertTotal(tx, dims, row.ID, m); err != nil {
			return err
		}
	}

	return nil
}

func insertTotal(tx *gorm.DB, dims *dimensions, entryID uint, m revision.Metric) error {
	browserID, err := dims.browserID(m.BrowserName, m.BrowserVersion)
	if err != nil {
		return err
	}

	osID, err := dims.operatingSystemID(m.OSArchitecture, m.OSFamily, m.OSVersion)
	if err != nil {
		return err
	}

	row := Total{
		EntryID:           entryID,
		BrowserID:         browserID,
		OperatingSystemID: osID,
		MetricType:        revision.NormalizeMetricType(m.Type),
		MetricValue:       m.Value,
		RunCount:          m.RunCount,
	}

	if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting total: %w", err)
	}

	return nil
}

// syncTotals reconciles the stored totals of e with its in-memory metrics by
// environment fingerprint. Stored totals without a counterpart are deleted.
func syncTotals(tx *gorm.DB, dims *dimensions, e *revision.Entry) error {
	var current []Total
	if err := tx.
		Preload("Browser").
		Preload("OperatingSystem").
		Where("entry_id = ?", e.ID).
		Order("id ASC").
		Find(&current).Error; err != nil {
		return fmt.Errorf("loading totals of entry %d: %w", e.ID, err)
	}

	stored := make(map[string]uint, len(current))
	for i := range current {
		stored[toMetric(&current[i]).Fingerprint()] = current[i].ID
	}

	for _, m := range e.Totals {
		key := m.Fingerprint()

		id, ok := stored[key]
		if !ok {
			if err := insertTotal(tx, dims, e.ID, m); err != nil {
				return err
			}

			continue
		}

		delete(stored, key)

		if err := tx.Model(&Total{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"metric_value": m.Value,
				"run_count":    m.RunCount,
			}).Error; err != nil {
			return fmt.Errorf("updating total %d: %w", id, err)
		}
	}

	if len(stored) == 0 {
		return nil
	}

	stale := make([]uint, 0, len(stored))
	for _, id := range stored {
		stale = append(stale, id)
	}

	if err := tx.Where("id IN ?", stale).Delete(&Total{}).Error; err != nil {
		return fmt.Errorf("deleting stale totals: %w", err)
	}

	return nil
}

func deleteEntries(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	if err := tx.Where("entry_id IN ?", ids).Delete(&Total{}).Error; err != nil {
		return fmt.Errorf("deleting totals of obsolete entries: %w", err)
	}

	if err := tx.Where("id IN ?", ids).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("deleting obsolete entries: %w", err)
	}

	return nil
}

// dimensions resolves browser and operating system rows, creating them on
// first use.
type dimensions struct {
	tx       *gorm.DB
	browsers map[[2]string]uint
	systems  map[[3]string]uint
}

func newDimensions(tx *gorm.DB) *dimensions {
	return &dimensions{
		tx:       tx,
		browsers: make(map[[2]string]uint, 4),
		systems:  make(map[[3]string]uint, 4),
	}
}

func (d *dimensions) browserID(name, version string) (uint, error) {
	key := [2]string{name, version}
	if id, ok := d.browsers[key]; ok {
		return id, nil
	}

	b := Browser{Name: name, Version: version}
	if err := d.tx.
		Where("name = ? AND version = ?", name, version).
		FirstOrCreate(&b).Error; err != nil {
		return 0, fmt.Errorf("resolving browser %q %q: %w", name, version, err)
	}

	d.browsers[key] = b.ID

	return b.ID, nil
}

func (d *dimensions) operatingSystemID(arch, family, version string) (uint, error) {
	key := [3]string{arch, family, version}
	if id, ok := d.systems[key]; ok {
		return id, nil
	}

	system := OperatingSystem{Architecture: arch, Family: family, Version: version}
	if err := d.tx.
		Where("architecture = ? AND family = ? AND version = ?", arch, family, version).
		FirstOrCreate(&system).Error; err != nil {
		return 0, fmt.Errorf("resolving operating system %q %q %q: %w", arch, family, version, err)
	}

	d.systems[key] = system.ID

	return system.ID, nil
}
