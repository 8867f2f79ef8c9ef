package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/ethpandaops/jsbench/pkg/revision"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup matches no revision.
var ErrNotFound = errors.New("not found")

// latestFirst orders the current revision of a test case before its drafts.
const latestFirst = "CASE WHEN revisions.id = test_cases.latest_revision_id " +
	"THEN 1 ELSE 0 END DESC, revisions.number DESC"

// Store persists test cases, their revisions and the client error log.
type Store interface {
	Start(ctx context.Context) error
	Stop() error
	Ping(ctx context.Context) error

	// Transaction runs fn against a Store bound to a single database
	// transaction. The transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// FindBySlug returns the revision carrying slug, preferring the test
	// case's current revision and then the highest revision number. A
	// positive number restricts the lookup to that revision number.
	FindBySlug(ctx context.Context, slug string, number int) (*revision.Revision, error)
	// ListRevisions returns every revision of the test case whose current
	// slug is slug, latest first.
	ListRevisions(ctx context.Context, slug string) ([]*revision.Revision, error)
	// ListLatest returns the current revision of every test case.
	ListLatest(ctx context.Context) ([]*revision.Revision, error)

	CreateTestCase(ctx context.Context, rev *revision.Revision) (uint, error)
	CreateRevision(ctx context.Context, testCaseID uint, rev *revision.Revision) (uint, error)
	UpdateRevision(ctx context.Context, rev *revision.Revision) error

	AppendErrorLogEntry(ctx context.Context, entry *ErrorLogEntry) error
	ListErrorLogEntries(ctx context.Context) ([]ErrorLogEntry, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.APIDatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.APIDatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dialector = postgres.Open(s.cfg.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if s.cfg.Driver == "sqlite" {
		sqlDB, err := s.db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		// A single connection serializes writers and keeps ":memory:"
		// databases alive across queries.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Browser{},
		&OperatingSystem{},
		&TestCase{},
		&Revision{},
		&Entry{},
		&Total{},
		&ErrorLogEntry{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

func (s *store) Transaction(
	ctx context.Context, fn func(tx Store) error,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{log: s.log, cfg: s.cfg, db: tx})
	})
}

// --- Reads ---

func (s *store) FindBySlug(
	ctx context.Context, slug string, number int,
) (*revision.Revision, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN test_cases ON test_cases.id = revisions.test_case_id").
		Where("revisions.slug = ?", slug)

	if number > 0 {
		q = q.Where("revisions.number = ?", number)
	}

	revs, err := s.loadRevisions(ctx, q.Order(latestFirst).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("finding revision by slug: %w", err)
	}

	if len(revs) == 0 {
		return nil, fmt.Errorf("finding revision by slug %q: %w", slug, ErrNotFound)
	}

	return revs[0], nil
}

func (s *store) ListRevisions(
	ctx context.Context, slug string,
) ([]*revision.Revision, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN test_cases ON test_cases.id = revisions.test_case_id").
		Where("test_cases.slug = ?", slug).
		Order(latestFirst)

	revs, err := s.loadRevisions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	return revs, nil
}

func (s *store) ListLatest(ctx context.Context) ([]*revision.Revision, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN test_cases ON test_cases.latest_revision_id = revisions.id").
		Order("test_cases.id ASC")

	revs, err := s.loadRevisions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing latest revisions: %w", err)
	}

	return revs, nil
}

// loadRevisions runs q with the entry tree preloaded and marks revisions
// that are not their test case's current one as drafts.
func (s *store) loadRevisions(
	ctx context.Context, q *gorm.DB,
) ([]*revision.Revision, error) {
	var rows []Revision
	if err := q.
		Select("revisions.*").
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("entries.position ASC, entries.id ASC")
		}).
		Preload("Entries.Totals", func(db *gorm.DB) *gorm.DB {
			return db.Order("totals.id ASC")
		}).
		Preload("Entries.Totals.Browser").
		Preload("Entries.Totals.OperatingSystem").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].TestCaseID)
	}

	var testCases []TestCase
	if err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&testCases).Error; err != nil {
		return nil, fmt.Errorf("loading test cases: %w", err)
	}

	byID := make(map[uint]*TestCase, len(testCases))
	for i := range testCases {
		byID[testCases[i].ID] = &testCases[i]
	}

	revs := make([]*revision.Revision, 0, len(rows))
	for i := range rows {
		revs = append(revs, toRevision(&rows[i], byID[rows[i].TestCaseID]))
	}

	return revs, nil
}

// --- Writes ---

func (s *store) CreateTestCase(
	ctx context.Context, rev *revision.Revision,
) (uint, error) {
	var id uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tc := TestCase{Slug: rev.Slug, Status: rev.Status}
		if err := tx.Create(&tc).Error; err != nil {
			return fmt.Errorf("inserting test case: %w", err)
		}

		// A new test case always starts at revision 1.
		first := *rev
		first.Number = 1

		if _, err := createRevision(tx, tc.ID, &first); err != nil {
			return err
		}

		id = tc.ID

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("creating test case: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"test_case_id": id,
		"slug":         rev.Slug,
	}).Debug("Created test case")

	return id, nil
}

func (s *store) CreateRevision(
	ctx context.Context, testCaseID uint, rev *revision.Revision,
) (uint, error) {
	var id uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error

		id, err = createRevision(tx, testCaseID, rev)

		return err
	})
	if err != nil {
		return 0, fmt.Errorf("creating revision: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"test_case_id": testCaseID,
		"revision_id":  id,
		"slug":         rev.Slug,
	}).Debug("Created revision")

	return id, nil
}

func (s *store) UpdateRevision(
	ctx context.Context, rev *revision.Revision,
) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateRevision(tx, rev)
	})
	if err != nil {
		return fmt.Errorf("updating revision: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"revision_id": rev.ID,
		"slug":        rev.Slug,
	}).Debug("Updated revision")

	return nil
}

// --- Error log ---

func (s *store) AppendErrorLogEntry(
	ctx context.Context, entry *ErrorLogEntry,
) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("appending error log entry: %w", err)
	}

	return nil
}

func (s *store) ListErrorLogEntries(
	ctx context.Context,
) ([]ErrorLogEntry, error) {
	var entries []ErrorLogEntry
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing error log entries: %w", err)
	}

	return entries, nil
}
