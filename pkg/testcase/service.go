// Package testcase orchestrates submissions, lookups and reports on top of
// the revision engine and the store.
package testcase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/apperr"
	"github.com/ethpandaops/jsbench/pkg/revision"
	"github.com/ethpandaops/jsbench/pkg/store"
	"github.com/sirupsen/logrus"
)

// Messages of wrapped persistence failures.
const (
	msgUpdateFailed = "Could not update the revision."
	msgCreateFailed = "Could not create the test case."
	msgNotFound     = "Not found."
)

// Service is the application layer of jsbench.
type Service interface {
	// List returns the current revision of every test case.
	List(ctx context.Context) ([]*revision.Revision, error)
	// Find returns the revision for slug. A positive number selects a
	// specific revision number.
	Find(ctx context.Context, slug string, number int) (*revision.Revision, error)
	// Revisions returns the history of the test case currently named slug.
	Revisions(ctx context.Context, slug string) ([]*revision.Revision, error)
	// Submit stores a validated submission. targetSlug names the test case to
	// update and may differ from input.Slug to rename it; empty means
	// input.Slug. The stored revision is returned.
	Submit(ctx context.Context, input *revision.Revision, targetSlug string) (*revision.Revision, error)
	// ReportByBrowser returns the per-browser report of a revision.
	ReportByBrowser(ctx context.Context, slug string, number int) ([]revision.EntryReport, error)

	AddErrorLogEntry(ctx context.Context, payload any) error
	ListErrorLogEntries(ctx context.Context) ([]store.ErrorLogEntry, error)
}

// Compile-time interface check.
var _ Service = (*service)(nil)

type service struct {
	log   logrus.FieldLogger
	store store.Store
	locks *keyedLocker
}

// NewService creates a new Service on top of st.
func NewService(log logrus.FieldLogger, st store.Store) Service {
	return &service{
		log:   log.WithField("component", "testcase"),
		store: st,
		locks: newKeyedLocker(),
	}
}

func (s *service) List(ctx context.Context) ([]*revision.Revision, error) {
	revs, err := s.store.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing test cases: %w", err)
	}

	return revs, nil
}

func (s *service) Find(
	ctx context.Context, slug string, number int,
) (*revision.Revision, error) {
	rev, err := s.store.FindBySlug(ctx, slug, number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, msgNotFound)
		}

		return nil, fmt.Errorf("finding test case: %w", err)
	}

	return rev, nil
}

func (s *service) Revisions(
	ctx context.Context, slug string,
) ([]*revision.Revision, error) {
	revs, err := s.store.ListRevisions(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	if revs == nil {
		revs = make([]*revision.Revision, 0)
	}

	return revs, nil
}

func (s *service) ReportByBrowser(
	ctx context.Context, slug string, number int,
) ([]revision.EntryReport, error) {
	rev, err := s.Find(ctx, slug, number)
	if err != nil {
		return nil, err
	}

	return revision.ReportByBrowser(rev), nil
}

func (s *service) Submit(
	ctx context.Context, input *revision.Revision, targetSlug string,
) (*revision.Revision, error) {
	renaming := targetSlug != "" && targetSlug != input.Slug
	if targetSlug == "" {
		targetSlug = input.Slug
	}

	unlock := s.locks.Lock(targetSlug, input.Slug)
	defer unlock()

	log := s.log.WithFields(logrus.Fields{
		"slug":        input.Slug,
		"target_slug": targetSlug,
	})

	var stored *revision.Revision

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := submit(ctx, log, tx, input, targetSlug, renaming); err != nil {
			return err
		}

		rev, err := tx.FindBySlug(ctx, input.Slug, 0)
		if err != nil {
			return apperr.Wrap(apperr.CodeInvalidUpdate, msgUpdateFailed,
				fmt.Errorf("reading stored revision: %w", err))
		}

		stored = rev

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// submit runs lookup, merge and persist for one submission inside tx.
func submit(
	ctx context.Context,
	log logrus.FieldLogger,
	tx store.Store,
	input *revision.Revision,
	targetSlug string,
	renaming bool,
) error {
	current, err := tx.FindBySlug(ctx, targetSlug, 0)
	if errors.Is(err, store.ErrNotFound) {
		id, err := tx.CreateTestCase(ctx, input)
		if err != nil {
			return apperr.Wrap(apperr.CodeInvalidUpdate, msgCreateFailed, err)
		}

		log.WithField("test_case_id", id).Info("Created test case")

		return nil
	}

	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidUpdate, msgUpdateFailed, err)
	}

	if renaming {
		if err := checkSlugAvailable(ctx, tx, current, input.Slug); err != nil {
			return err
		}
	}

	result := revision.Merge(current, input)

	switch result.Kind {
	case revision.MergeInPlace:
		err = tx.UpdateRevision(ctx, result.Revision)
	case revision.MergeNewRevision:
		_, err = tx.CreateRevision(ctx, current.TestCaseID, result.Revision)
	}

	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidUpdate, msgUpdateFailed, err)
	}

	log.WithFields(logrus.Fields{
		"test_case_id": current.TestCaseID,
		"merge":        result.Kind.String(),
		"revision":     result.Revision.Number,
	}).Info("Stored submission")

	return nil
}

// checkSlugAvailable fails when slug already is the current slug of another
// test case.
func checkSlugAvailable(
	ctx context.Context, tx store.Store, current *revision.Revision, slug string,
) error {
	existing, err := tx.FindBySlug(ctx, slug, 0)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return apperr.Wrap(apperr.CodeInvalidUpdate, msgUpdateFailed, err)
	case existing.Draft || existing.TestCaseID == current.TestCaseID:
		return nil
	}

	return apperr.Wrap(apperr.CodeExistingSlug, msgUpdateFailed, apperr.New(
		apperr.CodeExistingSlug,
		fmt.Sprintf("There already is a test case with this slug [%s].", slug),
	))
}
