package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethpandaops/jsbench/pkg/revision"
	"github.com/ethpandaops/jsbench/pkg/testcase"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the number of test cases exported in parallel when
// no explicit concurrency value is configured.
const defaultConcurrency = 4

// Summary describes a finished export.
type Summary struct {
	TestCases int
	Files     int
}

// Exporter writes a static snapshot of the read endpoints, laid out so that
// the snapshot can be served under the same paths as the API.
type Exporter interface {
	Run(ctx context.Context) (Summary, error)
}

// Compile-time interface check.
var _ Exporter = (*exporter)(nil)

type exporter struct {
	log         logrus.FieldLogger
	svc         testcase.Service
	pub         Publisher
	prefix      string
	concurrency int
}

// NewExporter creates an exporter reading from svc and writing to pub. Keys
// are placed below prefix when it is not empty.
func NewExporter(
	log logrus.FieldLogger,
	svc testcase.Service,
	pub Publisher,
	prefix string,
	concurrency int,
) Exporter {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &exporter{
		log:         log.WithField("component", "exporter"),
		svc:         svc,
		pub:         pub,
		prefix:      strings.Trim(prefix, "/"),
		concurrency: concurrency,
	}
}

// Run exports every test case. The first failing write aborts the export.
func (e *exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	latest, err := e.svc.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing test cases: %w", err)
	}

	var files atomic.Int64

	put := func(ctx context.Context, v any, parts ...string) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path.Join(parts...), err)
		}

		if err := e.pub.Put(ctx, e.key(parts...), data); err != nil {
			return err
		}

		files.Add(1)

		return nil
	}

	docs := make([]revision.Document, 0, len(latest))
	for _, rev := range latest {
		docs = append(docs, rev.Document())
	}

	if err := put(ctx, docs, "tests.json"); err != nil {
		return Summary{}, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, rev := range latest {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			if err := e.exportTestCase(gCtx, rev, put); err != nil {
				return fmt.Errorf("exporting %s: %w", rev.Slug, err)
			}

			e.log.WithField("slug", rev.Slug).Debug("Exported test case")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{TestCases: len(latest), Files: int(files.Load())}

	e.log.WithFields(logrus.Fields{
		"test_cases": summary.TestCases,
		"files":      summary.Files,
		"duration":   time.Since(start).String(),
	}).Info("Export complete")

	return summary, nil
}

type putFunc func(ctx context.Context, v any, parts ...string) error

// exportTestCase writes the latest revision, the history and every numbered
// revision of one test case, each with its by-browser report.
func (e *exporter) exportTestCase(
	ctx context.Context, latest *revision.Revision, put putFunc,
) error {
	slug := url.PathEscape(latest.Slug)

	if err := put(ctx, latest.Document(), "test", slug+".json"); err != nil {
		return err
	}

	if err := put(ctx, revision.ReportByBrowser(latest),
		"test", slug, "totals", "by-browser.json"); err != nil {
		return err
	}

	history, err := e.svc.Revisions(ctx, latest.Slug)
	if err != nil {
		return fmt.Errorf("listing revisions: %w", err)
	}

	docs := make([]revision.Document, 0, len(history))
	for _, rev := range history {
		docs = append(docs, rev.Document())
	}

	if err := put(ctx, docs, "test", slug, "revisions.json"); err != nil {
		return err
	}

	for _, rev := range history {
		number := strconv.Itoa(rev.Number)

		if err := put(ctx, rev.Document(), "test", slug, number+".json"); err != nil {
			return err
		}

		if err := put(ctx, revision.ReportByBrowser(rev),
			"test", slug, number, "totals", "by-browser.json"); err != nil {
			return err
		}
	}

	return nil
}

// key joins parts below the configured prefix.
func (e *exporter) key(parts ...string) string {
	if e.prefix == "" {
		return path.Join(parts...)
	}

	return path.Join(append([]string{e.prefix}, parts...)...)
}
