package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/sirupsen/logrus"
)

// localPublisher writes snapshot objects below a directory.
type localPublisher struct {
	log  logrus.FieldLogger
	root string
}

// Ensure interface compliance.
var _ Publisher = (*localPublisher)(nil)

// NewLocalPublisher creates a publisher writing into cfg.Dir.
func NewLocalPublisher(
	log logrus.FieldLogger,
	cfg *config.LocalExportConfig,
) Publisher {
	return &localPublisher{
		log:  log.WithField("component", "local-publisher"),
		root: filepath.Clean(cfg.Dir),
	}
}

// Preflight creates the export directory and checks it is writable.
func (p *localPublisher) Preflight(_ context.Context) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := os.CreateTemp(p.root, ".jsbench-write-test-*")
	if err != nil {
		return fmt.Errorf("writing to %s: %w", p.root, err)
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}

// Put writes data to root/key through a temporary file so readers never see
// a partially written object.
func (p *localPublisher) Put(_ context.Context, key string, data []byte) error {
	full, err := p.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("writing %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("closing %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("renaming %s: %w", key, err)
	}

	p.log.WithField("path", full).Debug("Wrote file")

	return nil
}

// resolve maps key below root, rejecting keys that escape it.
func (p *localPublisher) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("key %q is not allowed", key)
	}

	full := filepath.Join(p.root, filepath.FromSlash(key))

	if !strings.HasPrefix(full, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q is not allowed", key)
	}

	return full, nil
}
