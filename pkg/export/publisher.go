package export

import (
	"context"
	"fmt"
	"mime"
	"path"

	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/sirupsen/logrus"
)

// Publisher writes snapshot objects to a storage backend.
type Publisher interface {
	// Preflight verifies that the backend is reachable and writable.
	Preflight(ctx context.Context) error

	// Put stores data under key, a slash separated relative path.
	Put(ctx context.Context, key string, data []byte) error
}

// NewPublisher returns the publisher for the enabled export backend.
func NewPublisher(
	log logrus.FieldLogger,
	cfg *config.ExportConfig,
) (Publisher, error) {
	switch {
	case cfg.Local.Enabled:
		return NewLocalPublisher(log, &cfg.Local), nil
	case cfg.S3.Enabled:
		return NewS3Publisher(log, &cfg.S3), nil
	default:
		return nil, fmt.Errorf("no export backend enabled")
	}
}

// detectContentType returns a MIME type based on file extension.
func detectContentType(key string) string {
	ext := path.Ext(key)
	if ext == "" {
		return "application/octet-stream"
	}

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}

	return ct
}
