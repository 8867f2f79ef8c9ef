package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/sirupsen/logrus"
)

const defaultS3Region = "us-east-1"

// s3Publisher uploads snapshot objects to S3-compatible storage.
type s3Publisher struct {
	log    logrus.FieldLogger
	cfg    *config.S3ExportConfig
	client *s3.Client
}

// Ensure interface compliance.
var _ Publisher = (*s3Publisher)(nil)

// NewS3Publisher creates a publisher for the configured bucket.
func NewS3Publisher(
	log logrus.FieldLogger,
	cfg *config.S3ExportConfig,
) Publisher {
	return &s3Publisher{
		log:    log.WithField("component", "s3-publisher"),
		cfg:    cfg,
		client: newS3Client(cfg),
	}
}

func newS3Client(cfg *config.S3ExportConfig) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = s3Region(cfg)

		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}

		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)
		}
	})
}

func s3Region(cfg *config.S3ExportConfig) string {
	if cfg.Region != "" {
		return cfg.Region
	}

	return defaultS3Region
}

// Preflight verifies S3 connectivity by writing a small test object.
func (p *s3Publisher) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("jsbench write test: %s", time.Now().UTC().Format(time.RFC3339))

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(".jsbench-write-test"),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s: %w", p.cfg.Bucket, err)
	}

	return nil
}

// Put uploads data as a single object.
func (p *s3Publisher) Put(ctx context.Context, key string, data []byte) error {
	p.log.WithFields(logrus.Fields{
		"key":    key,
		"bucket": p.cfg.Bucket,
	}).Debug("Uploading object")

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(detectContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	return nil
}
