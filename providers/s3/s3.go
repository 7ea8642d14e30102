// Package s3archive uploads exported audit chain envelopes to S3 for
// long-term retention. Envelopes contain signed entries and metadata only;
// chain integrity is re-checked on retrieval with
// phiguard.ImportAndVerify, so the bucket does not need to be trusted.
package s3archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the subset of the S3 client the sink needs. Satisfied by
// *s3.Client; tests substitute a mock.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveSink writes export envelopes to an S3 bucket under a fixed prefix.
type ArchiveSink struct {
	client Uploader
	bucket string
	prefix string
}

// New builds a sink using the default AWS configuration chain.
func New(ctx context.Context, bucket, prefix string) (*ArchiveSink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &ArchiveSink{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// NewWithClient builds a sink around an existing client. Used by tests and
// by hosts that share one AWS client.
func NewWithClient(client Uploader, bucket, prefix string) *ArchiveSink {
	return &ArchiveSink{client: client, bucket: bucket, prefix: prefix}
}

// Archive uploads an export envelope under <prefix>/<exportID>.json and
// returns the object key.
func (s *ArchiveSink) Archive(ctx context.Context, exportID string, envelope []byte) (string, error) {
	if exportID == "" {
		return "", fmt.Errorf("export ID is required")
	}

	key := path.Join(s.prefix, exportID+".json")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(envelope),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload export %s: %w", exportID, err)
	}
	return key, nil
}
