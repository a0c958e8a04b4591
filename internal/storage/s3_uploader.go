package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// DocumentArchiver stores raw invoice documents in S3-compatible
// storage. Uploaded bytes are discarded after extraction; only the
// content-addressed storage key survives with the persisted record.
type DocumentArchiver struct {
	s3Client *s3.S3
	bucket   string
}

// Config holds configuration for the document archiver
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewDocumentArchiver creates a new S3-backed document archiver
func NewDocumentArchiver(config *Config) (*DocumentArchiver, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(config.Region),
		Endpoint:         aws.String(config.Endpoint),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(false),
	}))

	return &DocumentArchiver{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// DocumentKey derives the content-addressed storage key for a document
func DocumentKey(content []byte) string {
	sum := sha256.Sum256(content)
	return "invoices/" + hex.EncodeToString(sum[:])
}

// ArchiveDocument uploads a raw document and returns its storage key.
// Re-uploading identical content overwrites the same key, so archival
// is naturally idempotent.
func (a *DocumentArchiver) ArchiveDocument(content []byte, mediaType string) (string, error) {
	key := DocumentKey(content)

	_, err := a.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String(mediaType),
		ContentLength: aws.Int64(int64(len(content))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	return key, nil
}
