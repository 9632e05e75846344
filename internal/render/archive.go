package render

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive stores rendered PDFs.
type Archive interface {
	Put(ctx context.Context, ownerID, number string, pdf []byte) (string, error)
}

// NopArchive discards documents.
type NopArchive struct{}

// Put implements Archive.
func (NopArchive) Put(context.Context, string, string, []byte) (string, error) { return "", nil }

// ArchiveConfig configures S3Archive. Endpoint targets S3 compatible stores
// such as MinIO and switches to path style addressing.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes PDFs to <prefix>/<owner>/<number>.pdf.
type S3Archive struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Archive loads AWS configuration and builds the archive client. Static
// keys are used when both are configured; otherwise the default chain applies.
func NewS3Archive(ctx context.Context, cfg ArchiveConfig) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key used for an invoice document.
func (a *S3Archive) Key(ownerID, number string) string {
	return path.Join(strings.Trim(a.prefix, "/"), ownerID, number+".pdf")
}

// Put implements Archive and returns the object key.
func (a *S3Archive) Put(ctx context.Context, ownerID, number string, pdf []byte) (string, error) {
	key := a.Key(ownerID, number)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
		Metadata:    map[string]string{"invoice-number": number},
	})
	if err != nil {
		return "", fmt.Errorf("archive pdf bucket:%s key:%s: %w", a.bucket, key, err)
	}
	return key, nil
}
