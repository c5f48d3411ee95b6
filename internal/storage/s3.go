package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/inkwell/internal/model"
)

// S3API is the part of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// PathStyle addresses buckets as endpoint/bucket instead of bucket.endpoint.
	PathStyle bool
}

// NewS3Client builds a client for AWS or an S3 compatible endpoint such as R2 or MinIO.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	loaders := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("error loading S3 configuration: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}

type S3MediaStore struct { // implements MediaStore
	client    S3API
	bucket    string
	publicURL string
}

// NewS3MediaStore stores objects in bucket. URLs are built from publicURL, which must serve the
// bucket's contents.
func NewS3MediaStore(client S3API, bucket, publicURL string) *S3MediaStore {
	return &S3MediaStore{client: client, bucket: bucket, publicURL: publicURL}
}

func (s *S3MediaStore) Save(ctx context.Context, kind model.MediaKind, name, contentType string, data []byte) (string, error) {
	key := objectKey(kind, name, contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	storageLogger.Debug().Str("bucket", s.bucket).Str("key", key).Int("size", len(data)).Msg("Media stored")
	return joinURL(s.publicURL, key), nil
}
