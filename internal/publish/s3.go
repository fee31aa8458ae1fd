package publish

import (
	"bytes"
	"clanwatch/internal/providers"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Publisher mirrors every dataset file to an S3-compatible bucket, keyed
// by its path relative to the data directory.
type S3Publisher struct {
	client *s3.Client
	bucket string
	prefix string
	store  snapshot.Store
	logger providers.Logger
}

func NewS3Publisher(conf *structures.Config, store snapshot.Store, logger providers.Logger) (*S3Publisher, error) {
	cfg := conf.Publish.S3
	if cfg.Bucket == "" {
		return nil, errors.New("publish.s3.bucket is required when s3 publishing is enabled")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	client := s3.NewFromConfig(aws.Config{
		Region:                     region,
		Credentials:                aws.NewCredentialsCache(creds),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		store:  store,
		logger: logger,
	}, nil
}

func (p *S3Publisher) Name() string {
	return "s3"
}

// ensureBucket creates the bucket when HeadBucket fails.
func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	if err == nil {
		return nil
	}
	_, createErr := p.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(p.bucket)})
	if createErr != nil {
		var apiErr smithy.APIError
		if errors.As(createErr, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return createErr
	}
	return nil
}

func (p *S3Publisher) key(file string) (string, error) {
	rel, err := filepath.Rel(p.store.Dir(), file)
	if err != nil {
		return "", err
	}
	return path.Join(p.prefix, filepath.ToSlash(rel)), nil
}

func contentType(file string) string {
	if strings.HasSuffix(file, ".zst") {
		return "application/zstd"
	}
	return "application/json"
}

func (p *S3Publisher) Publish(ctx context.Context, _ time.Time) error {
	if err := p.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", p.bucket, err)
	}
	files, err := p.store.Files()
	if err != nil {
		return err
	}
	for _, file := range files {
		key, err := p.key(file)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(file)),
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	p.logger.Infof(providers.TypeIngest, "Mirrored %d files to s3://%s/%s", len(files), p.bucket, p.prefix)
	return nil
}
