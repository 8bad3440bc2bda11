package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrPublishDisabled is returned when no bucket is configured.
var ErrPublishDisabled = errors.New("report publishing is not configured")

// S3Config holds the bucket reports are published to. Credentials fall back to
// the default AWS chain when the static keys are empty.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Enabled reports whether a bucket is set.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// S3ConfigFromEnv reads REPORT_S3_BUCKET, REPORT_S3_REGION (default
// us-east-1), REPORT_S3_ENDPOINT, REPORT_S3_PREFIX (default "reports") and
// REPORT_S3_PATH_STYLE, plus the standard AWS key variables.
func S3ConfigFromEnv() S3Config {
	cfg := S3Config{
		Bucket:          os.Getenv("REPORT_S3_BUCKET"),
		Region:          os.Getenv("REPORT_S3_REGION"),
		Endpoint:        os.Getenv("REPORT_S3_ENDPOINT"),
		Prefix:          os.Getenv("REPORT_S3_PREFIX"),
		PathStyle:       strings.EqualFold(os.Getenv("REPORT_S3_PATH_STYLE"), "true"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "reports"
	}
	return cfg
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads report workbooks to one bucket.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Publisher builds an S3 client for cfg.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrPublishDisabled
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Publisher(client, cfg), nil
}

func newS3Publisher(client putObjectAPI, cfg S3Config) *S3Publisher {
	return &S3Publisher{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

// Publish uploads body under prefix/name and returns the object key.
func (p *S3Publisher) Publish(ctx context.Context, name string, body []byte) (string, error) {
	if p == nil {
		return "", ErrPublishDisabled
	}
	key := name
	if p.prefix != "" {
		key = path.Join(p.prefix, name)
	}
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(ContentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	return key, nil
}
