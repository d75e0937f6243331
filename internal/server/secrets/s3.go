// Package secrets fetches the token signing secret from S3-compatible object
// storage. The object is read once at startup.
package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxSecretSize caps how much of the object is read.
const maxSecretSize = 64 << 10

var ErrEmptySecret = errors.New("secret object is empty")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectGetter is the part of *s3.Client the loader uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Key             string
	Region          string
	BaseEndpoint    string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds a client for cfg. Static credentials are used when an
// access key is configured, the default AWS chain otherwise. A custom base
// endpoint switches to path-style addressing for MinIO and friends.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Fetch reads the secret stored at bucket/key. Surrounding whitespace is
// trimmed.
func Fetch(ctx context.Context, getter ObjectGetter, bucket, key string) (string, error) {
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxSecretSize))
	if err != nil {
		return "", fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}

	secret := string(bytes.TrimSpace(data))
	if secret == "" {
		return "", ErrEmptySecret
	}
	return secret, nil
}

// LoadS3Secret builds a client for cfg and fetches the secret.
func LoadS3Secret(ctx context.Context, cfg S3Config) (string, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return "", err
	}
	return Fetch(ctx, client, cfg.Bucket, cfg.Key)
}
