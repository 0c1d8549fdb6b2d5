// Package storage publishes exported decks to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"flashgen/internal/config"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"io"
	"net/url"
	"strings"
)

var ErrNotConfigured = errors.New("object storage is not configured")

type Provider interface {
	UploadFile(ctx context.Context, data io.Reader, filename string, contentType string) (string, error)
	GetFileURL(filename string) (string, error)
}

type S3Provider struct {
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

func NewS3Provider(ctx context.Context, cfg config.S3Config) (*S3Provider, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = defaultPublicURL(cfg)
	}

	return &S3Provider{
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func defaultPublicURL(cfg config.S3Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func (p *S3Provider) UploadFile(ctx context.Context, data io.Reader, filename string, contentType string) (string, error) {
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(filename),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	return p.GetFileURL(filename)
}

func (p *S3Provider) GetFileURL(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty file name")
	}
	return p.publicURL + "/" + (&url.URL{Path: filename}).EscapedPath(), nil
}
