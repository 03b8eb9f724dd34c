package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tourdesk/internal/config"
	console "tourdesk/internal/utils/logger"
)

var _ Storage = (*S3Service)(nil)

type S3Service struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucketName string
	acl        types.ObjectCannedACL
	logger     *console.Logger
}

// endpointURL accepts a full URL or the bare host the R2 dashboard shows
func endpointURL(cfg config.S3Config) string {
	if cfg.Endpoint == "" || strings.Contains(cfg.Endpoint, "://") {
		return cfg.Endpoint
	}
	if cfg.Region == "" {
		return "https://" + cfg.Endpoint
	}
	return fmt.Sprintf("https://%s.%s", cfg.Region, cfg.Endpoint)
}

func NewS3Service(ctx context.Context, cfg config.S3Config, publicRead bool) (*S3Service, error) {
	log := console.New("S3-SERVICE")

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, log.Error("S3 credentials are empty", fmt.Errorf("accessKey or secretKey is empty"))
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, log.Error("Unable to load SDK config", err)
	}

	endpoint := endpointURL(cfg)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, log.Error("Failed to verify S3 bucket %s", err, cfg.BucketName)
	}

	acl := types.ObjectCannedACLPrivate
	if publicRead {
		acl = types.ObjectCannedACLPublicRead
	}

	log.Success("S3 storage ready for bucket %s", cfg.BucketName)
	return &S3Service{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucketName: cfg.BucketName,
		acl:        acl,
		logger:     log,
	}, nil
}

func (s *S3Service) Put(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	key := objectKey(filename)
	s.logger.Info("Uploading %s as %s", filename, key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ACL:         s.acl,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", s.logger.Error("Failed to upload file to storage", err)
	}
	return key, nil
}

// GetSignedURL implements models.FileURLGenerator
func (s *S3Service) GetSignedURL(ctx context.Context, path string, duration time.Duration) (string, error) {
	if path == "" {
		return "", nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		return "", s.logger.Error("Failed to generate pre-signed URL", err)
	}
	return req.URL, nil
}
