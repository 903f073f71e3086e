package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 writes documents into an object storage bucket under a key prefix.
type S3 struct {
	client     *s3.Client
	bucket     string
	prefix     string
	publicRead bool
}

// S3Options configures the bucket destination. Credentials come from the
// default AWS chain (environment, shared config, instance profile).
type S3Options struct {
	Bucket string
	// Prefix is prepended to every document key, usually "folder/".
	Prefix string
	// PublicRead attaches the public-read canned ACL to every object.
	PublicRead bool
	Region     string
}

// NewS3 creates an S3 sink using the default credential chain.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &S3{
		client:     s3.NewFromConfig(cfg),
		bucket:     opts.Bucket,
		prefix:     opts.Prefix,
		publicRead: opts.PublicRead,
	}, nil
}

// Name implements Sink.
func (s *S3) Name() string {
	return "s3://" + s.bucket + "/" + s.prefix
}

// Put implements Sink.
func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(s.prefix + key),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String(ContentType),
		ContentEncoding: aws.String("UTF-8"),
		ContentLength:   aws.Int64(int64(len(data))),
	}
	if s.publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("putting s3://%s/%s%s: %w", s.bucket, s.prefix, key, err)
	}
	return nil
}
