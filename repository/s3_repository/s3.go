package s3_repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/repository/file_repository"
)

// ObjectAPI is the part of the S3 client the mirror needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Mirror uploads saved briefings as JSON objects.
type S3Mirror struct {
	Client ObjectAPI
	Bucket string
	Prefix string
}

// NewS3Mirror creates the mirror using the default AWS configuration chain,
// with optional region/profile overrides.
func NewS3Mirror(ctx context.Context, cfg config.S3Config) (*S3Mirror, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Mirror{Client: c, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

// Key is the object key for a briefing id.
func (m *S3Mirror) Key(id string) string {
	return path.Join(m.Prefix, "summary_"+id+".json")
}

func (m *S3Mirror) Mirror(ctx context.Context, b models.Briefing) error {
	data, err := file_repository.Encode(b)
	if err != nil {
		return err
	}
	_, err = m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(m.Key(b.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", m.Key(b.ID), err)
	}
	return nil
}

// Fetch downloads the raw JSON of a mirrored briefing.
func (m *S3Mirror) Fetch(ctx context.Context, id string) ([]byte, error) {
	out, err := m.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(m.Key(id)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
