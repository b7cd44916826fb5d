package blobstore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/featherframe/featherframe/internal/conf"
	"github.com/featherframe/featherframe/internal/errors"
)

// metadata keys stored on the S3 object
const (
	s3MetaOriginalFilename = "original-filename"
)

// S3Store stores blobs as objects in an S3 bucket. Uploads go through the
// transfer manager so arbitrary-size bodies are streamed in parts; the
// PutObject acknowledgement from S3 provides the durability guarantee Put
// requires.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3-backed store from the given settings.
func NewS3Store(ctx context.Context, settings *conf.S3StorageSettings) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(settings.Region),
	}
	if settings.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.New(err).
			Component("blobstore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   settings.Bucket,
		prefix:   settings.Prefix,
	}, nil
}

func (s *S3Store) key(name string) string {
	return s.prefix + name
}

// Put streams r into the object for name. It returns only after S3 has
// acknowledged the complete upload.
func (s *S3Store) Put(ctx context.Context, name string, r io.Reader, meta Metadata) error {
	if !ValidName(name) {
		return errors.Newf("invalid blob name: %q", name).
			Component("blobstore").
			Category(errors.CategoryValidation).
			Build()
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   r,
		Metadata: map[string]string{
			s3MetaOriginalFilename: meta.OriginalFilename,
		},
	}
	if meta.MIMEType != "" {
		input.ContentType = aws.String(meta.MIMEType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Context("bucket", s.bucket).
			Build()
	}
	return nil
}

// Get opens the object for name. A missing key yields ErrNotFound.
func (s *S3Store) Get(ctx context.Context, name string) (io.ReadCloser, Metadata, error) {
	if !ValidName(name) {
		return nil, Metadata{}, ErrNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, Metadata{}, ErrNotFound
		}
		return nil, Metadata{}, errors.New(err).
			Component("blobstore").
			Category(errors.CategoryBlobStorage).
			Context("blob_name", name).
			Context("bucket", s.bucket).
			Build()
	}

	meta := Metadata{
		OriginalFilename: out.Metadata[s3MetaOriginalFilename],
	}
	if out.ContentType != nil {
		meta.MIMEType = *out.ContentType
	}

	return out.Body, meta, nil
}
