package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/resilience"
)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	ResilienceExecutor *resilience.Executor
}

// Storage keeps evidence files in an S3-compatible bucket.
type Storage struct {
	client   *minio.Client
	bucket   string
	region   string
	executor *resilience.Executor
}

func New(opts Options) (*Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client:   client,
		bucket:   opts.Bucket,
		region:   opts.Region,
		executor: opts.ResilienceExecutor,
	}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := resilience.Do(ctx, s.executor, "s3.bucket_exists", func(callCtx context.Context) (bool, error) {
		return s.client.BucketExists(callCtx, s.bucket)
	}, classifyS3Error)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, wrapTemporaryIfNeeded(err))
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Save streams data into the bucket. Retries happen only when data can be
// rewound.
func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	classifier := classifyS3Error
	seeker, rewindable := data.(io.Seeker)
	if !rewindable {
		classifier = func(err error) resilience.ErrorClassification {
			class := classifyS3Error(err)
			class.Retryable = false
			return class
		}
	}

	err := s.executor.Execute(ctx, "s3.put_object", func(callCtx context.Context) error {
		if rewindable {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("rewind upload: %w", err)
			}
		}
		_, err := s.client.PutObject(callCtx, s.bucket, key, data, -1, minio.PutObjectOptions{})
		return err
	}, classifier)
	if err != nil {
		return fmt.Errorf("upload object: %w", wrapTemporaryIfNeeded(err))
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := resilience.Do(ctx, s.executor, "s3.get_object", func(callCtx context.Context) (*minio.Object, error) {
		obj, err := s.client.GetObject(callCtx, s.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		// GetObject is lazy; Stat surfaces missing keys and transport errors.
		if _, err := obj.Stat(); err != nil {
			_ = obj.Close()
			return nil, err
		}
		return obj, nil
	}, classifyS3Error)
	if err != nil {
		if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "open evidence object", err)
		}
		return nil, fmt.Errorf("get object: %w", wrapTemporaryIfNeeded(err))
	}
	return obj, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.executor.Execute(ctx, "s3.remove_object", func(callCtx context.Context) error {
		return s.client.RemoveObject(callCtx, s.bucket, key, minio.RemoveObjectOptions{})
	}, classifyS3Error)
	if err != nil {
		return fmt.Errorf("remove object: %w", wrapTemporaryIfNeeded(err))
	}
	return nil
}

var classifyS3Error = resilience.TransientClassifier(isTransientS3Error)

func isTransientS3Error(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	status := minio.ToErrorResponse(err).StatusCode
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isTransientS3Error(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "s3 call", err)
	}
	return err
}
