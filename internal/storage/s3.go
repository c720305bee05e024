package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"apiprobe/internal/config"
	"apiprobe/internal/keys"
	"apiprobe/internal/models"
)

// objectStore is the part of the MinIO client the service uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	Open(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

type minioStore struct {
	*minio.Client
}

func (m minioStore) Open(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	return m.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
}

// S3Service archives run reports in an S3-compatible bucket.
type S3Service struct {
	store  objectStore
	bucket string
	log    zerolog.Logger
}

// NewS3Service connects to the configured endpoint. The bucket is not
// touched until CreateBucket or StoreReport is called.
func NewS3Service(cfg config.S3, logger zerolog.Logger) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: s3.endpoint, s3.access_key, s3.secret_key")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Debug().Str("endpoint", cfg.Endpoint).Msg("connected to object storage")
	return &S3Service{store: minioStore{client}, bucket: cfg.Bucket, log: logger}, nil
}

func (s *S3Service) Bucket() string {
	return s.bucket
}

// CreateBucket makes the bucket if it does not exist yet.
func (s *S3Service) CreateBucket(ctx context.Context, location string) error {
	exists, err := s.store.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.store.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	s.log.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// StoreReport writes r as JSON and returns its object key. An existing
// object under the same key is left untouched.
func (s *S3Service) StoreReport(ctx context.Context, r *models.RunReport) (string, error) {
	objectKey := keys.Report(r)

	_, err := s.store.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		s.log.Warn().Str("bucket", s.bucket).Str("key", objectKey).Msg("report already archived, ignoring write")
		return objectKey, nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return "", fmt.Errorf("failed to check for existing object: %w", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.store.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to store object in S3: %w", err)
	}

	s.log.Debug().Str("bucket", s.bucket).Str("key", objectKey).Msg("report archived")
	return objectKey, nil
}

// GetReport loads an archived report. It matches service.LoaderFunc.
func (s *S3Service) GetReport(ctx context.Context, bucket, objectKey string) (*models.RunReport, error) {
	object, err := s.store.Open(ctx, bucket, objectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var r models.RunReport
	if err := json.NewDecoder(object).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s/%s: %w", bucket, objectKey, err)
	}
	return &r, nil
}
