package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiprobe/internal/config"
	"apiprobe/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	puts    int
	statErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
	f.puts++
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStore) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestS3(store objectStore) *S3Service {
	return &S3Service{store: store, bucket: "probe-reports", log: zerolog.Nop()}
}

func sampleReport() *models.RunReport {
	start := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	return &models.RunReport{
		ID:            "0b7e1c3a-run",
		BaseURL:       "http://localhost:8000",
		StartedAt:     start,
		FinishedAt:    start.Add(120 * time.Millisecond),
		Outcome:       models.OutcomePassed,
		Message:       json.RawMessage(`"ok"`),
		LocationCount: 1,
		FirstLocation: json.RawMessage(`{"id":1}`),
	}
}

func TestS3Service_StoreAndGetReport(t *testing.T) {
	store := newFakeStore()
	s := newTestS3(store)
	ctx := context.Background()

	key, err := s.StoreReport(ctx, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "reports/2025/06/07/0b7e1c3a-run.json", key)

	got, err := s.GetReport(ctx, "probe-reports", key)
	require.NoError(t, err)
	assert.Equal(t, "0b7e1c3a-run", got.ID)
	assert.Equal(t, models.OutcomePassed, got.Outcome)
	assert.JSONEq(t, `{"id":1}`, string(got.FirstLocation))
	assert.Equal(t, 120*time.Millisecond, got.Duration())
}

func TestS3Service_StoreReportDoesNotOverwrite(t *testing.T) {
	store := newFakeStore()
	s := newTestS3(store)
	ctx := context.Background()

	first := sampleReport()
	key, err := s.StoreReport(ctx, first)
	require.NoError(t, err)

	second := sampleReport()
	second.Outcome = models.OutcomeErrored
	again, err := s.StoreReport(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, key, again)
	assert.Equal(t, 1, store.puts)
	got, err := s.GetReport(ctx, "probe-reports", key)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePassed, got.Outcome)
}

func TestS3Service_StoreReportStatFailure(t *testing.T) {
	store := newFakeStore()
	store.statErr = errors.New("connection refused")
	s := newTestS3(store)

	_, err := s.StoreReport(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, store.puts)
}

func TestS3Service_GetReportMissing(t *testing.T) {
	s := newTestS3(newFakeStore())
	_, err := s.GetReport(context.Background(), "probe-reports", "reports/none.json")
	assert.Error(t, err)
}

func TestS3Service_CreateBucket(t *testing.T) {
	store := newFakeStore()
	s := newTestS3(store)

	require.NoError(t, s.CreateBucket(context.Background(), ""))
	assert.True(t, store.buckets["probe-reports"])
	require.NoError(t, s.CreateBucket(context.Background(), ""))
}

func TestNewS3Service_MissingSettings(t *testing.T) {
	_, err := NewS3Service(config.S3{AccessKey: "a", SecretKey: "b", Bucket: "probe-reports"}, zerolog.Nop())
	assert.Error(t, err)
}
