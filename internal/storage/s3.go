package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"motostats/internal/env"
	"motostats/internal/keys"
	"motostats/internal/models"
	"motostats/internal/stats"
)

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client *minio.Client
}

// NewS3Service connects to MinIO using MINIO_ENDPOINT, MINIO_ACCESS_KEY,
// MINIO_SECRET_KEY and MINIO_USE_SSL.
func NewS3Service() (*S3Service, error) {
	endpoint := env.Get("MINIO_ENDPOINT", "")
	accessKey := env.Get("MINIO_ACCESS_KEY", "")
	secretKey := env.Get("MINIO_SECRET_KEY", "")
	useSSL := env.Bool("MINIO_USE_SSL", false)

	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log.Println("Successfully connected to MinIO endpoint:", endpoint)
	return &S3Service{client: client}, nil
}

func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// PutSnapshot stores a compressed snapshot under its canonical key and
// returns that key. An existing object is never overwritten.
func (s *S3Service) PutSnapshot(ctx context.Context, bucketName string, snap models.Snapshot) (string, error) {
	key := keys.Snapshot(snap)

	exists, err := s.exists(ctx, bucketName, key)
	if err != nil {
		return "", err
	}
	if exists {
		log.Printf("Snapshot %s already exists in bucket '%s'. Ignoring write operation.", key, bucketName)
		return key, nil
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json", ContentEncoding: "zstd"})
	if err != nil {
		return "", fmt.Errorf("failed to store snapshot in S3: %w", err)
	}

	log.Printf("Stored snapshot of %d offers in bucket '%s' with key '%s'", len(snap.Offers), bucketName, key)
	return key, nil
}

// GetSnapshot loads and decodes the snapshot stored under key.
func (s *S3Service) GetSnapshot(ctx context.Context, bucketName, key string) (*models.Snapshot, error) {
	object, err := s.client.GetObject(ctx, bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	log.Printf("Retrieved snapshot '%s' (%d offers) from bucket '%s'", snap.ID, len(snap.Offers), bucketName)
	return snap, nil
}

// PutReport stores rep as plain JSON, replacing any previous version.
func (s *S3Service) PutReport(ctx context.Context, bucketName, key string, rep *stats.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = s.client.PutObject(ctx, bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store report in S3: %w", err)
	}
	log.Printf("Stored report in bucket '%s' with key '%s'", bucketName, key)
	return nil
}

func (s *S3Service) exists(ctx context.Context, bucketName, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return false, fmt.Errorf("failed to check for existing object: %w", err)
	}
	return false, nil
}
