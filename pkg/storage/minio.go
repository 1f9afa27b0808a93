package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/config"
)

var (
	ErrObjectNotFound    = errors.New("dataset object not found")
	ErrInvalidObjectName = errors.New("object name must be a relative .json path")
	ErrDatasetTooLarge   = errors.New("dataset object is too large")
)

// MaxDatasetSize bounds how much of an object is read into memory
const MaxDatasetSize = 16 << 20

func ConnectMinIO(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucket := cfg.Storage.BucketDatasets
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("Created MinIO bucket")
	}

	log.Info().Str("endpoint", cfg.Storage.Endpoint).Msg("Connected to MinIO")
	return client, nil
}

// DatasetStore reads and writes JSON datasets as objects in a single bucket.
type DatasetStore struct {
	client *minio.Client
	bucket string
}

func NewDatasetStore(client *minio.Client, bucket string) *DatasetStore {
	return &DatasetStore{client: client, bucket: bucket}
}

// CleanObjectName normalizes an object name and rejects anything that
// escapes the bucket root or is not a JSON file.
func CleanObjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrInvalidObjectName
	}
	cleaned := path.Clean(name)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || path.Ext(cleaned) != ".json" {
		return "", ErrInvalidObjectName
	}
	return cleaned, nil
}

// LoadJSON decodes the object into v
func (s *DatasetStore) LoadJSON(ctx context.Context, object string, v any) error {
	object, err := CleanObjectName(object)
	if err != nil {
		return err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to open dataset %s: %w", object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, MaxDatasetSize+1))
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to read dataset %s: %w", object, err)
	}
	if len(data) > MaxDatasetSize {
		return ErrDatasetTooLarge
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode dataset %s: %w", object, err)
	}
	return nil
}

// SaveJSON encodes v and uploads it, returning the stored object name
func (s *DatasetStore) SaveJSON(ctx context.Context, object string, v any) (string, error) {
	object, err := CleanObjectName(object)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload dataset %s: %w", object, err)
	}

	log.Info().Str("bucket", s.bucket).Str("object", object).Int("size", len(data)).Msg("Saved dataset")
	return object, nil
}

// TimestampedName builds a default export object name such as
// "leaders/20240101T000000Z.json".
func TimestampedName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s/%s.json", prefix, now.UTC().Format("20060102T150405Z"))
}
