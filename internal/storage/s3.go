package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	BaseFolder string
	MaxBytes   int64
}

// S3BlobStore uploads attachments to an S3-compatible bucket.
type S3BlobStore struct {
	client *minio.Client
	cfg    S3Config
}

// NewS3BlobStore builds the minio client. No request is made until the first upload.
func NewS3BlobStore(cfg S3Config) (*S3BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3BlobStore{client: client, cfg: cfg}, nil
}

func (s *S3BlobStore) Store(ctx context.Context, folder string, upload Upload) (string, error) {
	if err := validateUpload(upload, s.cfg.MaxBytes); err != nil {
		return "", err
	}
	data, err := readLimited(upload.Body, s.cfg.MaxBytes)
	if err != nil {
		return "", err
	}

	key := path.Clean(path.Join(s.cfg.BaseFolder, objectName(folder, upload)))
	r := bytes.NewReader(data)
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, r, int64(r.Len()), minio.PutObjectOptions{
		ContentType:  upload.ContentType,
		CacheControl: "max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("error putting object: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *S3BlobStore) Delete(ctx context.Context, blobPath string) error {
	key := strings.TrimPrefix(blobPath, s.baseURL()+"/")
	if key == blobPath {
		return fmt.Errorf("blob %q is not managed by this store", blobPath)
	}
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}

func (s *S3BlobStore) baseURL() string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket)
}

func (s *S3BlobStore) objectURL(key string) string {
	return s.baseURL() + "/" + key
}
