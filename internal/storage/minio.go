package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"go-idcard/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const presignExpiry = 15 * time.Minute

// minioStorage keeps namespaces as key prefixes in an S3-compatible bucket.
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func validateMinIOConfig(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

// NewMinIO connects to the bucket, creating it when missing.
func NewMinIO(cfg config.MinIOConfig, logger ...*zap.Logger) (Storage, error) {
	l := zap.L().Named("storage.minio")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storage.minio")
	}
	if err := validateMinIOConfig(cfg); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		l.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &minioStorage{client: cli, bucket: cfg.Bucket, logger: l}, nil
}

func (m *minioStorage) PutFile(ctx context.Context, key, srcPath string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if _, err := m.client.FPutObject(ctx, m.bucket, cleaned, srcPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(cleaned),
	}); err != nil {
		return err
	}
	if err := os.Remove(srcPath); err != nil {
		m.logger.Warn("remove staged file failed", zap.String("path", srcPath), zap.Error(err))
	}
	return nil
}

func (m *minioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = contentTypeFor(cleaned)
	}
	_, err = m.client.PutObject(ctx, m.bucket, cleaned, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (m *minioStorage) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = m.client.StatObject(ctx, m.bucket, cleaned, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove relies on S3 semantics: deleting a missing key succeeds.
func (m *minioStorage) Remove(ctx context.Context, key string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	return m.client.RemoveObject(ctx, m.bucket, cleaned, minio.RemoveObjectOptions{})
}

func (m *minioStorage) RemoveNamespace(ctx context.Context, namespace string) error {
	ns, err := cleanNamespace(namespace)
	if err != nil {
		return err
	}

	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    ns + "/",
		Recursive: true,
	})

	removed := 0
	toRemove := make(chan minio.ObjectInfo)
	go func() {
		defer close(toRemove)
		for obj := range objects {
			if obj.Err != nil {
				m.logger.Error("list namespace objects failed", zap.String("namespace", ns), zap.Error(obj.Err))
				continue
			}
			removed++
			toRemove <- obj
		}
	}()

	var firstErr error
	for rErr := range m.client.RemoveObjects(ctx, m.bucket, toRemove, minio.RemoveObjectsOptions{}) {
		m.logger.Error("remove object failed", zap.String("key", rErr.ObjectName), zap.Error(rErr.Err))
		if firstErr == nil {
			firstErr = rErr.Err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	m.logger.Info("namespace removed", zap.String("namespace", ns), zap.Int("objects", removed))
	return nil
}

func (m *minioStorage) ListNamespaces(ctx context.Context) ([]NamespaceInfo, error) {
	newest := map[string]time.Time{}
	order := []string{}

	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		ns, _, found := strings.Cut(obj.Key, "/")
		if !found || ns == "" {
			continue
		}
		if _, seen := newest[ns]; !seen {
			order = append(order, ns)
		}
		if obj.LastModified.After(newest[ns]) {
			newest[ns] = obj.LastModified
		}
	}

	out := make([]NamespaceInfo, 0, len(order))
	for _, ns := range order {
		out = append(out, NamespaceInfo{Name: ns, ModifiedAt: newest[ns]})
	}
	return out, nil
}

func (m *minioStorage) DownloadURL(ctx context.Context, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, cleaned, presignExpiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func contentTypeFor(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
