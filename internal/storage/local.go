package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type localStorage struct {
	root   string
	logger *zap.Logger
}

// NewLocal stores namespaces as directories below root.
func NewLocal(root string, logger ...*zap.Logger) (Storage, error) {
	l := zap.L().Named("storage.local")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("storage.local")
	}
	if root == "" {
		return nil, fmt.Errorf("uploads root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &localStorage{root: root, logger: l}, nil
}

// Root exposes the directory so the HTTP layer can serve files statically.
func (s *localStorage) Root() string {
	return s.root
}

func (s *localStorage) resolve(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func (s *localStorage) PutFile(ctx context.Context, key, srcPath string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(srcPath, dst); err == nil {
		return nil
	}

	// Rename fails across devices (staging dir on tmpfs); fall back to copy.
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	if err := writeFile(dst, src); err != nil {
		src.Close()
		return err
	}
	src.Close()

	if err := os.Remove(srcPath); err != nil {
		s.logger.Warn("remove staged file failed", zap.String("path", srcPath), zap.Error(err))
	}
	return nil
}

func (s *localStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return writeFile(dst, r)
}

func writeFile(dst string, r io.Reader) error {
	tmp := dst + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func (s *localStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *localStorage) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *localStorage) Remove(ctx context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localStorage) RemoveNamespace(ctx context.Context, namespace string) error {
	ns, err := cleanNamespace(namespace)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.root, ns)

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("namespace does not exist, skipping", zap.String("namespace", ns))
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		s.logger.Warn("namespace path is not a directory", zap.String("namespace", ns))
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	s.logger.Info("namespace removed", zap.String("namespace", ns))
	return nil
}

func (s *localStorage) ListNamespaces(ctx context.Context) ([]NamespaceInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	out := make([]NamespaceInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		newest, err := newestModTime(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, NamespaceInfo{Name: e.Name(), ModifiedAt: newest})
	}
	return out, nil
}

func newestModTime(dir string) (time.Time, error) {
	var newest time.Time
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest, err
}

func (s *localStorage) DownloadURL(ctx context.Context, key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return PublicPrefix + cleaned, nil
}
