package clients

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

// StorageClient keeps generated exports on local disk and serves them under PublicPrefix.
type StorageClient struct {
	BaseDir      string
	PublicPrefix string
	BaseURL      string
}

// NewLocalStorage creates baseDir if missing.
func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}
	if !strings.HasPrefix(publicPrefix, "/") {
		publicPrefix = "/" + publicPrefix
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure storage dir %q: %w", baseDir, err)
	}

	return &StorageClient{
		BaseDir:      baseDir,
		PublicPrefix: strings.TrimSuffix(publicPrefix, "/"),
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes data under a random prefix and returns the stored name.
func (s *StorageClient) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	fileName = filepath.Base(fileName)

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	final := fmt.Sprintf("%s_%s", hex.EncodeToString(randBytes), fileName)

	path := filepath.Join(s.BaseDir, final)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	return final, nil
}

func (s *StorageClient) GetURL(fileName string) string {
	return s.BaseURL + s.PublicPrefix + "/" + fileName
}

// Open resolves a stored name to its path and the original file name.
func (s *StorageClient) Open(stored string) (path string, original string, err error) {
	if stored == "" || stored != filepath.Base(stored) || strings.HasPrefix(stored, ".") {
		return "", "", ErrFileNotFound
	}

	path = filepath.Join(s.BaseDir, stored)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrFileNotFound
		}
		return "", "", err
	}

	original = stored
	if idx := strings.IndexByte(stored, '_'); idx >= 0 {
		original = stored[idx+1:]
	}
	return path, original, nil
}

// CleanupOlderThan removes files last modified more than d ago and returns how many went.
func (s *StorageClient) CleanupOlderThan(d time.Duration) (int, error) {
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > d {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
