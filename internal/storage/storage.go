// Package storage provides object storage abstraction for the rmMt build
// service: local-disk and Tencent COS backends behind one interface.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/succinctlab/rmmt/internal/loader"
	"github.com/succinctlab/rmmt/pkg/bitarray"
	"github.com/succinctlab/rmmt/pkg/compression"
	"github.com/succinctlab/rmmt/pkg/config"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload uploads data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file to the specified key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download downloads data from the specified key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile downloads data from the specified key to a local file.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// Delete deletes the object at the specified key.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL for the specified key (if applicable).
	GetURL(key string) string
}

// LoadBitstring downloads the object at key from s, transparently
// decompresses it if it carries a gzip or zstd header, and decodes the
// result into a bit array via l, without ever materializing a local copy on
// disk. A build input may be uploaded compressed (see UploadCompressed) to
// save on storage and transfer cost; this is detected from the object's
// leading magic bytes rather than from the key name, so no separate
// metadata needs to travel with the upload.
func LoadBitstring(ctx context.Context, s Storage, key string, l loader.Loader) (*bitarray.BitArray, error) {
	r, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	data, err = decompressIfNeeded(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress object %s: %w", key, err)
	}

	return l.Load(ctx, bytes.NewReader(data))
}

// UploadCompressed compresses data with comp and uploads the result to key.
// Pairs with LoadBitstring, which detects the compression from the
// object's magic bytes on the way back out.
func UploadCompressed(ctx context.Context, s Storage, key string, data []byte, comp compression.Compressor) error {
	compressed, err := comp.Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress object %s: %w", key, err)
	}
	return s.Upload(ctx, key, bytes.NewReader(compressed))
}

// gzipMagic and zstdMagic are the leading bytes that identify an already
// compressed object; anything else is assumed to be a raw '('/')' input.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompressIfNeeded inspects data's leading bytes and decompresses it with
// the matching pkg/compression.Compressor, or returns data unchanged if it
// carries neither the gzip nor zstd magic header.
func decompressIfNeeded(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		comp, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, err
		}
		defer comp.Close()
		return comp.Decompress(data)
	case bytes.HasPrefix(data, gzipMagic):
		return compression.NewGzipCompressor(compression.LevelDefault).Decompress(data)
	default:
		return data, nil
	}
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	storageType := StorageType(cfg.Type)

	// Empty type defaults to local
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	if storageType != StorageTypeCOS && storageType != StorageTypeLocal {
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if storageType == StorageTypeCOS {
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	}

	if storageType == StorageTypeLocal {
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	}

	return nil
}
