package blob

import (
	"context"
	"fmt"

	"recipekeeper/internal/config"
	"recipekeeper/internal/infra/blob/fs"
	"recipekeeper/internal/infra/blob/memory"
	"recipekeeper/internal/infra/blob/s3"
)

// Open selects a blob.Store from cfg.Driver.
//
//	fs:     files under cfg.FSRoot (default ./blobdata)
//	s3:     bucket cfg.S3.Bucket, optionally at cfg.S3.Endpoint (MinIO)
//	memory: process memory (tests)
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	store, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewS3 returns a Store over the configured bucket.
func NewS3(ctx context.Context, cfg config.S3Config) (Store, error) {
	store, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		PathStyle:       cfg.PathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
