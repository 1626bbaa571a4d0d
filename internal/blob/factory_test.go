package blob

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"recipekeeper/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  config.BlobConfig
		want Driver
	}{
		{name: "default", cfg: config.BlobConfig{FSRoot: filepath.Join(t.TempDir(), "blobs")}, want: DriverFilesystem},
		{name: "memory", cfg: config.BlobConfig{Driver: config.BlobMemory}, want: DriverMemory},
		{name: "s3", cfg: config.BlobConfig{Driver: config.BlobS3, S3: config.S3Config{
			Bucket: "books", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "minio", SecretAccessKey: "minio123",
		}}, want: DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("got driver %s want %s", store.Driver(), tc.want)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, config.BlobConfig{Driver: "gcs"}); err == nil || !strings.Contains(err.Error(), "unknown blob driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	store, err := Open(ctx, config.BlobConfig{Driver: config.BlobS3})
	if err == nil || store != nil {
		t.Fatalf("expected missing bucket error with nil store, got %v %v", store, err)
	}
}

func TestFilesystemStoreThroughInterface(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	if _, err := store.Put(ctx, "books/a.json", bytes.NewReader([]byte("{}")), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "books/a.json", bytes.NewReader([]byte("{}")), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected exists, got %v", err)
	}
	if _, err := store.Head(ctx, "books/b.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
