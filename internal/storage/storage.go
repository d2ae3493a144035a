// internal/storage/storage.go
package storage

import "context"

// ObjectInfo represents metadata for a stored snapshot object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// SnapshotArchive keeps raw ingested tables around for audit and replay.
type SnapshotArchive interface {
	ListSnapshots(ctx context.Context, prefix string) ([]ObjectInfo, error)
	UploadSnapshot(ctx context.Context, key string, data []byte) error
	DownloadSnapshot(ctx context.Context, key string) ([]byte, error)
}
