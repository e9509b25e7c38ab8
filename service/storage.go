package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	gstorage "cloud.google.com/go/storage"
)

// ErrFileNotFound is an error returned when a stored raster cannot be found
type ErrFileNotFound struct {
	File string
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("File not found: %s", e.File)
}

func isErrNotFound(err error) bool {
	var epath *os.PathError
	return errors.Is(err, gstorage.ErrObjectNotExist) ||
		(errors.As(err, &epath) && os.IsNotExist(epath))
}

// Storage persists processed rasters and answers the existence check that
// makes a rerun of the pipeline a no-op.
type Storage interface {
	// Exists returns whether relPath is already present in the storage
	Exists(ctx context.Context, relPath string) (bool, error)
	// Save persists the local file under relPath and returns the destination uri
	Save(ctx context.Context, localFile, relPath string) (string, error)
	// URI returns the full uri of relPath
	URI(relPath string) string
}

// NewStorageStrategy returns a Storage for the given uri (currently supported: local path, gs://)
func NewStorageStrategy(ctx context.Context, storageURI string) (Storage, error) {
	if strings.HasPrefix(storageURI, "gs://") {
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewStorageStrategy.NewClient: %w", err)
		}
		bucketPath := strings.TrimPrefix(storageURI, "gs://")
		bucket, prefix, _ := strings.Cut(bucketPath, "/")
		if bucket == "" {
			return nil, fmt.Errorf("NewStorageStrategy: empty bucket in %s", storageURI)
		}
		return &gsStrategy{client: client, bucket: bucket, prefix: prefix}, nil
	}
	if storageURI == "" {
		return nil, fmt.Errorf("NewStorageStrategy: empty storage uri")
	}
	return &localStrategy{root: storageURI}, nil
}

// localStrategy implements Storage on a local directory tree
type localStrategy struct {
	root string
}

func (ls *localStrategy) Exists(ctx context.Context, relPath string) (bool, error) {
	if _, err := os.Stat(filepath.Join(ls.root, relPath)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("Exists.Stat: %w", err)
	}
	return true, nil
}

func (ls *localStrategy) Save(ctx context.Context, localFile, relPath string) (string, error) {
	src, err := os.Open(localFile)
	if err != nil {
		return "", fmt.Errorf("Save.Open: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(ls.root, relPath)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0766); err != nil {
		return "", MakeTemporary(fmt.Errorf("Save.MkdirAll: %w", err))
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", MakeTemporary(fmt.Errorf("Save.Create: %w", err))
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", MakeTemporary(fmt.Errorf("Save.Copy to %s: %w", dstPath, err))
	}
	return dstPath, nil
}

func (ls *localStrategy) URI(relPath string) string {
	return filepath.Join(ls.root, relPath)
}

// gsStrategy implements Storage on a GCS bucket
type gsStrategy struct {
	client *gstorage.Client
	bucket string
	prefix string
}

func (gs *gsStrategy) object(relPath string) *gstorage.ObjectHandle {
	return gs.client.Bucket(gs.bucket).Object(path.Join(gs.prefix, relPath))
}

func (gs *gsStrategy) Exists(ctx context.Context, relPath string) (bool, error) {
	if _, err := gs.object(relPath).Attrs(ctx); err != nil {
		if isErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("Exists.Attrs: %w", err)
	}
	return true, nil
}

func (gs *gsStrategy) Save(ctx context.Context, localFile, relPath string) (string, error) {
	src, err := os.Open(localFile)
	if err != nil {
		return "", fmt.Errorf("Save.Open: %w", err)
	}
	defer src.Close()

	w := gs.object(relPath).NewWriter(ctx)
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return "", MakeTemporary(fmt.Errorf("Save.Copy to %s: %w", gs.URI(relPath), err))
	}
	if err := w.Close(); err != nil {
		return "", MakeTemporary(fmt.Errorf("Save.Close: %w", err))
	}
	return gs.URI(relPath), nil
}

func (gs *gsStrategy) URI(relPath string) string {
	return "gs://" + gs.bucket + "/" + path.Join(gs.prefix, relPath)
}
