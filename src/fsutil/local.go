package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFileStore implements FileStore using the local filesystem
type LocalFileStore struct {
}

// NewLocalFileStore creates a new LocalFileStore
func NewLocalFileStore() FileStore {
	return &LocalFileStore{}
}

func (l *LocalFileStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (l *LocalFileStore) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (l *LocalFileStore) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (l *LocalFileStore) ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (l *LocalFileStore) MakeDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}
