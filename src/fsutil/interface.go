package fsutil

import "io/fs"

// FileStore provides an interface for file system operations
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary
	WriteFile(path string, data []byte) error

	// Stat returns file info for the given path
	Stat(path string) (fs.FileInfo, error)

	// ListFiles returns the paths of all regular files under dir,
	// recursing into subdirectories
	ListFiles(dir string) ([]string, error)

	// MakeDirectory creates a new directory and all necessary parents
	MakeDirectory(path string) error
}
