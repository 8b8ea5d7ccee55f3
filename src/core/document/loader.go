package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ragtutor/src/fsutil"
	"ragtutor/src/log"
)

var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Loader reads documents from a FileStore
type Loader struct {
	fs fsutil.FileStore
}

func NewLoader(fs fsutil.FileStore) *Loader {
	return &Loader{fs: fs}
}

// LoadFile loads a single document. A missing file yields ErrNotFound.
func (l *Loader) LoadFile(path string) (Document, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Document{}, fmt.Errorf("failed to stat file: %w", err)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	return Document{
		ID:      uuid.New().String(),
		Content: string(data),
		Metadata: map[string]any{
			"source":    path,
			"filename":  name,
			"file_size": info.Size(),
		},
		Source: path,
		Title:  name,
	}, nil
}

// LoadDirectory loads every supported file under dir. Unreadable files are
// logged and skipped; one bad file never fails the batch.
func (l *Loader) LoadDirectory(dir string) ([]Document, error) {
	paths, err := l.fs.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	documents := make([]Document, 0, len(paths))
	for _, path := range paths {
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}

		doc, err := l.LoadFile(path)
		if err != nil {
			log.Error(err, "skipping unreadable document", "path", path)
			continue
		}
		documents = append(documents, doc)
	}

	log.Info("loaded documents", "dir", dir, "count", len(documents))
	return documents, nil
}
