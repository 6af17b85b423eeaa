package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
)

// ErrInvalidName is returned for stored names that escape the upload directory.
var ErrInvalidName = errors.New("invalid upload name")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadStore keeps uploaded files on disk so they can be previewed and
// handed to analyzers that need a file path.
type UploadStore struct {
	dir     string
	maxSize int64 // bytes, 0 disables pruning
	logger  *logger.Logger
	mu      sync.Mutex
}

func NewUploadStore(dir string, maxSize int64, logger *logger.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &UploadStore{dir: dir, maxSize: maxSize, logger: logger}, nil
}

// Dir is the directory holding stored uploads.
func (s *UploadStore) Dir() string {
	return s.dir
}

// Save writes the file's bytes to disk and fills in StoredName and Path.
func (s *UploadStore) Save(file *model.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := file.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	name := SecureFilename(file.Name)
	if prefix != "" {
		name = prefix + "_" + name
	}

	fullpath := filepath.Join(s.dir, name)
	if err := os.WriteFile(fullpath, file.Data, 0644); err != nil {
		return fmt.Errorf("saving upload %s: %w", name, err)
	}

	file.StoredName = name
	file.Path = fullpath
	s.logger.Info("Stored upload %s (%s)", name, humanize.Bytes(uint64(len(file.Data))))
	return nil
}

// Resolve returns the absolute path of a stored upload, refusing names that
// would leave the upload directory.
func (s *UploadStore) Resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil || !strings.HasPrefix(absPath, absDir+string(os.PathSeparator)) {
		return "", ErrInvalidName
	}
	return absPath, nil
}

// Remove deletes one stored upload. A missing file is not an error.
func (s *UploadStore) Remove(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload %s: %w", name, err)
	}
	return nil
}

// Clear deletes every stored upload.
func (s *UploadStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading upload directory: %w", err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, file.Name())); err != nil {
			s.logger.Error("Error deleting upload %s: %v", file.Name(), err)
		}
	}
	s.logger.Info("All uploads cleared from directory: %s", s.dir)
	return nil
}

// Size returns the total size of stored uploads in bytes.
func (s *UploadStore) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	return total, nil
}

type entry struct {
	name    string
	size    int64
	modTime time.Time
}

func (s *UploadStore) entries() ([]entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}
	out := make([]entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		out = append(out, entry{name: f.Name(), size: info.Size(), modTime: info.ModTime()})
	}
	return out, nil
}

// Prune deletes the oldest uploads until the directory fits the size budget.
// It returns the names that were removed.
func (s *UploadStore) Prune() ([]string, error) {
	if s.maxSize <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range entries {
		total += e.size
	}
	if total <= s.maxSize {
		return nil, nil
	}

	slices.SortFunc(entries, func(a, b entry) int {
		return a.modTime.Compare(b.modTime)
	})

	var removed []string
	for _, e := range entries {
		if total <= s.maxSize {
			break
		}
		if err := os.Remove(filepath.Join(s.dir, e.name)); err != nil {
			s.logger.Error("Error pruning upload %s: %v", e.name, err)
			continue
		}
		total -= e.size
		removed = append(removed, e.name)
	}

	s.logger.Info("Pruned %d uploads, directory now %s of %s",
		len(removed), humanize.Bytes(uint64(total)), humanize.Bytes(uint64(s.maxSize)))
	return removed, nil
}

// Run prunes the directory every interval until ctx is cancelled. onPrune
// receives the removed names, e.g. to drop their history rows.
func (s *UploadStore) Run(ctx context.Context, interval time.Duration, onPrune func([]string)) {
	if interval <= 0 || s.maxSize <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Prune()
			if err != nil {
				s.logger.Error("Error pruning uploads: %v", err)
				continue
			}
			if len(removed) > 0 && onPrune != nil {
				onPrune(removed)
			}
		}
	}
}

// SecureFilename reduces a client-supplied name to a safe base name.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
