// Package files materializes remote artifacts as local files and enforces
// a retention cap on the downloads directory.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
	"github.com/foundry-demos/code-interpreter-chat/pkg/metrics"
)

// tmpPrefix marks in-flight downloads. Dot-prefixed names are invisible to
// listing and retention, so a crashed download never surfaces.
const tmpPrefix = ".download-"

// ContentSource fetches raw bytes for a remote file id.
type ContentSource interface {
	FileContent(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Store owns the downloads directory. The directory is a process-wide
// shared resource; the mutex serializes retention sweeps within this
// process, and atomic renames keep interleaved writers from exposing
// partial files. The count cap is best effort under races and
// self-corrects on the next save.
type Store struct {
	dir      string
	maxFiles int
	source   ContentSource
	logger   *logger.Logger

	mu sync.Mutex
}

// NewStore creates the downloads directory if absent and returns a store
// enforcing the given retention cap.
func NewStore(dir string, maxFiles int, source ContentSource, log *logger.Logger) (*Store, error) {
	if maxFiles < 1 {
		return nil, fmt.Errorf("retention cap must be at least 1, got %d", maxFiles)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return &Store{
		dir:      dir,
		maxFiles: maxFiles,
		source:   source,
		logger:   log,
	}, nil
}

// Dir returns the downloads directory path.
func (s *Store) Dir() string {
	return s.dir
}

// SaveArtifact downloads the artifact's bytes and writes them atomically
// (temp file, then rename) under a deterministic name. On success the
// returned artifact carries its local name and display metadata, and a
// retention sweep has run. Retention failures are logged, not returned.
func (s *Store) SaveArtifact(ctx context.Context, artifact model.Artifact) (model.Artifact, error) {
	name := LocalNameFor(artifact)
	dest := filepath.Join(s.dir, name)

	content, err := s.source.FileContent(ctx, artifact.FileID)
	if err != nil {
		metrics.ArtifactDownloadsTotal.WithLabelValues("error").Inc()
		return artifact, &DownloadError{FileID: artifact.FileID, Err: err}
	}
	defer content.Close()

	written, err := s.writeAtomic(dest, content)
	if err != nil {
		metrics.ArtifactDownloadsTotal.WithLabelValues("error").Inc()
		return artifact, &DownloadError{FileID: artifact.FileID, Err: err}
	}

	metrics.ArtifactDownloadsTotal.WithLabelValues("success").Inc()
	metrics.ArtifactBytesTotal.Add(float64(written))
	s.logger.Info("artifact saved",
		zap.String("file_id", artifact.FileID),
		zap.String("name", name),
		zap.Int64("bytes", written),
	)

	if err := s.EnforceRetention(name); err != nil {
		s.logger.Warn("retention sweep failed", zap.Error(err))
	}

	artifact.LocalName = name
	artifact.DisplayName = DisplayNameFor(artifact)
	artifact.MIMEType = MIMETypeFor(artifact)
	artifact.Downloaded = true
	return artifact, nil
}

// writeAtomic streams content into a hidden temp file in the same
// directory and renames it into place, so readers only ever see complete
// files.
func (s *Store) writeAtomic(dest string, content io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, content)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return 0, err
	}
	return written, nil
}

// EnforceRetention deletes the oldest files (by mtime, ties broken by
// name) until at most the configured cap remain. The file named by
// justWritten is never deleted. Idempotent: at or under the cap it is a
// no-op.
func (s *Store) EnforceRetention(justWritten string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.listFiles()
	if err != nil {
		return &RetentionError{Path: s.dir, Err: err}
	}
	metrics.ArtifactsOnDisk.Set(float64(len(entries)))

	excess := len(entries) - s.maxFiles
	if excess <= 0 {
		return nil
	}

	// Oldest first.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].name < entries[j].name
		}
		return entries[i].modTime.Before(entries[j].modTime)
	})

	var errs []error
	removed := 0
	for _, entry := range entries {
		if removed >= excess {
			break
		}
		if entry.name == justWritten {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.name)); err != nil {
			errs = append(errs, &RetentionError{Path: entry.name, Err: err})
			continue
		}
		s.logger.Debug("removed old artifact", zap.String("name", entry.name))
		metrics.ArtifactRetentionDeletes.Inc()
		removed++
	}
	metrics.ArtifactsOnDisk.Set(float64(len(entries) - removed))

	return errors.Join(errs...)
}

// ListDownloadable returns the files available for download, newest first.
func (s *Store) ListDownloadable() ([]model.FileInfo, error) {
	entries, err := s.listFiles()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].name > entries[j].name
		}
		return entries[i].modTime.After(entries[j].modTime)
	})

	infos := make([]model.FileInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, model.FileInfo{
			Name:        entry.name,
			DisplayName: entry.name,
			Size:        entry.size,
			ModifiedAt:  entry.modTime,
		})
	}
	return infos, nil
}

// Path validates a client-supplied file name and resolves it inside the
// downloads directory. Names with path separators or traversal are
// rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fs.ErrNotExist
	}
	full := filepath.Join(s.dir, name)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", fs.ErrNotExist
	}
	return full, nil
}

type fileEntry struct {
	name    string
	size    int64
	modTime time.Time
}

// listFiles reads the directory, skipping hidden entries (in-flight temp
// downloads) and anything that is not a regular file.
func (s *Store) listFiles() ([]fileEntry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	entries := make([]fileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := de.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, fileEntry{
			name:    name,
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return entries, nil
}
