// Package downloads tracks which media items exist as local files. State
// lives in the media_interactions table; a directory watcher demotes rows
// whose files disappear out-of-band so the resolver never short-circuits to
// a dead path.
package downloads

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"songbird/internal/database"
	"songbird/internal/logger"
	"songbird/internal/structures"
)

// Registry records download state transitions and answers local-path lookups.
type Registry struct {
	db      *database.DB
	dir     string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRegistry creates a registry rooted at dir, creating it if missing.
func NewRegistry(db *database.DB, dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Registry{
		db:   db,
		dir:  dir,
		done: make(chan struct{}),
	}, nil
}

// Dir returns the download directory.
func (r *Registry) Dir() string {
	return r.dir
}

// FilePath returns the canonical local path for a media id.
func (r *Registry) FilePath(mediaID string) string {
	return filepath.Join(r.dir, mediaID+".m4a")
}

// MarkDownloading flags a download as started.
func (r *Registry) MarkDownloading(mediaID string) error {
	return r.db.SetDownloadState(mediaID, structures.Downloading, "")
}

// MarkCompleted records a finished download and its local path.
func (r *Registry) MarkCompleted(mediaID, localPath string) error {
	return r.db.SetDownloadState(mediaID, structures.Downloaded, localPath)
}

// MarkFailed records a failed download.
func (r *Registry) MarkFailed(mediaID string) error {
	return r.db.SetDownloadState(mediaID, structures.DownloadFailed, "")
}

// LocalPath returns the local file path for a completed download, or false.
func (r *Registry) LocalPath(mediaID string) (string, bool) {
	in, ok := r.db.GetInteraction(mediaID)
	if !ok || in.DownloadStatus != structures.Downloaded || in.LocalPath == "" {
		return "", false
	}
	return in.LocalPath, true
}

// Watch starts the directory watcher. A removed or renamed file resets its
// media row to not-downloaded.
func (r *Registry) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return err
	}

	r.watcher = watcher
	go r.run()

	return nil
}

func (r *Registry) run() {
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mediaID := mediaIDFromPath(event.Name)
			if mediaID == "" {
				continue
			}

			logger.Info("download file gone, resetting %s", mediaID)
			if err := r.db.SetDownloadState(mediaID, structures.NotDownloaded, ""); err != nil {
				logger.Warn("failed to reset download state for %s: %v", mediaID, err)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("download watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (r *Registry) Close() error {
	close(r.done)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

func mediaIDFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return ""
	}
	return strings.TrimSuffix(base, ext)
}
