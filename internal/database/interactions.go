package database

import (
	"database/sql"
	"fmt"

	"songbird/internal/structures"
)

// Interaction carries the user-interaction flags for one media id.
type Interaction struct {
	MediaID        string
	Liked          bool
	DownloadStatus structures.DownloadStatus
	LocalPath      string
}

// SetLiked records whether the user likes a media item. The metadata row must
// already exist; the foreign key enforces it.
func (db *DB) SetLiked(mediaID string, liked bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.db.Exec(`
		INSERT INTO media_interactions (media_id, liked, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(media_id) DO UPDATE SET
			liked = excluded.liked,
			updated_at = CURRENT_TIMESTAMP
	`, mediaID, boolInt(liked))

	if err != nil {
		return fmt.Errorf("failed to set liked for %s: %w", mediaID, err)
	}

	return nil
}

// SetDownloadState records a download transition for a media item. LocalPath
// is only meaningful for the Downloaded status.
func (db *DB) SetDownloadState(mediaID string, status structures.DownloadStatus, localPath string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.db.Exec(`
		INSERT INTO media_interactions (media_id, download_status, local_path, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(media_id) DO UPDATE SET
			download_status = excluded.download_status,
			local_path = excluded.local_path,
			updated_at = CURRENT_TIMESTAMP
	`, mediaID, int(status), nullString(localPath))

	if err != nil {
		return fmt.Errorf("failed to set download state for %s: %w", mediaID, err)
	}

	return nil
}

// GetInteraction looks up the interaction flags for a single media id.
func (db *DB) GetInteraction(mediaID string) (*Interaction, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var in Interaction
	var liked, status int
	var localPath sql.NullString

	err := db.db.QueryRow(`
		SELECT media_id, liked, download_status, local_path
		FROM media_interactions
		WHERE media_id = ?
	`, mediaID).Scan(&in.MediaID, &liked, &status, &localPath)

	if err != nil {
		return nil, false
	}

	in.Liked = liked != 0
	in.DownloadStatus = structures.DownloadStatus(status)
	in.LocalPath = localPath.String

	return &in, true
}

// GetInteractions fetches interaction flags for many ids in one query, for
// callers resolving a whole queue at once.
func (db *DB) GetInteractions(mediaIDs []string) (map[string]Interaction, error) {
	if len(mediaIDs) == 0 {
		return nil, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	query := "SELECT media_id, liked, download_status, local_path FROM media_interactions WHERE media_id IN (?" +
		repeatPlaceholder(len(mediaIDs)-1) + ")"

	args := make([]any, len(mediaIDs))
	for i, id := range mediaIDs {
		args[i] = id
	}

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]Interaction)

	for rows.Next() {
		var in Interaction
		var liked, status int
		var localPath sql.NullString

		if err := rows.Scan(&in.MediaID, &liked, &status, &localPath); err != nil {
			continue
		}

		in.Liked = liked != 0
		in.DownloadStatus = structures.DownloadStatus(status)
		in.LocalPath = localPath.String
		result[in.MediaID] = in
	}

	return result, nil
}

func repeatPlaceholder(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ",?"
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
