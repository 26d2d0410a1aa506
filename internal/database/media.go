package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"songbird/internal/structures"
)

const mediaColumns = `id, media_type, title, artist_name, channel_id, org, art_url,
	uploader_avatar_url, duration, parent_video_id, start_seconds, end_seconds,
	song_count, description, status, available_at, published_at, last_updated_at`

const upsertMediaSQL = `
	INSERT OR REPLACE INTO unified_media
	(id, media_type, title, artist_name, channel_id, org, art_url,
	 uploader_avatar_url, duration, parent_video_id, start_seconds, end_seconds,
	 song_count, description, status, available_at, published_at, last_updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Upsert inserts or replaces a metadata row by primary key. Idempotent.
func (db *DB) Upsert(row structures.MetadataRow) error {
	if row.LastUpdatedAt.IsZero() {
		row.LastUpdatedAt = time.Now()
	}

	db.mu.Lock()
	_, err := db.db.Exec(upsertMediaSQL, upsertArgs(row)...)
	db.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to upsert media %s: %w", row.ID, err)
	}

	db.notifyRow(row.ID)

	return nil
}

// UpsertBatch upserts all rows inside one transaction. The transaction exists
// for I/O efficiency only; each row keeps independent upsert semantics.
func (db *DB) UpsertBatch(rows []structures.MetadataRow) error {
	if len(rows) == 0 {
		return nil
	}

	db.mu.Lock()
	err := db.upsertBatchLocked(rows)
	db.mu.Unlock()

	if err != nil {
		return err
	}

	for _, row := range rows {
		db.notifyRow(row.ID)
	}

	return nil
}

func (db *DB) upsertBatchLocked(rows []structures.MetadataRow) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertMediaSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, row := range rows {
		if row.LastUpdatedAt.IsZero() {
			row.LastUpdatedAt = now
		}
		if _, err := stmt.Exec(upsertArgs(row)...); err != nil {
			return fmt.Errorf("failed to upsert media %s: %w", row.ID, err)
		}
	}

	return tx.Commit()
}

func upsertArgs(row structures.MetadataRow) []any {
	return []any{
		row.ID,
		int(row.Type),
		row.Title,
		row.ArtistName,
		row.ChannelID,
		row.Org,
		row.ArtURL,
		row.UploaderAvatarURL,
		row.Duration,
		nullString(row.ParentVideoID),
		nullInt(row.StartSeconds, row.Type == structures.MediaTypeSegment),
		nullInt(row.EndSeconds, row.Type == structures.MediaTypeSegment),
		row.SongCount,
		row.Description,
		row.Status,
		nullTime(row.AvailableAt),
		nullTime(row.PublishedAt),
		row.LastUpdatedAt,
	}
}

// Get retrieves a metadata row by id.
func (db *DB) Get(id string) (*structures.MetadataRow, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.getLocked(id)
}

func (db *DB) getLocked(id string) (*structures.MetadataRow, bool) {
	row := db.db.QueryRow(
		`SELECT `+mediaColumns+` FROM unified_media WHERE id = ?`, id)

	m, err := scanMediaRow(row)
	if err != nil {
		return nil, false
	}

	return m, true
}

// Delete removes a metadata row; referencing side-table rows cascade.
func (db *DB) Delete(id string) error {
	db.mu.Lock()
	_, err := db.db.Exec("DELETE FROM unified_media WHERE id = ?", id)
	db.mu.Unlock()

	if err != nil {
		return err
	}

	db.notifyRow(id)

	return nil
}

// ReadOptimizedBatch reads metadata rows joined with interaction flags in one
// query, preserving the order of ids. Missing ids are skipped.
func (db *DB) ReadOptimizedBatch(ids []string) ([]structures.TrackDisplay, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `
		SELECT m.id, m.media_type, m.title, m.artist_name, m.channel_id, m.org,
		       m.art_url, m.uploader_avatar_url, m.duration, m.parent_video_id,
		       m.start_seconds, m.end_seconds, m.song_count, m.description,
		       m.status, m.available_at, m.published_at, m.last_updated_at,
		       COALESCE(i.liked, 0), COALESCE(i.download_status, 0),
		       COALESCE(i.local_path, '')
		FROM unified_media m
		LEFT JOIN media_interactions i ON i.media_id = m.id
		WHERE m.id IN (` + placeholders + `)`

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]structures.TrackDisplay, len(ids))

	for rows.Next() {
		var d structures.TrackDisplay
		m, liked, status, localPath, err := scanDisplayRow(rows)
		if err != nil {
			continue
		}
		d.Row = *m
		d.Liked = liked
		d.DownloadStatus = structures.DownloadStatus(status)
		d.LocalPath = localPath
		byID[m.ID] = d
	}

	result := make([]structures.TrackDisplay, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			result = append(result, d)
		}
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaRow(s rowScanner) (*structures.MetadataRow, error) {
	var m structures.MetadataRow
	var mediaType int
	var artist, channel, org, art, avatar, parent, desc, status sql.NullString
	var start, end sql.NullInt64
	var availableAt, publishedAt sql.NullTime

	err := s.Scan(
		&m.ID, &mediaType, &m.Title, &artist, &channel, &org, &art, &avatar,
		&m.Duration, &parent, &start, &end, &m.SongCount, &desc, &status,
		&availableAt, &publishedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Type = structures.MediaType(mediaType)
	m.ArtistName = artist.String
	m.ChannelID = channel.String
	m.Org = org.String
	m.ArtURL = art.String
	m.UploaderAvatarURL = avatar.String
	m.ParentVideoID = parent.String
	m.StartSeconds = int(start.Int64)
	m.EndSeconds = int(end.Int64)
	m.Description = desc.String
	m.Status = status.String
	m.AvailableAt = availableAt.Time
	m.PublishedAt = publishedAt.Time

	return &m, nil
}

func scanDisplayRow(s rowScanner) (*structures.MetadataRow, bool, int, string, error) {
	var m structures.MetadataRow
	var mediaType, liked, status int
	var artist, channel, org, art, avatar, parent, desc, rowStatus sql.NullString
	var start, end sql.NullInt64
	var availableAt, publishedAt sql.NullTime
	var localPath string

	err := s.Scan(
		&m.ID, &mediaType, &m.Title, &artist, &channel, &org, &art, &avatar,
		&m.Duration, &parent, &start, &end, &m.SongCount, &desc, &rowStatus,
		&availableAt, &publishedAt, &m.LastUpdatedAt,
		&liked, &status, &localPath,
	)
	if err != nil {
		return nil, false, 0, "", err
	}

	m.Type = structures.MediaType(mediaType)
	m.ArtistName = artist.String
	m.ChannelID = channel.String
	m.Org = org.String
	m.ArtURL = art.String
	m.UploaderAvatarURL = avatar.String
	m.ParentVideoID = parent.String
	m.StartSeconds = int(start.Int64)
	m.EndSeconds = int(end.Int64)
	m.Description = desc.String
	m.Status = rowStatus.String
	m.AvailableAt = availableAt.Time
	m.PublishedAt = publishedAt.Time

	return &m, liked != 0, status, localPath, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v int, present bool) any {
	if !present {
		return nil
	}
	return v
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
