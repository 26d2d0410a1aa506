package api

import (
	"time"

	"songbird/internal/structures"
)

// RowFromVideo maps a catalog video to its canonical metadata row.
func RowFromVideo(v VideoModel) structures.MetadataRow {
	return structures.MetadataRow{
		ID:                v.ID,
		Type:              structures.MediaTypeVideo,
		Title:             v.Title,
		ArtistName:        v.Channel.Name,
		ChannelID:         v.Channel.ID,
		Org:               v.Channel.Org,
		UploaderAvatarURL: v.Channel.Photo,
		Duration:          v.Duration,
		SongCount:         v.SongCount,
		Description:       v.Description,
		Status:            v.Status,
		AvailableAt:       v.AvailableAt,
		PublishedAt:       v.PublishedAt,
		LastUpdatedAt:     time.Now(),
	}
}

// RowFromSong maps a song segment to its canonical metadata row. The row id
// is the composite segment id; ParentVideoID points back at the source video.
func RowFromSong(s SongModel) structures.MetadataRow {
	return structures.MetadataRow{
		ID:                structures.SegmentID(s.VideoID, s.Start),
		Type:              structures.MediaTypeSegment,
		Title:             s.Name,
		ArtistName:        s.Channel.Name,
		ChannelID:         s.Channel.ID,
		Org:               s.Channel.Org,
		ArtURL:            s.Art,
		UploaderAvatarURL: s.Channel.Photo,
		Duration:          s.End - s.Start,
		ParentVideoID:     s.VideoID,
		StartSeconds:      s.Start,
		EndSeconds:        s.End,
		LastUpdatedAt:     time.Now(),
	}
}

// RowsFromPlaylist flattens a playlist into metadata rows, songs first when
// both are present (song playlists and video playlists are distinct upstream).
func RowsFromPlaylist(p PlaylistModel) []structures.MetadataRow {
	rows := make([]structures.MetadataRow, 0, len(p.Songs)+len(p.Videos))
	for _, s := range p.Songs {
		rows = append(rows, RowFromSong(s))
	}
	for _, v := range p.Videos {
		rows = append(rows, RowFromVideo(v))
	}
	return rows
}
