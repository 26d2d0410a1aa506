package structures

import (
	"time"
)

// MediaType distinguishes full videos from song segments cut out of them.
type MediaType int

const (
	MediaTypeVideo MediaType = iota
	MediaTypeSegment
)

// DownloadStatus represents the download status of a media item
type DownloadStatus int

const (
	NotDownloaded DownloadStatus = iota
	Downloading
	Downloaded
	DownloadFailed
)

// RepeatMode controls what happens when the queue reaches its end
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// MetadataRow is the canonical durable record for any playable unit.
// VIDEO rows never carry ParentVideoID; SEGMENT rows always do, along with
// StartSeconds/EndSeconds bounding the segment inside the parent stream.
type MetadataRow struct {
	ID                string
	Type              MediaType
	Title             string
	ArtistName        string
	ChannelID         string
	Org               string
	ArtURL            string
	UploaderAvatarURL string
	Duration          int // seconds
	ParentVideoID     string
	StartSeconds      int
	EndSeconds        int
	SongCount         int
	Description       string
	Status            string
	AvailableAt       time.Time
	PublishedAt       time.Time
	LastUpdatedAt     time.Time
}

// TrackDisplay is the row projection handed to list UIs: the metadata row
// joined with the user's interaction flags in a single query.
type TrackDisplay struct {
	Row            MetadataRow
	Liked          bool
	DownloadStatus DownloadStatus
	LocalPath      string
}

// PlaybackItem is the transient unit handed to the player. StreamURI stays
// empty until the resolver fills it in; ClipStartSec/ClipEndSec bound segment
// playback within the parent media's stream.
type PlaybackItem struct {
	ID           string
	Type         MediaType
	Title        string
	ArtistName   string
	ArtURL       string
	Duration     int
	SongCount    int
	StreamURI    string
	ClipStartSec int
	ClipEndSec   int
}

// ItemFromRow builds a PlaybackItem from a durable metadata row.
func ItemFromRow(row MetadataRow) PlaybackItem {
	item := PlaybackItem{
		ID:         row.ID,
		Type:       row.Type,
		Title:      row.Title,
		ArtistName: row.ArtistName,
		ArtURL:     row.ArtURL,
		Duration:   row.Duration,
		SongCount:  row.SongCount,
	}
	if row.Type == MediaTypeSegment {
		item.ClipStartSec = row.StartSeconds
		item.ClipEndSec = row.EndSeconds
	}
	return item
}

// StreamDetails is a resolved, time-limited stream URL. Entries live only in
// the in-memory cache, keyed by the underlying video id; all segments of one
// video share the entry.
type StreamDetails struct {
	URL        string
	Format     string
	Quality    string
	ResolvedAt time.Time
}

// PersistedPlaybackData is the durable queue snapshot: head fields plus the
// active order and, when shuffle is on, the pre-shuffle backup order. Saved
// and loaded as one atomic unit.
type PersistedPlaybackData struct {
	QueueID        string
	Items          []PlaybackItem
	BackupOrder    []string // ids in pre-shuffle order, empty when shuffle is off
	CurrentIndex   int
	PositionMs     int64
	CurrentMediaID string
	ShuffleOn      bool
	Repeat         RepeatMode
}

// PlayerState is a snapshot of the playback controller's state.
type PlayerState struct {
	Items      []PlaybackItem
	Current    int
	PositionMs int64
	IsPlaying  bool
	ShuffleOn  bool
	Repeat     RepeatMode
}

// PlayerAction is a message sent to the playback controller.
type PlayerAction interface{}

type PlayPauseAction struct{}
type NextAction struct{}
type PreviousAction struct{}
type JumpToIndexAction struct{ Index int }
type ReplaceQueueAction struct{ Items []PlaybackItem }
type AppendItemsAction struct{ Items []PlaybackItem }
type ToggleShuffleAction struct{}
type CycleRepeatAction struct{}
type SeekAction struct{ PositionMs int64 }
type CleanupAction struct{}

// Config represents the application configuration
type Config struct {
	CatalogBaseURL string `toml:"catalog_base_url"`
	DownloadDir    string `toml:"download_dir"`

	// Caching
	StreamCacheSize   int `toml:"stream_cache_size"`
	StreamCacheTTLMin int `toml:"stream_cache_ttl_minutes"`
	ItemStoreTTLHours int `toml:"item_store_ttl_hours"`
	ListStoreTTLMin   int `toml:"list_store_ttl_minutes"`

	// Playback
	AutoplayEnabled   bool    `toml:"autoplay_enabled"`
	RadioLowWaterMark int     `toml:"radio_low_water_mark"`
	SaveDebounceMs    int64   `toml:"save_debounce_ms"`
	DefaultVolume     float64 `toml:"default_volume"`
	SeekSeconds       int     `toml:"seek_seconds"`

	Theme Theme `toml:"theme"`
}

// Theme represents the UI theme configuration
type Theme struct {
	Foreground string `toml:"foreground"`
	Selected   string `toml:"selected"`
	Playing    string `toml:"playing"`
	Border     string `toml:"border"`
}
