package api

import "time"

// ChannelModel is the catalog's channel payload embedded in videos and songs.
type ChannelModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name,omitempty"`
	Org         string `json:"org,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

// SongModel is a song segment cut out of a longer stream.
type SongModel struct {
	VideoID        string       `json:"video_id"`
	Name           string       `json:"name"`
	OriginalArtist string       `json:"original_artist,omitempty"`
	Start          int          `json:"start"`
	End            int          `json:"end"`
	Art            string       `json:"art,omitempty"`
	Channel        ChannelModel `json:"channel"`
}

// VideoModel is the catalog's video payload.
type VideoModel struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        string       `json:"type"` // "stream", "clip", "placeholder"
	Status      string       `json:"status"`
	Duration    int          `json:"duration"`
	SongCount   int          `json:"songcount"`
	Description string       `json:"description,omitempty"`
	AvailableAt time.Time    `json:"available_at"`
	PublishedAt time.Time    `json:"published_at"`
	Channel     ChannelModel `json:"channel"`
	Songs       []SongModel  `json:"songs,omitempty"`
}

// PagedVideoModel is a paginated list of videos.
type PagedVideoModel struct {
	Total int          `json:"total"`
	Items []VideoModel `json:"items"`
}

// PlaylistModel is a named, ordered collection of videos or songs.
type PlaylistModel struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Videos []VideoModel `json:"videos,omitempty"`
	Songs  []SongModel  `json:"songs,omitempty"`
}

// SearchRequest describes a paged catalog search.
type SearchRequest struct {
	Query  string   `json:"query"`
	Org    string   `json:"org,omitempty"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
	Types  []string `json:"types,omitempty"`
}

// TokenResponse carries the auth token returned by login/refresh.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
