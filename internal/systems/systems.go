// Package systems wires the application together: database, catalog client,
// caches, resolver, downloads, persistence and the playback controller.
package systems

import (
	"context"
	"path/filepath"
	"time"

	"songbird/internal/api"
	"songbird/internal/cache"
	"songbird/internal/continuation"
	"songbird/internal/database"
	"songbird/internal/downloads"
	"songbird/internal/player"
	"songbird/internal/queue"
	"songbird/internal/resolver"
	"songbird/internal/store"
	"songbird/internal/structures"
)

// Systems bundles every long-lived component.
type Systems struct {
	Config       *structures.Config
	DB           *database.DB
	Catalog      *api.Client
	Streams      *cache.StreamCache
	Resolver     *resolver.Coordinator
	Downloads    *downloads.Registry
	Persist      *queue.Manager
	Controller   *player.Controller
	Continuation *continuation.Manager

	// Cached catalog accessors.
	Videos    *store.ItemStore[api.VideoModel, string]
	Search    *store.ListStore[api.VideoModel, string]
	Playlists *store.ListStore[structures.MetadataRow, string]
}

// Start builds and starts all systems rooted at dataDir.
func Start(cfg *structures.Config, dataDir string, extractorClient resolver.Extractor, sink player.Sink) (*Systems, error) {
	db, err := database.Open(filepath.Join(dataDir, "songbird.db"))
	if err != nil {
		return nil, err
	}

	catalog := api.NewClient(cfg.CatalogBaseURL)
	streams := cache.NewStreamCache(cfg.StreamCacheSize, time.Duration(cfg.StreamCacheTTLMin)*time.Minute)
	res := resolver.New(db, streams, extractorClient)

	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = filepath.Join(dataDir, "downloads")
	}
	registry, err := downloads.NewRegistry(db, downloadDir)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := registry.Watch(); err != nil {
		db.Close()
		return nil, err
	}

	persist := queue.NewManager(db, queue.DefaultQueueID, time.Duration(cfg.SaveDebounceMs)*time.Millisecond)
	controller := player.NewController(persist, res, sink)

	s := &Systems{
		Config:     cfg,
		DB:         db,
		Catalog:    catalog,
		Streams:    streams,
		Resolver:   res,
		Downloads:  registry,
		Persist:    persist,
		Controller: controller,
	}

	s.Videos = store.NewItemStore(db, store.ItemConfig[api.VideoModel, string]{
		TTL:     time.Duration(cfg.ItemStoreTTLHours) * time.Hour,
		Fetch:   catalog.FetchVideoDetails,
		MapRow:  api.RowFromVideo,
		KeyToID: func(id string) string { return id },
	})

	s.Search = store.NewListStore(db, store.ListConfig[api.VideoModel, string]{
		TTL: time.Duration(cfg.ListStoreTTLMin) * time.Minute,
		FetchList: func(ctx context.Context, query string) ([]api.VideoModel, error) {
			page, err := catalog.SearchVideos(ctx, api.SearchRequest{Query: query, Limit: 50})
			if err != nil {
				return nil, err
			}
			return page.Items, nil
		},
		MapRow: api.RowFromVideo,
	})

	s.Playlists = store.NewListStore(db, store.ListConfig[structures.MetadataRow, string]{
		TTL: time.Duration(cfg.ListStoreTTLMin) * time.Minute,
		FetchList: func(ctx context.Context, playlistID string) ([]structures.MetadataRow, error) {
			playlist, err := catalog.FetchPlaylist(ctx, playlistID)
			if err != nil {
				return nil, err
			}
			return api.RowsFromPlaylist(playlist), nil
		},
		MapRow: func(row structures.MetadataRow) structures.MetadataRow { return row },
	})

	s.Continuation = continuation.NewManager(
		&radioSource{catalog: catalog, db: db},
		&segmentExpander{catalog: catalog, db: db},
		controller,
		func() bool { return cfg.AutoplayEnabled },
		cfg.RadioLowWaterMark,
	)
	controller.SetContinuation(s.Continuation)
	controller.Start()

	return s, nil
}

// Stop shuts everything down, saving playback state first.
func (s *Systems) Stop() {
	s.Controller.Stop()
	s.Continuation.EndCurrentSession()
	s.Resolver.CancelAll()
	s.Downloads.Close()
	s.DB.Close()
}

// radioSource adapts the catalog's radio endpoint to the continuation
// manager, writing fetched metadata through the durable store.
type radioSource struct {
	catalog *api.Client
	db      *database.DB
}

func (r *radioSource) FetchRadio(ctx context.Context, radioID string, offset int) ([]structures.PlaybackItem, error) {
	playlist, err := r.catalog.FetchRadio(ctx, radioID, offset)
	if err != nil {
		return nil, err
	}

	rows := api.RowsFromPlaylist(playlist)
	if len(rows) == 0 {
		return nil, nil
	}

	return itemsThroughStore(r.db, rows)
}

// segmentExpander fetches a video's songs for autoplay segment expansion.
type segmentExpander struct {
	catalog *api.Client
	db      *database.DB
}

func (e *segmentExpander) FetchSegments(ctx context.Context, videoID string) ([]structures.PlaybackItem, error) {
	video, err := e.catalog.FetchVideoDetails(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(video.Songs) == 0 {
		return nil, nil
	}

	rows := make([]structures.MetadataRow, len(video.Songs))
	for i, song := range video.Songs {
		rows[i] = api.RowFromSong(song)
	}

	return itemsThroughStore(e.db, rows)
}

// itemsThroughStore upserts rows and rehydrates playback items via the
// optimized batch projection, pre-resolving completed downloads to their
// local paths.
func itemsThroughStore(db *database.DB, rows []structures.MetadataRow) ([]structures.PlaybackItem, error) {
	if err := db.UpsertBatch(rows); err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	displays, err := db.ReadOptimizedBatch(ids)
	if err != nil {
		return nil, err
	}

	items := make([]structures.PlaybackItem, 0, len(displays))
	for _, d := range displays {
		item := structures.ItemFromRow(d.Row)
		if d.DownloadStatus == structures.Downloaded && d.LocalPath != "" {
			item.StreamURI = d.LocalPath
		}
		items = append(items, item)
	}

	return items, nil
}
