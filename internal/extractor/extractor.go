// Package extractor resolves video ids into time-limited stream URLs via the
// video platform's player endpoint.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"songbird/internal/structures"
)

const defaultPlayerEndpoint = "https://music.youtube.com/youtubei/v1/player"

// Client extracts stream URLs from the video platform.
type Client struct {
	endpoint      string
	clientVersion string
	httpClient    *http.Client
}

// New creates an extractor client. An empty endpoint selects the default.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultPlayerEndpoint
	}

	return &Client{
		endpoint:      endpoint,
		clientVersion: "1.20240101.01.00",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		AdaptiveFormats []streamFormat `json:"adaptiveFormats"`
		Formats         []streamFormat `json:"formats"`
	} `json:"streamingData"`
}

type streamFormat struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	Bitrate      int    `json:"bitrate"`
	AudioQuality string `json:"audioQuality"`
}

// Resolve fetches streaming data for a video and picks the best audio-only
// format. Must be called from a background goroutine; the request honors ctx
// cancellation.
func (c *Client) Resolve(ctx context.Context, videoID string) (structures.StreamDetails, error) {
	body := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    "WEB_REMIX",
				"clientVersion": c.clientVersion,
			},
		},
		"videoId": videoID,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return structures.StreamDetails{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?prettyPrint=false", bytes.NewReader(jsonBody))
	if err != nil {
		return structures.StreamDetails{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return structures.StreamDetails{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return structures.StreamDetails{}, err
	}

	var player playerResponse
	if err := json.Unmarshal(respBody, &player); err != nil {
		return structures.StreamDetails{}, err
	}

	if player.PlayabilityStatus.Status != "OK" {
		return structures.StreamDetails{}, fmt.Errorf("video %s not playable: %s", videoID, player.PlayabilityStatus.Reason)
	}

	best := pickAudioFormat(player.StreamingData.AdaptiveFormats, player.StreamingData.Formats)
	if best == nil {
		return structures.StreamDetails{}, fmt.Errorf("no audio format for video %s", videoID)
	}

	return structures.StreamDetails{
		URL:        best.URL,
		Format:     best.MimeType,
		Quality:    best.AudioQuality,
		ResolvedAt: time.Now(),
	}, nil
}

// pickAudioFormat prefers the highest-bitrate audio-only adaptive format,
// falling back to any muxed format with a URL.
func pickAudioFormat(adaptive, muxed []streamFormat) *streamFormat {
	var best *streamFormat

	for i := range adaptive {
		f := &adaptive[i]
		if f.URL == "" || !isAudio(f.MimeType) {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}

	if best != nil {
		return best
	}

	for i := range muxed {
		if muxed[i].URL != "" {
			return &muxed[i]
		}
	}

	return nil
}

func isAudio(mimeType string) bool {
	return len(mimeType) >= 6 && mimeType[:6] == "audio/"
}
