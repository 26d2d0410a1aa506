package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Client talks to the remote song catalog. Any non-2xx response or transport
// error surfaces as an error; retries are left to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken installs an auth token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("catalog request %s failed: %s", path, resp.Status)
	}

	if out == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(respBody, out)
}

// FetchVideoDetails fetches one video with its song segments included.
func (c *Client) FetchVideoDetails(ctx context.Context, videoID string) (VideoModel, error) {
	var video VideoModel

	query := url.Values{"include": {"songs"}}
	if err := c.do(ctx, http.MethodGet, "/videos/"+videoID, query, nil, &video); err != nil {
		return VideoModel{}, err
	}

	return video, nil
}

// SearchVideos runs a paged catalog search.
func (c *Client) SearchVideos(ctx context.Context, req SearchRequest) (PagedVideoModel, error) {
	var page PagedVideoModel

	if err := c.do(ctx, http.MethodPost, "/search/videos", nil, req, &page); err != nil {
		return PagedVideoModel{}, err
	}

	return page, nil
}

// FetchPlaylist fetches a playlist with its contents.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) (PlaylistModel, error) {
	var playlist PlaylistModel

	if err := c.do(ctx, http.MethodGet, "/playlists/"+playlistID, nil, nil, &playlist); err != nil {
		return PlaylistModel{}, err
	}

	return playlist, nil
}

// FetchRadio fetches one page of a radio (recommendation) playlist. Offset is
// the number of items already consumed.
func (c *Client) FetchRadio(ctx context.Context, radioID string, offset int) (PlaylistModel, error) {
	var playlist PlaylistModel

	query := url.Values{"offset": {strconv.Itoa(offset)}}
	if err := c.do(ctx, http.MethodGet, "/radios/"+radioID, query, nil, &playlist); err != nil {
		return PlaylistModel{}, err
	}

	return playlist, nil
}

// Login exchanges credentials for an auth token and installs it.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var token TokenResponse

	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &token); err != nil {
		return TokenResponse{}, err
	}

	c.SetToken(token.Token)

	return token, nil
}

// RefreshToken renews the current auth token and installs the new one.
func (c *Client) RefreshToken(ctx context.Context) (TokenResponse, error) {
	var token TokenResponse

	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &token); err != nil {
		return TokenResponse{}, err
	}

	c.SetToken(token.Token)

	return token, nil
}
