// Package mopidy provides a client for the Mopidy HTTP JSON-RPC API.
package mopidy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/handset/internal/domain/track"
)

// PlaybackState represents the playback state reported by Mopidy.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateStopped PlaybackState = "stopped"
)

// Config represents Mopidy client configuration.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Client is a Mopidy JSON-RPC client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new Mopidy client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d/mopidy/rpc", cfg.Host, cfg.Port),
		http:    &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs a JSON-RPC request and unmarshals the result into out.
// Passing a nil out discards the result.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "mopidy rpc call failed: %s", method)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("mopidy rpc %s: unexpected status %d", method, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read rpc response")
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return errors.Wrapf(err, "failed to decode rpc response for %s", method)
	}
	if rpcResp.Error != nil {
		return errors.Newf("mopidy rpc %s: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return errors.Wrapf(err, "failed to decode result for %s", method)
		}
	}
	return nil
}

// Ping verifies connectivity by asking Mopidy for its version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var version string
	if err := c.call(ctx, "core.get_version", nil, &version); err != nil {
		return "", err
	}
	return version, nil
}

// Play starts or resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.call(ctx, "core.playback.play", nil, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.call(ctx, "core.playback.pause", nil, nil)
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.call(ctx, "core.playback.stop", nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.call(ctx, "core.playback.next", nil, nil)
}

// Previous goes back to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.call(ctx, "core.playback.previous", nil, nil)
}

// PlaybackState returns the current playback state. Unknown values are
// reported as stopped.
func (c *Client) PlaybackState(ctx context.Context) (PlaybackState, error) {
	var state string
	if err := c.call(ctx, "core.playback.get_state", nil, &state); err != nil {
		return StateStopped, err
	}
	switch PlaybackState(state) {
	case StatePlaying, StatePaused, StateStopped:
		return PlaybackState(state), nil
	default:
		return StateStopped, nil
	}
}

// trackPayload mirrors Mopidy's track model.
type trackPayload struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Length  int `json:"length"` // milliseconds
	TrackNo int `json:"track_no"`
}

func (p *trackPayload) toDomain() *track.Track {
	artists := make([]string, 0, len(p.Artists))
	for _, a := range p.Artists {
		artists = append(artists, a.Name)
	}
	return &track.Track{
		URI:      p.URI,
		Name:     p.Name,
		Artists:  artists,
		Album:    p.Album.Name,
		Duration: time.Duration(p.Length) * time.Millisecond,
		TrackNo:  p.TrackNo,
	}
}

// CurrentTrack returns the currently playing track, or nil when nothing is
// loaded.
func (c *Client) CurrentTrack(ctx context.Context) (*track.Track, error) {
	var tlTrack *struct {
		Track *trackPayload `json:"track"`
	}
	if err := c.call(ctx, "core.playback.get_current_tl_track", nil, &tlTrack); err != nil {
		return nil, err
	}
	if tlTrack == nil || tlTrack.Track == nil {
		return nil, nil
	}
	return tlTrack.Track.toDomain(), nil
}

// TimePosition returns the playback position within the current track.
func (c *Client) TimePosition(ctx context.Context) (time.Duration, error) {
	var ms int
	if err := c.call(ctx, "core.playback.get_time_position", nil, &ms); err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Volume returns the mixer volume (0-100).
func (c *Client) Volume(ctx context.Context) (int, error) {
	var vol int
	if err := c.call(ctx, "core.mixer.get_volume", nil, &vol); err != nil {
		return 0, err
	}
	return vol, nil
}

// SetVolume sets the mixer volume, clamping to 0-100.
func (c *Client) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}
	return c.call(ctx, "core.mixer.set_volume", map[string]any{"volume": volume}, nil)
}

// Playlists returns the playlists known to the daemon.
func (c *Client) Playlists(ctx context.Context) ([]track.Playlist, error) {
	var payload []struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	}
	if err := c.call(ctx, "core.playlists.as_list", nil, &payload); err != nil {
		return nil, err
	}

	playlists := make([]track.Playlist, 0, len(payload))
	for _, p := range payload {
		playlists = append(playlists, track.Playlist{URI: p.URI, Name: p.Name})
	}
	return playlists, nil
}

// LoadPlaylist replaces the tracklist with the given playlist and starts
// playback.
func (c *Client) LoadPlaylist(ctx context.Context, playlistURI string) error {
	if err := c.call(ctx, "core.tracklist.clear", nil, nil); err != nil {
		return err
	}

	var playlist *struct {
		Name   string         `json:"name"`
		Tracks []trackPayload `json:"tracks"`
	}
	if err := c.call(ctx, "core.playlists.lookup", map[string]any{"uri": playlistURI}, &playlist); err != nil {
		return err
	}
	if playlist == nil || len(playlist.Tracks) == 0 {
		return errors.Newf("playlist not found or empty: %s", playlistURI)
	}

	uris := make([]string, 0, len(playlist.Tracks))
	for _, t := range playlist.Tracks {
		uris = append(uris, t.URI)
	}
	if err := c.call(ctx, "core.tracklist.add", map[string]any{"uris": uris}, nil); err != nil {
		return err
	}
	return c.Play(ctx)
}
