// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a track reported by the music daemon.
// Contains only information retrieved from the Mopidy API.
type Track struct {
	URI      string        // Mopidy track URI (e.g. spotify:track:..., local:track:...)
	Name     string        // Track name
	Artists  []string      // Artist names
	Album    string        // Album name
	Duration time.Duration // Track duration
	TrackNo  int           // Track number within the album (0 if unknown)
}

// ArtistString returns the artist names joined with commas,
// or "Unknown Artist" when none are known.
func (t *Track) ArtistString() string {
	if len(t.Artists) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(t.Artists, ", ")
}

// Same reports whether two tracks refer to the same piece of media.
// URI comparison is used when both sides carry one; metadata otherwise.
func (t *Track) Same(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.URI != "" && other.URI != "" {
		return t.URI == other.URI
	}
	return t.Name == other.Name && t.ArtistString() == other.ArtistString()
}

// Playlist represents a playlist known to the music daemon.
type Playlist struct {
	URI        string // Mopidy playlist URI
	Name       string // Playlist display name
	TrackCount int    // Number of tracks (0 if unknown)
}
