package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_ArtistString(t *testing.T) {
	tests := []struct {
		name     string
		artists  []string
		expected string
	}{
		{
			name:     "single artist",
			artists:  []string{"Queen"},
			expected: "Queen",
		},
		{
			name:     "multiple artists",
			artists:  []string{"David Bowie", "Queen"},
			expected: "David Bowie, Queen",
		},
		{
			name:     "no artists",
			artists:  nil,
			expected: "Unknown Artist",
		},
		{
			name:     "empty slice",
			artists:  []string{},
			expected: "Unknown Artist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Track{Name: "Under Pressure", Artists: tt.artists}
			assert.Equal(t, tt.expected, tr.ArtistString())
		})
	}
}

func TestTrack_Same(t *testing.T) {
	a := &Track{URI: "spotify:track:abc", Name: "Song A", Artists: []string{"X"}}
	b := &Track{URI: "spotify:track:abc", Name: "Song A (Remaster)", Artists: []string{"X"}}
	c := &Track{URI: "spotify:track:def", Name: "Song A", Artists: []string{"X"}}

	assert.True(t, a.Same(b), "same URI should match regardless of metadata")
	assert.False(t, a.Same(c), "different URI should not match")

	// URI-less tracks fall back to metadata
	d := &Track{Name: "Song A", Artists: []string{"X"}, Duration: 3 * time.Minute}
	e := &Track{Name: "Song A", Artists: []string{"X"}}
	assert.True(t, d.Same(e))

	var nilTrack *Track
	assert.False(t, a.Same(nilTrack))
	assert.True(t, nilTrack.Same(nil))
}
