// Package video reads container-level metadata for files the image reader
// does not recognize.
package video

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Key identifies one container metadata value.
type Key string

const (
	KeyAlbum         Key = "album"
	KeyAlbumArtist   Key = "album_artist"
	KeyArtist        Key = "artist"
	KeyAuthor        Key = "author"
	KeyBitrate       Key = "bitrate"
	KeyComposer      Key = "composer"
	KeyDate          Key = "date"
	KeyDuration      Key = "duration"
	KeyGenre         Key = "genre"
	KeyHasAudio      Key = "has_audio"
	KeyHasVideo      Key = "has_video"
	KeyLocation      Key = "location"
	KeyMimeType      Key = "mime_type"
	KeyNumTracks     Key = "num_tracks"
	KeyTitle         Key = "title"
	KeyVideoHeight   Key = "video_height"
	KeyVideoRotation Key = "video_rotation"
	KeyVideoWidth    Key = "video_width"
	KeyWriter        Key = "writer"
	KeyYear          Key = "year"
)

// Transform formats a raw value for display.
type Transform func(raw string) (string, error)

// Field maps a key to its output name.
type Field struct {
	Key       Key
	Name      string
	Transform Transform
}

// Apply returns raw unchanged when the field has no transform.
func (f Field) Apply(raw string) (string, error) {
	if f.Transform == nil {
		return raw, nil
	}
	return f.Transform(raw)
}

// KeyTable lists every key the fallback extractor asks for, in output order.
var KeyTable = []Field{
	{Key: KeyAlbum, Name: "Album"},
	{Key: KeyAlbumArtist, Name: "Album Artist"},
	{Key: KeyArtist, Name: "Artist"},
	{Key: KeyAuthor, Name: "Author"},
	{Key: KeyBitrate, Name: "Bitrate", Transform: FormatBitrate},
	{Key: KeyComposer, Name: "Composer"},
	{Key: KeyDate, Name: "Date"},
	{Key: KeyDuration, Name: "Duration"},
	{Key: KeyGenre, Name: "Content Type"},
	{Key: KeyHasAudio, Name: "Has Audio"},
	{Key: KeyHasVideo, Name: "Has Video"},
	{Key: KeyLocation, Name: "Location"},
	{Key: KeyMimeType, Name: "MIME Type"},
	{Key: KeyNumTracks, Name: "Number of Tracks"},
	{Key: KeyTitle, Name: "Title"},
	{Key: KeyVideoHeight, Name: "Video Height"},
	{Key: KeyVideoRotation, Name: "Video Rotation", Transform: FormatRotation},
	{Key: KeyVideoWidth, Name: "Video Width"},
	{Key: KeyWriter, Name: "Writer"},
	{Key: KeyYear, Name: "Year"},
}

// FormatBitrate renders a byte count with SI units and at most two
// decimals: "2.5 MB/sec", "12.34 MB/sec".
func FormatBitrate(raw string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid bitrate %q: %w", raw, err)
	}
	return humanize.SIWithDigits(float64(n), 2, "B") + "/sec", nil
}

func FormatRotation(raw string) (string, error) {
	return raw + "°", nil
}
