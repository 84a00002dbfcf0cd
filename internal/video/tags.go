package video

import (
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

var tagMimeTypes = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.M4P:  "audio/mp4",
	tag.ALAC: "audio/mp4",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.DSF:  "audio/dsf",
}

// tagValues maps embedded container tags onto keys. Empty values are left out.
func tagValues(m tag.Metadata) map[Key]string {
	values := make(map[Key]string)
	set := func(k Key, v string) {
		if v = strings.TrimSpace(v); v != "" {
			values[k] = v
		}
	}
	set(KeyAlbum, m.Album())
	set(KeyAlbumArtist, m.AlbumArtist())
	set(KeyArtist, m.Artist())
	set(KeyComposer, m.Composer())
	set(KeyGenre, m.Genre())
	set(KeyTitle, m.Title())
	set(KeyMimeType, tagMimeTypes[m.FileType()])
	if y := m.Year(); y > 0 {
		set(KeyYear, strconv.Itoa(y))
	}
	if raw := m.Raw(); raw != nil {
		if v, ok := raw["lyricist"].(string); ok {
			set(KeyWriter, v)
		}
	}
	return values
}
