package video

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// dateLayout matches what Android's MediaMetadataRetriever reports.
const dateLayout = "20060102T150405.000Z"

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string            `json:"filename"`
	NbStreams  int               `json:"nb_streams"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Tags         map[string]string `json:"tags"`
	SideDataList []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Runner executes a command and returns its stdout.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func runProbe(run Runner, ffprobePath, path string) (map[Key]string, error) {
	out, err := run(ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(out, filepath.Ext(path))
}

// parseProbe maps ffprobe JSON onto container keys. ext picks the MIME type
// for multi-format demuxers.
func parseProbe(data []byte, ext string) (map[Key]string, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probe.Format.FormatName == "" && len(probe.Streams) == 0 {
		return nil, ErrNoContainerMetadata
	}

	values := make(map[Key]string)
	tags := lowerKeys(probe.Format.Tags)

	for key, names := range tagAliases {
		for _, name := range names {
			if v := strings.TrimSpace(tags[name]); v != "" {
				values[key] = v
				break
			}
		}
	}
	if _, ok := values[KeyYear]; !ok {
		if d := tags["date"]; len(d) >= 4 {
			if _, err := strconv.Atoi(d[:4]); err == nil {
				values[KeyYear] = d[:4]
			}
		}
	}
	if ct := tags["creation_time"]; ct != "" {
		if t, err := time.Parse(time.RFC3339Nano, ct); err == nil {
			values[KeyDate] = t.UTC().Format(dateLayout)
		}
	}

	if probe.Format.BitRate != "" {
		values[KeyBitrate] = probe.Format.BitRate
	}
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && d > 0 {
		values[KeyDuration] = strconv.FormatInt(int64(math.Round(d*1000)), 10)
	}
	if mime := mimeType(probe.Format.FormatName, ext); mime != "" {
		values[KeyMimeType] = mime
	}

	tracks := 0
	var video *ffprobeStream
	for i := range probe.Streams {
		s := &probe.Streams[i]
		switch s.CodecType {
		case "audio":
			values[KeyHasAudio] = "yes"
			tracks++
		case "video":
			// cover art is a single attached-picture video stream
			if s.CodecName == "mjpeg" || s.CodecName == "png" {
				continue
			}
			values[KeyHasVideo] = "yes"
			tracks++
			if video == nil {
				video = s
			}
		default:
			tracks++
		}
	}
	if tracks > 0 {
		values[KeyNumTracks] = strconv.Itoa(tracks)
	}
	if video != nil {
		if video.Width > 0 && video.Height > 0 {
			values[KeyVideoWidth] = strconv.Itoa(video.Width)
			values[KeyVideoHeight] = strconv.Itoa(video.Height)
		}
		values[KeyVideoRotation] = strconv.Itoa(rotation(video))
	}
	return values, nil
}

var tagAliases = map[Key][]string{
	KeyAlbum:       {"album"},
	KeyAlbumArtist: {"album_artist", "album artist"},
	KeyArtist:      {"artist"},
	KeyAuthor:      {"author"},
	KeyComposer:    {"composer"},
	KeyGenre:       {"genre"},
	KeyLocation:    {"location", "com.apple.quicktime.location.iso6709"},
	KeyTitle:       {"title"},
	KeyWriter:      {"writer", "lyricist"},
	KeyYear:        {"year"},
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

// rotation returns clockwise degrees in [0, 360). The legacy rotate tag
// wins over the display matrix, whose angle is counter-clockwise.
func rotation(s *ffprobeStream) int {
	if r, ok := s.Tags["rotate"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(r)); err == nil {
			return normalizeDegrees(n)
		}
	}
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" {
			return normalizeDegrees(-int(math.Round(sd.Rotation)))
		}
	}
	return 0
}

func normalizeDegrees(n int) int {
	return ((n % 360) + 360) % 360
}

func mimeType(formatName, ext string) string {
	ext = strings.ToLower(ext)
	names := strings.Split(formatName, ",")
	has := func(n string) bool {
		for _, name := range names {
			if name == n {
				return true
			}
		}
		return false
	}

	switch {
	case has("mov") || has("mp4"):
		switch ext {
		case ".mov":
			return "video/quicktime"
		case ".3gp":
			return "video/3gpp"
		case ".m4a":
			return "audio/mp4"
		}
		return "video/mp4"
	case has("matroska") || has("webm"):
		if ext == ".webm" {
			return "video/webm"
		}
		return "video/x-matroska"
	case has("avi"):
		return "video/avi"
	case has("mpegts"):
		return "video/mp2t"
	case has("mpeg"):
		return "video/mpeg"
	case has("mp3"):
		return "audio/mpeg"
	case has("flac"):
		return "audio/flac"
	case has("ogg"):
		return "audio/ogg"
	}
	return ""
}
