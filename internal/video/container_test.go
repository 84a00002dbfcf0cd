package video

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// id3v1File writes payload followed by a 128-byte ID3v1 trailer.
func id3v1File(t *testing.T, dir, name, title, artist, year string, genre byte) string {
	t.Helper()

	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}
	data := []byte("not really audio")
	data = append(data, "TAG"...)
	data = append(data, field(title, 30)...)
	data = append(data, field(artist, 30)...)
	data = append(data, field("", 30)...)
	data = append(data, field(year, 4)...)
	data = append(data, field("", 30)...)
	data = append(data, genre)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write tagged file: %v", err)
	}
	return path
}

// TestContainerRetriever_ProbeThenTags는 테스트 코드 동작을 검증하거나 보조합니다.
func TestContainerRetriever_ProbeThenTags(t *testing.T) {
	// ffprobe 값이 우선이고, 없는 키는 내장 태그에서 채워야 한다.
	path := id3v1File(t, t.TempDir(), "song.mp3", "Tag Title", "Tag Artist", "1999", 17)

	r := NewContainerRetriever("ffprobe", false, nil)
	r.run = func(name string, args ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"format_name":"mp3","bit_rate":"128000","tags":{"title":"Probe Title"}}}`), nil
	}

	src, err := r.Open(path)
	require.NoError(t, err)
	defer src.Close()

	title, ok := src.Extract(KeyTitle)
	require.True(t, ok)
	assert.Equal(t, "Probe Title", title)

	artist, ok := src.Extract(KeyArtist)
	require.True(t, ok)
	assert.Equal(t, "Tag Artist", artist)

	genre, _ := src.Extract(KeyGenre)
	assert.Equal(t, "Rock", genre)
	year, _ := src.Extract(KeyYear)
	assert.Equal(t, "1999", year)

	_, ok = src.Extract(KeyVideoWidth)
	assert.False(t, ok)
}

// TestContainerRetriever_NoBackendReadsFile는 테스트 코드 동작을 검증하거나 보조합니다.
func TestContainerRetriever_NoBackendReadsFile(t *testing.T) {
	// ffprobe도 태그 리더도 읽지 못하면 ErrNoContainerMetadata여야 한다.
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 256), 0644))

	r := NewContainerRetriever("ffprobe", false, nil)
	r.run = func(name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}

	_, err := r.Open(path)
	assert.ErrorIs(t, err, ErrNoContainerMetadata)

	r = NewContainerRetriever("", false, nil)
	_, err = r.Open(path)
	assert.ErrorIs(t, err, ErrNoContainerMetadata)
}

// TestContainerRetriever_MissingFile는 테스트 코드 동작을 검증하거나 보조합니다.
func TestContainerRetriever_MissingFile(t *testing.T) {
	// 파일이 없으면 os 에러가 그대로 전달되어야 한다.
	_, err := NewContainerRetriever("", false, nil).Open("/path/does/not/exist.mp4")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestContainerRetriever_SidecarDate는 테스트 코드 동작을 검증하거나 보조합니다.
func TestContainerRetriever_SidecarDate(t *testing.T) {
	// 컨테이너에 날짜가 없으면 M01.XML 사이드카의 CreationDate를 써야 한다.
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "C0005.MP4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video"), 0644))
	writeSidecar(t, dir, "C0005M01.XML", "2025-12-31T19:47:25+09:00")

	r := NewContainerRetriever("ffprobe", true, nil)
	r.run = func(name string, args ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_name":"h264","codec_type":"video","width":3840,"height":2160}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}`), nil
	}

	src, err := r.Open(videoPath)
	require.NoError(t, err)
	defer src.Close()

	date, ok := src.Extract(KeyDate)
	require.True(t, ok)
	assert.Equal(t, "20251231T104725.000Z", date)

	r.Sidecar = false
	src2, err := r.Open(videoPath)
	require.NoError(t, err)
	defer src2.Close()
	_, ok = src2.Extract(KeyDate)
	assert.False(t, ok)
}
