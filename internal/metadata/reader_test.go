package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/On-Jun9/ShutterMeta/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTIFF() fixture.TIFF {
	return fixture.TIFF{
		IFD0: []fixture.Entry{
			fixture.ASCII(0x010F, "Canon"),
			fixture.ASCII(0x0110, "EOS R6"),
			fixture.Short(0x0112, 6),
		},
		Exif: []fixture.Entry{
			fixture.Rational(0x829A, 1, 60),
			fixture.Rational(0x829D, 28, 10),
			fixture.Short(0x8827, 100),
			fixture.ASCII(0x9003, "2024:05:06 07:08:09"),
			fixture.Rational(0x920A, 42, 10),
			fixture.Undefined(0x9000, []byte("0231")),
		},
		GPS: []fixture.Entry{
			fixture.Bytes(0x0000, 2, 2, 0, 0),
			fixture.ASCII(0x0001, "N"),
			fixture.Rational(0x0002, 37, 1, 30, 1, 0, 1),
			fixture.ASCII(0x0003, "W"),
			fixture.Rational(0x0004, 122, 1, 15, 1, 0, 1),
		},
	}
}

// TestReader_Read_NotFound는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_NotFound(t *testing.T) {
	// 존재하지 않는 경로와 디렉터리 경로는 ErrNotFound로 분류되어야 한다.
	r := New(nil, false)

	_, err := r.Read("/path/does/not/exist.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = r.Read(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestReader_Read_UnknownFormat는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_UnknownFormat(t *testing.T) {
	// 어떤 시그니처와도 맞지 않는 바이트는 ErrUnreadableFormat이어야 한다.
	dir := t.TempDir()
	plain := fixture.Write(t, dir, "clip.mp4", []byte("\x00\x00\x00\x18ftypmp42not-an-image"))
	empty := fixture.Write(t, dir, "empty.bin", nil)

	r := New(nil, false)
	for _, path := range []string{plain, empty} {
		_, err := r.Read(path)
		assert.ErrorIs(t, err, ErrUnreadableFormat, path)
	}
}

// TestReader_Read_TruncatedJPEG는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_TruncatedJPEG(t *testing.T) {
	// 세그먼트 중간에서 끊긴 JPEG는 포맷 오류로 보고되어야 한다.
	data := fixture.JPEG(fixture.CommentSegment("hello"))
	path := fixture.Write(t, t.TempDir(), "cut.jpg", data[:8])

	_, err := New(nil, false).Read(path)
	assert.ErrorIs(t, err, ErrUnreadableFormat)
}

// TestReader_Read_TIFFDirectories는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_TIFFDirectories(t *testing.T) {
	// TIFF의 IFD0/SubIFD/GPS 태그가 각 디렉터리로 나뉘고 설명이 포맷되어야 한다.
	path := fixture.Write(t, t.TempDir(), "photo.tiff", sampleTIFF().Bytes())

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)

	ifd0 := doc.FirstOfKind(KindExifIFD0)
	require.NotNil(t, ifd0)
	maker, _ := ifd0.Description("Make")
	assert.Equal(t, "Canon", maker)
	orientation, _ := ifd0.Description("Orientation")
	assert.Equal(t, "Right side, top (Rotate 90 CW)", orientation)
	assert.False(t, ifd0.ContainsTag("ExifIFDPointer"))

	sub := doc.FirstOfKind(KindExifSubIFD)
	require.NotNil(t, sub)
	cases := map[string]string{
		"FNumber":          "f/2.8",
		"FocalLength":      "4.2 mm",
		"ExposureTime":     "1/60 sec",
		"ISOSpeedRatings":  "100",
		"DateTimeOriginal": "2024:05:06 07:08:09",
		"ExifVersion":      "2.31",
	}
	for name, want := range cases {
		got, ok := sub.Description(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	raw, _ := sub.RawValue("ExposureTime")
	assert.Equal(t, "1/60", raw)

	gps := doc.FirstOfKind(KindGPS)
	require.NotNil(t, gps)
	loc, ok := gps.GeoLocation()
	require.True(t, ok)
	assert.InDelta(t, 37.5, loc.Latitude, 1e-9)
	assert.InDelta(t, -122.25, loc.Longitude, 1e-9)
	lat, _ := gps.Description("GPSLatitude")
	assert.Equal(t, `37° 30' 0"`, lat)
	version, _ := gps.Description("GPSVersionID")
	assert.Equal(t, "2.2.0.0", version)
}

// TestReader_Read_GPSWithoutCoordinates는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_GPSWithoutCoordinates(t *testing.T) {
	// 좌표 태그가 없는 GPS 디렉터리는 존재하지만 위치는 비어 있어야 한다.
	tiff := fixture.TIFF{
		IFD0: []fixture.Entry{fixture.ASCII(0x010F, "Canon")},
		GPS:  []fixture.Entry{fixture.Bytes(0x0000, 2, 3, 0, 0)},
	}
	path := fixture.Write(t, t.TempDir(), "nogps.tiff", tiff.Bytes())

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)
	gps := doc.FirstOfKind(KindGPS)
	require.NotNil(t, gps)
	_, ok := gps.GeoLocation()
	assert.False(t, ok)
}

// TestReader_Read_DropsEmptyDirectories는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_DropsEmptyDirectories(t *testing.T) {
	// 태그가 하나도 없는 TIFF는 디렉터리 없이 성공해야 한다.
	path := fixture.Write(t, t.TempDir(), "empty.tiff", fixture.TIFF{}.Bytes())

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Directories())
	for _, d := range doc.Directories() {
		assert.NotZero(t, d.TagCount())
	}
}

// TestReader_Read_JPEGSegments는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_JPEGSegments(t *testing.T) {
	// JFIF/EXIF/XMP/COM/SOF 세그먼트가 파일 순서대로 디렉터리가 되어야 한다.
	packet := fixture.XMPPacket(fixture.Subjects("a", "b"))
	data := fixture.JPEG(
		fixture.JFIFSegment(),
		fixture.ExifSegment(sampleTIFF().Bytes()),
		fixture.XMPSegment(packet),
		fixture.CommentSegment("holiday"),
		fixture.SOF0Segment(640, 480),
	)
	path := fixture.Write(t, t.TempDir(), "photo.jpg", data)

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)

	var names []string
	for _, d := range doc.Directories() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"JFIF", "Exif IFD0", "Exif SubIFD", "GPS", "XMP", "JpegComment", "JPEG"}, names)

	jfif := doc.FirstOfKind(KindJFIF)
	version, _ := jfif.Description("Version")
	assert.Equal(t, "1.1", version)
	xres, _ := jfif.Description("X Resolution")
	assert.Equal(t, "72 dots", xres)

	jpeg := doc.FirstOfKind(KindJPEG)
	width, _ := jpeg.Description("Image Width")
	assert.Equal(t, "640 pixels", width)
	compression, _ := jpeg.Description("Compression Type")
	assert.Equal(t, "Baseline", compression)

	comment, _ := doc.FirstOfKind(KindJpegComment).Description("JPEG Comment")
	assert.Equal(t, "holiday", comment)

	xmpDir := doc.FirstOfKind(KindXMP)
	require.True(t, xmpDir.HasProperties())
	count, _ := xmpDir.Description("XMP Value Count")
	assert.Equal(t, "2", count)
}

// TestReader_Read_KeepsBrokenXMPDirectory는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_KeepsBrokenXMPDirectory(t *testing.T) {
	// 깨진 XMP 패킷이어도 디렉터리는 남고 트리 오류만 보관되어야 한다.
	data := fixture.JPEG(fixture.XMPSegment("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\"><rdf:RDF"))
	path := fixture.Write(t, t.TempDir(), "broken.jpg", data)

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)

	d := doc.FirstOfKind(KindXMP)
	require.NotNil(t, d)
	count, _ := d.Description("XMP Value Count")
	assert.Equal(t, "0", count)
	_, err = d.Properties()
	assert.ErrorIs(t, err, ErrInvalidProperties)
}

// TestReader_Read_XMPCountSkipsBlankValues는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_XMPCountSkipsBlankValues(t *testing.T) {
	// 공백만 있는 값은 XMP Value Count에 포함되지 않아야 한다.
	packet := fixture.XMPPacket(`<xmp:Label>   </xmp:Label><xmp:Rating>1</xmp:Rating>`)
	path := fixture.Write(t, t.TempDir(), "blank.jpg", fixture.JPEG(fixture.XMPSegment(packet)))

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)
	count, _ := doc.FirstOfKind(KindXMP).Description("XMP Value Count")
	assert.Equal(t, "1", count)
}

// TestReader_Read_PNGChunks는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_PNGChunks(t *testing.T) {
	// PNG의 IHDR/iTXt XMP/tEXt 청크를 읽어야 한다.
	data := fixture.PNG(
		fixture.IHDR(32, 16),
		fixture.XMPChunk(fixture.XMPPacket(fixture.Subjects("sea"))),
		fixture.TextChunk("Software", "gimp"),
	)
	path := fixture.Write(t, t.TempDir(), "image.png", data)

	doc, err := New(nil, false).Read(path)
	require.NoError(t, err)

	ihdr := doc.FirstOfKind(KindPNG)
	require.NotNil(t, ihdr)
	width, _ := ihdr.Description("Image Width")
	assert.Equal(t, "32", width)
	colorType, _ := ihdr.Description("Color Type")
	assert.Equal(t, "True Color", colorType)

	require.NotNil(t, doc.FirstOfKind(KindXMP))
	text := doc.FirstOfKind(KindPNGText)
	require.NotNil(t, text)
	software, _ := text.Description("Software")
	assert.Equal(t, "gimp", software)
}

// TestReader_Read_PermissionDenied는 테스트 코드 동작을 검증하거나 보조합니다.
func TestReader_Read_PermissionDenied(t *testing.T) {
	// 읽기 권한이 없는 파일은 ErrNotFound로 분류되어야 한다.
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	path := filepath.Join(t.TempDir(), "locked.jpg")
	require.NoError(t, os.WriteFile(path, fixture.JPEG(), 0000))

	_, err := New(nil, false).Read(path)
	assert.ErrorIs(t, err, ErrNotFound)
}
