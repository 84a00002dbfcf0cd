// Package fixture builds small in-memory image files for tests.
package fixture

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// TIFF field types.
const (
	TypeByte      uint16 = 1
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
)

const (
	tagExifPointer = 0x8769
	tagGPSPointer  = 0x8825
)

// Entry is one IFD entry with its encoded little-endian value.
type Entry struct {
	ID    uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func ASCII(id uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{ID: id, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

func Short(id uint16, vals ...uint16) Entry {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return Entry{ID: id, Type: TypeShort, Count: uint32(len(vals)), Data: b}
}

func Long(id uint16, vals ...uint32) Entry {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return Entry{ID: id, Type: TypeLong, Count: uint32(len(vals)), Data: b}
}

// Rational takes numerator/denominator pairs.
func Rational(id uint16, pairs ...uint32) Entry {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return Entry{ID: id, Type: TypeRational, Count: uint32(len(pairs) / 2), Data: b}
}

func Undefined(id uint16, data []byte) Entry {
	return Entry{ID: id, Type: TypeUndefined, Count: uint32(len(data)), Data: data}
}

func Bytes(id uint16, data ...byte) Entry {
	return Entry{ID: id, Type: TypeByte, Count: uint32(len(data)), Data: data}
}

// TIFF is a little-endian TIFF with optional Exif and GPS sub-IFDs.
type TIFF struct {
	IFD0 []Entry
	Exif []Entry
	GPS  []Entry
}

func ifdSize(entries []Entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Data) > 4 {
			n += len(e.Data) + len(e.Data)%2
		}
	}
	return n
}

func writeIFD(entries []Entry, offset int) []byte {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	head := make([]byte, 2+12*len(sorted)+4)
	binary.LittleEndian.PutUint16(head, uint16(len(sorted)))
	dataOffset := offset + len(head)
	var data []byte
	for i, e := range sorted {
		p := head[2+12*i:]
		binary.LittleEndian.PutUint16(p[0:], e.ID)
		binary.LittleEndian.PutUint16(p[2:], e.Type)
		binary.LittleEndian.PutUint32(p[4:], e.Count)
		if len(e.Data) <= 4 {
			copy(p[8:12], e.Data)
			continue
		}
		binary.LittleEndian.PutUint32(p[8:], uint32(dataOffset+len(data)))
		data = append(data, e.Data...)
		if len(e.Data)%2 == 1 {
			data = append(data, 0)
		}
	}
	return append(head, data...)
}

// Bytes lays out IFD0 at offset 8 followed by the sub-IFDs.
func (t TIFF) Bytes() []byte {
	ifd0 := append([]Entry(nil), t.IFD0...)
	if t.Exif != nil {
		ifd0 = append(ifd0, Long(tagExifPointer, 0))
	}
	if t.GPS != nil {
		ifd0 = append(ifd0, Long(tagGPSPointer, 0))
	}
	exifOffset := 8 + ifdSize(ifd0)
	gpsOffset := exifOffset
	if t.Exif != nil {
		gpsOffset += ifdSize(t.Exif)
	}
	for i, e := range ifd0 {
		switch e.ID {
		case tagExifPointer:
			ifd0[i] = Long(tagExifPointer, uint32(exifOffset))
		case tagGPSPointer:
			ifd0[i] = Long(tagGPSPointer, uint32(gpsOffset))
		}
	}

	out := []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}
	out = append(out, writeIFD(ifd0, 8)...)
	if t.Exif != nil {
		out = append(out, writeIFD(t.Exif, exifOffset)...)
	}
	if t.GPS != nil {
		out = append(out, writeIFD(t.GPS, gpsOffset)...)
	}
	return out
}

// Segment is one JPEG marker segment.
type Segment struct {
	Marker byte
	Data   []byte
}

func ExifSegment(tiff []byte) Segment {
	return Segment{Marker: 0xE1, Data: append([]byte("Exif\x00\x00"), tiff...)}
}

func XMPSegment(packet string) Segment {
	return Segment{Marker: 0xE1, Data: append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...)}
}

func CommentSegment(text string) Segment {
	return Segment{Marker: 0xFE, Data: []byte(text)}
}

// JFIFSegment is version 1.1, 72x72 dpi.
func JFIFSegment() Segment {
	return Segment{Marker: 0xE0, Data: []byte{'J', 'F', 'I', 'F', 0, 1, 1, 1, 0, 72, 0, 72, 0, 0}}
}

// SOF0Segment is a baseline frame header with three components.
func SOF0Segment(width, height uint16) Segment {
	d := []byte{8, 0, 0, 0, 0, 3, 1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1}
	binary.BigEndian.PutUint16(d[1:], height)
	binary.BigEndian.PutUint16(d[3:], width)
	return Segment{Marker: 0xC0, Data: d}
}

// JPEG writes SOI, the segments, an empty scan and EOI.
func JPEG(segments ...Segment) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, 0xFF, s.Marker)
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(s.Data)+2))
		out = append(out, l[:]...)
		out = append(out, s.Data...)
	}
	out = append(out, 0xFF, 0xDA, 0x00, 0x02, 0xFF, 0xD9)
	return out
}

// Chunk is one PNG chunk.
type Chunk struct {
	Type string
	Data []byte
}

func IHDR(width, height uint32) Chunk {
	d := make([]byte, 13)
	binary.BigEndian.PutUint32(d[0:], width)
	binary.BigEndian.PutUint32(d[4:], height)
	d[8] = 8
	d[9] = 2
	return Chunk{Type: "IHDR", Data: d}
}

// XMPChunk is an uncompressed iTXt chunk holding an XMP packet.
func XMPChunk(packet string) Chunk {
	d := []byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00")
	return Chunk{Type: "iTXt", Data: append(d, packet...)}
}

func TextChunk(keyword, text string) Chunk {
	return Chunk{Type: "tEXt", Data: []byte(keyword + "\x00" + text)}
}

// PNG writes the signature, the chunks, one IDAT and IEND.
func PNG(chunks ...Chunk) []byte {
	out := []byte("\x89PNG\r\n\x1a\n")
	chunks = append(chunks, Chunk{Type: "IDAT", Data: []byte{0x78, 0x9C, 0x03, 0x00}}, Chunk{Type: "IEND"})
	for _, c := range chunks {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(c.Data)))
		out = append(out, l[:]...)
		body := append([]byte(c.Type), c.Data...)
		out = append(out, body...)
		var crc [4]byte
		binary.BigEndian.PutUint32(crc[:], crc32.ChecksumIEEE(body))
		out = append(out, crc[:]...)
	}
	return out
}

// XMPPacket wraps rdf:Description children in a complete packet.
func XMPPacket(description string) string {
	return `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
		`<x:xmpmeta xmlns:x="adobe:ns:meta/">` +
		`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:xmp="http://ns.adobe.com/xap/1.0/">` +
		description +
		`</rdf:Description></rdf:RDF></x:xmpmeta><?xpacket end="w"?>`
}

// Subjects is a dc:subject bag with the given items.
func Subjects(items ...string) string {
	s := `<dc:subject><rdf:Bag>`
	for _, it := range items {
		s += `<rdf:li>` + it + `</rdf:li>`
	}
	return s + `</rdf:Bag></dc:subject>`
}

// Write stores data under dir and returns the path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}
