package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	markerCOM  = 0xFE
)

var (
	exifPrefix = []byte("Exif\x00\x00")
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jfifPrefix = []byte("JFIF\x00")
)

var sofCompression = map[byte]string{
	0xC0: "Baseline",
	0xC1: "Extended sequential, Huffman",
	0xC2: "Progressive, Huffman",
	0xC3: "Lossless, Huffman",
	0xC5: "Differential sequential, Huffman",
	0xC6: "Differential progressive, Huffman",
	0xC7: "Differential lossless, Huffman",
	0xC9: "Extended sequential, arithmetic",
	0xCA: "Progressive, arithmetic",
	0xCB: "Lossless, arithmetic",
	0xCD: "Differential sequential, arithmetic",
	0xCE: "Differential progressive, arithmetic",
	0xCF: "Differential lossless, arithmetic",
}

// readJPEG walks the marker segments up to the start of scan.
func (b *builder) readJPEG(br *bufio.Reader) error {
	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil {
		return truncatedError(err, "JPEG")
	}
	if soi[0] != 0xFF || soi[1] != markerSOI {
		return fmt.Errorf("%w: missing JPEG SOI marker", ErrUnreadableFormat)
	}

	for {
		marker, err := nextMarker(br)
		if err != nil {
			return truncatedError(err, "JPEG")
		}
		if marker == markerEOI || marker == markerSOS {
			return nil
		}
		// standalone markers carry no length
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}

		var lenBuf [2]byte
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return truncatedError(err, "JPEG")
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if segLen < 0 {
			return fmt.Errorf("%w: invalid JPEG segment length for marker 0x%02X", ErrUnreadableFormat, marker)
		}
		data := make([]byte, segLen)
		if _, err := io.ReadFull(br, data); err != nil {
			return truncatedError(err, "JPEG")
		}

		b.jpegSegment(marker, data)
	}
}

func nextMarker(br *bufio.Reader) (byte, error) {
	c, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if c != 0xFF {
		return 0, fmt.Errorf("%w: expected JPEG marker, got 0x%02X", ErrUnreadableFormat, c)
	}
	// fill bytes
	for c == 0xFF {
		if c, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return c, nil
}

func (b *builder) jpegSegment(marker byte, data []byte) {
	switch {
	case marker == markerAPP0 && bytes.HasPrefix(data, jfifPrefix):
		b.readJFIF(data[len(jfifPrefix):])
	case marker == markerAPP1 && bytes.HasPrefix(data, exifPrefix):
		if b.exifed {
			return
		}
		b.readExif(data[len(exifPrefix):])
	case marker == markerAPP1 && bytes.HasPrefix(data, xmpPrefix):
		b.readXMP(data[len(xmpPrefix):])
	case marker == markerCOM:
		d := NewDirectory(KindJpegComment)
		comment := string(bytes.TrimRight(data, "\x00"))
		d.Set("JPEG Comment", comment, comment)
		b.add(d)
	default:
		if comp, ok := sofCompression[marker]; ok {
			b.readSOF(comp, data)
		}
	}
}

func (b *builder) readSOF(compression string, data []byte) {
	d := NewDirectory(KindJPEG)
	d.Set("Compression Type", compression, compression)
	if len(data) >= 6 {
		precision := strconv.Itoa(int(data[0]))
		height := strconv.Itoa(int(binary.BigEndian.Uint16(data[1:3])))
		width := strconv.Itoa(int(binary.BigEndian.Uint16(data[3:5])))
		components := strconv.Itoa(int(data[5]))
		d.Set("Data Precision", precision, precision+" bits")
		d.Set("Image Height", height, height+" pixels")
		d.Set("Image Width", width, width+" pixels")
		d.Set("Number of Components", components, components)
	}
	b.add(d)
}

var jfifUnits = map[byte]string{
	0: "none",
	1: "inch",
	2: "centimetre",
}

func (b *builder) readJFIF(data []byte) {
	if len(data) < 7 {
		return
	}
	d := NewDirectory(KindJFIF)
	version := fmt.Sprintf("%d.%d", data[0], data[1])
	d.Set("Version", version, version)

	units := jfifUnits[data[2]]
	if units == "" {
		units = "unit"
	}
	d.Set("Resolution Units", strconv.Itoa(int(data[2])), units)

	x := strconv.Itoa(int(binary.BigEndian.Uint16(data[3:5])))
	y := strconv.Itoa(int(binary.BigEndian.Uint16(data[5:7])))
	d.Set("X Resolution", x, x+" dots")
	d.Set("Y Resolution", y, y+" dots")
	b.add(d)
}
