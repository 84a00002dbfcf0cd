package metadata

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
)

const (
	maxPNGChunk  = 16 << 20
	xmpKeyword   = "XML:com.adobe.xmp"
	maxXMPPacket = 4 << 20
)

var pngColorTypes = map[byte]string{
	0: "Greyscale",
	2: "True Color",
	3: "Indexed Color",
	4: "Greyscale with Alpha",
	6: "True Color with Alpha",
}

// readPNG walks the chunk list until IEND. Image data is skipped.
func (b *builder) readPNG(br *bufio.Reader) error {
	if _, err := br.Discard(len(pngSignature)); err != nil {
		return truncatedError(err, "PNG")
	}

	text := NewDirectory(KindPNGText)
	defer func() { b.add(text) }()

	for {
		var head [8]byte
		if _, err := io.ReadFull(br, head[:]); err != nil {
			// a missing IEND is tolerated once IHDR was seen
			if len(b.dirs) > 0 && errors.Is(err, io.EOF) {
				return nil
			}
			return truncatedError(err, "PNG")
		}
		length := binary.BigEndian.Uint32(head[:4])
		typ := string(head[4:8])

		if length > maxPNGChunk || typ == "IDAT" {
			if _, err := br.Discard(int(length) + 4); err != nil {
				return truncatedError(err, "PNG")
			}
			continue
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(br, data); err != nil {
			return truncatedError(err, "PNG")
		}
		// crc
		if _, err := br.Discard(4); err != nil {
			return truncatedError(err, "PNG")
		}

		switch typ {
		case "IHDR":
			b.readIHDR(data)
		case "eXIf":
			if !b.exifed {
				b.readExif(trimExifHeader(data))
			}
		case "iTXt":
			b.readITXt(data)
		case "tEXt":
			if k, v, ok := bytes.Cut(data, []byte{0}); ok {
				text.Set(string(k), string(v), string(v))
			}
		case "IEND":
			return nil
		}
	}
}

func (b *builder) readIHDR(data []byte) {
	if len(data) < 13 {
		return
	}
	d := NewDirectory(KindPNG)
	width := strconv.FormatUint(uint64(binary.BigEndian.Uint32(data[0:4])), 10)
	height := strconv.FormatUint(uint64(binary.BigEndian.Uint32(data[4:8])), 10)
	d.Set("Image Width", width, width)
	d.Set("Image Height", height, height)

	depth := strconv.Itoa(int(data[8]))
	d.Set("Bits Per Sample", depth, depth)

	colorType := pngColorTypes[data[9]]
	if colorType == "" {
		colorType = "Unknown (" + strconv.Itoa(int(data[9])) + ")"
	}
	d.Set("Color Type", strconv.Itoa(int(data[9])), colorType)

	compression := "Deflate"
	if data[10] != 0 {
		compression = "Unknown (" + strconv.Itoa(int(data[10])) + ")"
	}
	d.Set("Compression Type", strconv.Itoa(int(data[10])), compression)

	filter := "Adaptive"
	if data[11] != 0 {
		filter = "Unknown (" + strconv.Itoa(int(data[11])) + ")"
	}
	d.Set("Filter Method", strconv.Itoa(int(data[11])), filter)

	interlace := "No Interlace"
	if data[12] == 1 {
		interlace = "Adam7 Interlace"
	}
	d.Set("Interlace Method", strconv.Itoa(int(data[12])), interlace)
	b.add(d)
}

// readITXt only cares about the XMP keyword:
// keyword\0 flag method lang\0 translated\0 text
func (b *builder) readITXt(data []byte) {
	keyword, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || string(keyword) != xmpKeyword || len(rest) < 2 {
		return
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return
	}
	if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
		return
	}
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(rest))
		if err != nil {
			b.logger.Warn(b.path, "compressed XMP chunk", err)
			return
		}
		defer zr.Close()
		inflated, err := io.ReadAll(io.LimitReader(zr, maxXMPPacket))
		if err != nil {
			b.logger.Warn(b.path, "compressed XMP chunk", err)
			return
		}
		rest = inflated
	}
	b.readXMP(rest)
}
