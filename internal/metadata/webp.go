package metadata

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
)

const maxRIFFChunk = 16 << 20

// readWebP walks the RIFF chunks after the 12-byte "RIFF....WEBP" header.
// Bitstream chunks only contribute the canvas size.
func (b *builder) readWebP(br *bufio.Reader) error {
	if _, err := br.Discard(12); err != nil {
		return truncatedError(err, "WebP")
	}

	d := NewDirectory(KindWebP)
	defer func() { b.add(d) }()
	sized := false

	for {
		var head [8]byte
		if _, err := io.ReadFull(br, head[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return truncatedError(err, "WebP")
		}
		fourCC := string(head[:4])
		size := binary.LittleEndian.Uint32(head[4:])
		padded := int64(size) + int64(size&1)

		wanted := fourCC == "VP8X" || fourCC == "VP8 " || fourCC == "VP8L" || fourCC == "EXIF" || fourCC == "XMP "
		if !wanted || size > maxRIFFChunk {
			if _, err := br.Discard(int(padded)); err != nil {
				return truncatedError(err, "WebP")
			}
			continue
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return truncatedError(err, "WebP")
		}
		if size&1 == 1 {
			// the pad byte may be missing on the last chunk
			_, _ = br.Discard(1)
		}

		switch fourCC {
		case "VP8X":
			sized = webpVP8X(d, data) || sized
		case "VP8 ":
			if !sized {
				sized = webpVP8(d, data)
			}
		case "VP8L":
			if !sized {
				sized = webpVP8L(d, data)
			}
		case "EXIF":
			if !b.exifed {
				b.readExif(trimExifHeader(data))
			}
		case "XMP ":
			b.readXMP(data)
		}
	}
}

func setDimensions(d *Directory, width, height uint32) {
	w := strconv.FormatUint(uint64(width), 10)
	h := strconv.FormatUint(uint64(height), 10)
	d.Set("Image Width", w, w)
	d.Set("Image Height", h, h)
}

func setFlag(d *Directory, name string, on bool) {
	v := strconv.FormatBool(on)
	d.Set(name, v, v)
}

// webpVP8X reads the extended header: flags, then 24-bit canvas size minus one.
func webpVP8X(d *Directory, data []byte) bool {
	if len(data) < 10 {
		return false
	}
	flags := data[0]
	setFlag(d, "Has Alpha", flags&0x10 != 0)
	setFlag(d, "Is Animation", flags&0x02 != 0)
	width := uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16
	height := uint32(data[7]) | uint32(data[8])<<8 | uint32(data[9])<<16
	setDimensions(d, width+1, height+1)
	return true
}

// webpVP8 reads a lossy key frame header: 3-byte frame tag, start code, then
// 14-bit width and height.
func webpVP8(d *Directory, data []byte) bool {
	if len(data) < 10 || data[3] != 0x9D || data[4] != 0x01 || data[5] != 0x2A {
		return false
	}
	width := uint32(binary.LittleEndian.Uint16(data[6:]) & 0x3FFF)
	height := uint32(binary.LittleEndian.Uint16(data[8:]) & 0x3FFF)
	setDimensions(d, width, height)
	return true
}

// webpVP8L reads a lossless header: signature 0x2F, then 14-bit width and
// height minus one and the alpha hint.
func webpVP8L(d *Directory, data []byte) bool {
	if len(data) < 5 || data[0] != 0x2F {
		return false
	}
	bits := binary.LittleEndian.Uint32(data[1:5])
	setDimensions(d, bits&0x3FFF+1, (bits>>14)&0x3FFF+1)
	setFlag(d, "Has Alpha", bits&(1<<28) != 0)
	return true
}
