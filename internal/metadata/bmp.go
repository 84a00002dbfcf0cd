package metadata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

const (
	bmpFileHeader = 14
	bmpCoreHeader = 12
	bmpInfoHeader = 40
	bmpMaxHeader  = 124
)

var bmpCompression = map[uint32]string{
	0: "None",
	1: "RLE 8-bit/pixel",
	2: "RLE 4-bit/pixel",
	3: "Bit Fields",
	4: "JPEG",
	5: "PNG",
	6: "Alpha Bit Fields",
}

// readBMP reads the DIB header behind the 14-byte file header. "BM" alone is
// a weak signature, so an unknown header size rejects the file.
func (b *builder) readBMP(br *bufio.Reader) error {
	var head [bmpFileHeader + 4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return truncatedError(err, "BMP")
	}
	size := binary.LittleEndian.Uint32(head[bmpFileHeader:])
	if size != bmpCoreHeader && (size < bmpInfoHeader || size > bmpMaxHeader) {
		return fmt.Errorf("%w: BMP header size %d", ErrUnreadableFormat, size)
	}
	dib := make([]byte, size-4)
	if _, err := io.ReadFull(br, dib); err != nil {
		return truncatedError(err, "BMP")
	}

	d := NewDirectory(KindBMP)
	setUint(d, "Header Size", size)
	if size == bmpCoreHeader {
		d.Set("Image Width", itoa16(dib[0:]), itoa16(dib[0:]))
		d.Set("Image Height", itoa16(dib[2:]), itoa16(dib[2:]))
		d.Set("Planes", itoa16(dib[4:]), itoa16(dib[4:]))
		d.Set("Bits Per Pixel", itoa16(dib[6:]), itoa16(dib[6:]))
		b.add(d)
		return nil
	}

	width := strconv.Itoa(int(int32(binary.LittleEndian.Uint32(dib[0:]))))
	height := strconv.Itoa(int(int32(binary.LittleEndian.Uint32(dib[4:]))))
	d.Set("Image Width", width, width)
	d.Set("Image Height", height, height)
	d.Set("Planes", itoa16(dib[8:]), itoa16(dib[8:]))
	d.Set("Bits Per Pixel", itoa16(dib[10:]), itoa16(dib[10:]))

	comp := binary.LittleEndian.Uint32(dib[12:])
	desc, ok := bmpCompression[comp]
	if !ok {
		desc = "Unknown (" + strconv.FormatUint(uint64(comp), 10) + ")"
	}
	d.Set("Compression", strconv.FormatUint(uint64(comp), 10), desc)

	setUint(d, "Image Size", binary.LittleEndian.Uint32(dib[16:]))
	setUint(d, "X Pixels per Meter", binary.LittleEndian.Uint32(dib[20:]))
	setUint(d, "Y Pixels per Meter", binary.LittleEndian.Uint32(dib[24:]))
	setUint(d, "Palette Colour Count", binary.LittleEndian.Uint32(dib[28:]))
	setUint(d, "Important Colour Count", binary.LittleEndian.Uint32(dib[32:]))
	b.add(d)
	return nil
}

func setUint(d *Directory, name string, v uint32) {
	s := strconv.FormatUint(uint64(v), 10)
	d.Set(name, s, s)
}

func itoa16(p []byte) string {
	return strconv.Itoa(int(binary.LittleEndian.Uint16(p)))
}
