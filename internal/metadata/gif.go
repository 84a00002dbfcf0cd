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
	gifExtension  = 0x21
	gifImage      = 0x2C
	gifTrailer    = 0x3B
	gifComment    = 0xFE
	gifAppExt     = 0xFF
	gifXMPAppCode = "XMP DataXMP"
)

// readGIF reads the logical screen descriptor, then walks the blocks for
// comment and XMP application extensions. Image data is skipped.
func (b *builder) readGIF(br *bufio.Reader) error {
	var head [13]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return truncatedError(err, "GIF")
	}
	b.gifHeader(head[:])

	packed := head[10]
	if packed&0x80 != 0 {
		if _, err := br.Discard(3 << ((packed & 0x07) + 1)); err != nil {
			return nil
		}
	}

	for {
		block, err := br.ReadByte()
		if err != nil {
			// header already read; trailing truncation keeps what was found
			return nil
		}
		switch block {
		case gifTrailer:
			return nil
		case gifImage:
			if err := skipGIFImage(br); err != nil {
				return nil
			}
		case gifExtension:
			if err := b.gifExtension(br); err != nil {
				return nil
			}
		default:
			b.logger.Debug("unknown GIF block", map[string]string{"path": b.path, "block": fmt.Sprintf("0x%02X", block)})
			return nil
		}
	}
}

func (b *builder) gifHeader(head []byte) {
	d := NewDirectory(KindGIF)
	version := string(head[3:6])
	d.Set("GIF Format Version", version, version)
	setDimensions(d, uint32(binary.LittleEndian.Uint16(head[6:])), uint32(binary.LittleEndian.Uint16(head[8:])))

	packed := head[10]
	hasTable := packed&0x80 != 0
	setFlag(d, "Has Global Color Table", hasTable)
	if hasTable {
		size := strconv.Itoa(1 << ((packed & 0x07) + 1))
		d.Set("Color Table Size", size, size)
		setFlag(d, "Is Color Table Sorted", packed&0x08 != 0)
	}
	bpp := strconv.Itoa(int((packed>>4)&0x07) + 1)
	d.Set("Bits per Pixel", bpp, bpp)

	bg := strconv.Itoa(int(head[11]))
	d.Set("Background Color Index", bg, bg)
	if head[12] != 0 {
		ratio := (float64(head[12]) + 15) / 64
		d.Set("Pixel Aspect Ratio", strconv.Itoa(int(head[12])), strconv.FormatFloat(ratio, 'f', -1, 64))
	}
	b.add(d)
}

func (b *builder) gifExtension(br *bufio.Reader) error {
	label, err := br.ReadByte()
	if err != nil {
		return err
	}
	switch label {
	case gifComment:
		text, err := readSubBlocks(br, false)
		if err != nil {
			return err
		}
		d := NewDirectory(KindGIFComment)
		comment := string(text)
		d.Set("Comment", comment, comment)
		b.add(d)
		return nil
	case gifAppExt:
		n, err := br.ReadByte()
		if err != nil {
			return err
		}
		app := make([]byte, n)
		if _, err := io.ReadFull(br, app); err != nil {
			return err
		}
		if string(app) != gifXMPAppCode {
			return skipSubBlocks(br)
		}
		// the packet is stored raw; its bytes double as sub-block lengths
		raw, err := readSubBlocks(br, true)
		if err != nil {
			return err
		}
		if packet := trimGIFXMP(raw); packet != nil {
			b.readXMP(packet)
		}
		return nil
	default:
		return skipSubBlocks(br)
	}
}

func skipSubBlocks(br *bufio.Reader) error {
	for {
		n, err := br.ReadByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := br.Discard(int(n)); err != nil {
			return err
		}
	}
}

// readSubBlocks consumes length-prefixed sub-blocks up to the zero
// terminator. With keepLengths the length bytes stay in the output. Data
// beyond maxXMPPacket is dropped.
func readSubBlocks(br *bufio.Reader, keepLengths bool) ([]byte, error) {
	var out []byte
	for {
		n, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		if len(out) >= maxXMPPacket {
			if _, err := br.Discard(int(n)); err != nil {
				return nil, err
			}
			continue
		}
		if keepLengths {
			out = append(out, n)
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}

// trimGIFXMP cuts the magic trailer off a raw XMP application extension.
func trimGIFXMP(raw []byte) []byte {
	if i := bytes.LastIndex(raw, []byte("<?xpacket end")); i >= 0 {
		if j := bytes.Index(raw[i:], []byte("?>")); j >= 0 {
			return raw[:i+j+2]
		}
	}
	const closing = "</x:xmpmeta>"
	if i := bytes.LastIndex(raw, []byte(closing)); i >= 0 {
		return raw[:i+len(closing)]
	}
	return nil
}

func skipGIFImage(br *bufio.Reader) error {
	var desc [9]byte
	if _, err := io.ReadFull(br, desc[:]); err != nil {
		return err
	}
	if desc[8]&0x80 != 0 {
		if _, err := br.Discard(3 << ((desc[8] & 0x07) + 1)); err != nil {
			return err
		}
	}
	// LZW minimum code size
	if _, err := br.ReadByte(); err != nil {
		return err
	}
	return skipSubBlocks(br)
}
