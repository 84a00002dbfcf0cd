package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Panasonic RW2 keeps a full JPEG preview, EXIF included, in IFD0.
	tagRW2JpgFromRaw = 0x002E

	rafHeaderSize = 92
)

// readRawTIFF reads ORF and RW2 files. Both are TIFF apart from the magic
// number, which is rewritten to 42 before decoding.
func (b *builder) readRawTIFF(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: truncated raw header", ErrUnreadableFormat)
	}
	patched := append([]byte(nil), data...)
	var order binary.ByteOrder = binary.LittleEndian
	if patched[0] == 'M' {
		order = binary.BigEndian
	}
	order.PutUint16(patched[2:], 42)

	if preview := ifd0Value(patched, order, tagRW2JpgFromRaw); len(preview) > 0 {
		if err := b.readJPEG(bufio.NewReader(bytes.NewReader(preview))); err == nil && b.exifed {
			return nil
		}
		b.dirs = nil
		b.exifed = false
	}
	return b.readTIFF(patched)
}

// ifd0Value returns the bytes of one IFD0 entry, or nil when the entry is
// missing or out of bounds.
func ifd0Value(data []byte, order binary.ByteOrder, tag uint16) []byte {
	w := newIFDWalker(data, order)
	entries, _, err := w.dir(order.Uint32(data[4:8]))
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.id == tag {
			return w.value(e)
		}
	}
	return nil
}

// readRAF reads the JPEG preview a Fujifilm RAF file points to from its
// header: big-endian offset at 84 and length at 88.
func (b *builder) readRAF(br *bufio.Reader) error {
	var head [rafHeaderSize]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return truncatedError(err, "RAF")
	}
	offset := binary.BigEndian.Uint32(head[84:])
	length := binary.BigEndian.Uint32(head[88:])
	if offset < rafHeaderSize || length == 0 {
		return fmt.Errorf("%w: RAF preview at %d (%d bytes)", ErrUnreadableFormat, offset, length)
	}
	if _, err := br.Discard(int(offset - rafHeaderSize)); err != nil {
		return truncatedError(err, "RAF")
	}
	return b.readJPEG(bufio.NewReader(io.LimitReader(br, int64(length))))
}
