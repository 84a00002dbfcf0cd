package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCorruptExif marks an EXIF block whose IFD entries cannot be decoded
// safely. goexif sizes its value slices from the declared count before it
// checks the bytes, so such blocks are refused up front.
var ErrCorruptExif = errors.New("metadata: corrupt EXIF structure")

const (
	tagExifIFD    = 0x8769
	tagGPSIFD     = 0x8825
	tagInteropIFD = 0xA005
	tagMake       = 0x010F
	tagMakerNote  = 0x927C
)

// tiffTypeSizes is indexed by TIFF data type 1..12.
var tiffTypeSizes = [...]uint64{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

var nikonPrefix = []byte("Nikon\x00")

type ifdEntry struct {
	id    uint16
	typ   uint16
	count uint32
	// field holds the raw 4-byte value/offset field.
	field []byte
}

func (e ifdEntry) knownType() bool {
	return e.typ > 0 && int(e.typ) < len(tiffTypeSizes)
}

type ifdResult struct {
	entries []ifdEntry
	next    uint32
}

type ifdWalker struct {
	data  []byte
	order binary.ByteOrder
	// done caches IFDs by offset; the chain and sub-IFDs may share one.
	done map[uint32]ifdResult
}

func newIFDWalker(data []byte, order binary.ByteOrder) *ifdWalker {
	return &ifdWalker{data: data, order: order, done: make(map[uint32]ifdResult)}
}

// checkExif walks every IFD goexif will visit (the IFD chain, the Exif, GPS
// and Interoperability sub-IFDs and maker notes) and fails on the first
// entry whose value size overflows or runs past the block, or on an IFD
// chain that loops.
func checkExif(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: %d-byte block", ErrCorruptExif, len(data))
	}
	switch string(data[:4]) {
	case "II*\x00", "MM\x00*":
	default:
		// goexif would go on to scan the bytes for a JPEG APP1 segment
		return fmt.Errorf("%w: no TIFF header", ErrCorruptExif)
	}
	return checkTIFFChain(data, true)
}

func checkTIFFChain(data []byte, subDirs bool) error {
	if len(data) < 8 {
		return nil
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil
	}

	w := newIFDWalker(data, order)
	chain := make(map[uint32]bool)
	off := order.Uint32(data[4:8])
	for first := true; off != 0; first = false {
		if chain[off] {
			return fmt.Errorf("%w: IFD chain loops at offset %d", ErrCorruptExif, off)
		}
		chain[off] = true
		entries, next, err := w.dir(off)
		if err != nil {
			return err
		}
		if first && subDirs {
			if err := w.subDirs(entries); err != nil {
				return err
			}
		}
		off = next
	}
	return nil
}

// dir reads one IFD. Offsets outside the block yield no entries; goexif
// reports those itself without allocating.
func (w *ifdWalker) dir(off uint32) ([]ifdEntry, uint32, error) {
	if r, ok := w.done[off]; ok {
		return r.entries, r.next, nil
	}
	entries, next, err := w.readDir(off)
	if err != nil {
		return nil, 0, err
	}
	w.done[off] = ifdResult{entries: entries, next: next}
	return entries, next, nil
}

func (w *ifdWalker) readDir(off uint32) ([]ifdEntry, uint32, error) {
	start := uint64(off)
	if start+2 > uint64(len(w.data)) {
		return nil, 0, nil
	}
	n := int16(w.order.Uint16(w.data[start:]))
	var entries []ifdEntry
	pos := start + 2
	for i := 0; i < int(n); i++ {
		if pos+12 > uint64(len(w.data)) {
			return entries, 0, nil
		}
		e := ifdEntry{
			id:    w.order.Uint16(w.data[pos:]),
			typ:   w.order.Uint16(w.data[pos+2:]),
			count: w.order.Uint32(w.data[pos+4:]),
			field: w.data[pos+8 : pos+12],
		}
		if err := w.checkEntry(e); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
		pos += 12
	}
	if pos+4 > uint64(len(w.data)) {
		return entries, 0, nil
	}
	return entries, w.order.Uint32(w.data[pos:]), nil
}

func (w *ifdWalker) checkEntry(e ifdEntry) error {
	if !e.knownType() {
		return nil
	}
	size := tiffTypeSizes[e.typ] * uint64(e.count)
	if size > uint64(len(w.data)) {
		return fmt.Errorf("%w: tag 0x%04X declares %d values of type %d", ErrCorruptExif, e.id, e.count, e.typ)
	}
	if size > 4 && uint64(w.order.Uint32(e.field))+size > uint64(len(w.data)) {
		return fmt.Errorf("%w: tag 0x%04X value runs past the block", ErrCorruptExif, e.id)
	}
	return nil
}

// value returns the bytes of an entry already accepted by checkEntry.
func (w *ifdWalker) value(e ifdEntry) []byte {
	if !e.knownType() {
		return nil
	}
	size := tiffTypeSizes[e.typ] * uint64(e.count)
	if size <= 4 {
		return e.field[:size]
	}
	off := uint64(w.order.Uint32(e.field))
	return w.data[off : off+size]
}

// pointer reads the first value of an integer entry the way goexif resolves
// sub-IFD offsets. Other types and negative values are not followed.
func (w *ifdWalker) pointer(e ifdEntry) (uint32, bool) {
	v := w.value(e)
	switch {
	case len(v) == 0:
		return 0, false
	case e.typ == 1:
		return uint32(v[0]), true
	case e.typ == 6 && int8(v[0]) >= 0:
		return uint32(v[0]), true
	case e.typ == 3:
		return uint32(w.order.Uint16(v)), true
	case e.typ == 8 && int16(w.order.Uint16(v)) >= 0:
		return uint32(w.order.Uint16(v)), true
	case e.typ == 4:
		return w.order.Uint32(v), true
	case e.typ == 9 && int32(w.order.Uint32(v)) >= 0:
		return w.order.Uint32(v), true
	}
	return 0, false
}

func (w *ifdWalker) follow(e ifdEntry) ([]ifdEntry, error) {
	off, ok := w.pointer(e)
	if !ok {
		return nil, nil
	}
	entries, _, err := w.dir(off)
	return entries, err
}

// subDirs checks what goexif loads through IFD0: the Exif IFD, then the GPS
// and Interoperability IFDs and the maker note, whose tags may sit in IFD0
// or the Exif IFD.
func (w *ifdWalker) subDirs(ifd0 []ifdEntry) error {
	main := ifd0
	for _, e := range ifd0 {
		if e.id != tagExifIFD {
			continue
		}
		exifDir, err := w.follow(e)
		if err != nil {
			return err
		}
		main = append(main[:len(main):len(main)], exifDir...)
	}

	var cameraMake string
	var notes []ifdEntry
	for _, e := range main {
		switch e.id {
		case tagGPSIFD, tagInteropIFD:
			if _, err := w.follow(e); err != nil {
				return err
			}
		case tagMake:
			cameraMake = string(bytes.TrimRight(w.value(e), "\x00 "))
		case tagMakerNote:
			notes = append(notes, e)
		}
	}
	if !makerNotesOn.Load() {
		return nil
	}
	for _, e := range notes {
		if err := w.makerNote(e, cameraMake); err != nil {
			return err
		}
	}
	return nil
}

// makerNote mirrors what the registered maker-note parsers decode: a bare
// IFD for Canon, an embedded TIFF for Nikon type 3. Notes shorter than the
// Nikon parser's header are refused too.
func (w *ifdWalker) makerNote(e ifdEntry, cameraMake string) error {
	if !e.knownType() {
		return nil
	}
	val := w.value(e)
	if len(val) < len(nikonPrefix) {
		return fmt.Errorf("%w: maker note of %d bytes", ErrCorruptExif, len(val))
	}
	if bytes.HasPrefix(val, nikonPrefix) {
		if len(val) < 10 {
			return fmt.Errorf("%w: truncated Nikon maker note", ErrCorruptExif)
		}
		return checkTIFFChain(val[10:], false)
	}
	if cameraMake == "Canon" && len(val) > 4 {
		off := w.order.Uint32(e.field)
		canon := newIFDWalker(w.data[:uint64(off)+uint64(len(val))], w.order)
		_, _, err := canon.dir(off)
		return err
	}
	return nil
}
