package metadata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	xmpContentType = "application/rdf+xml"
	maxHEIFItem    = 64 << 20
)

// isoBox is one ISO base media box with the header stripped.
type isoBox struct {
	typ  string
	body []byte
}

// isoBoxes splits data into boxes. A box running past the end stops the walk.
func isoBoxes(data []byte) []isoBox {
	var boxes []isoBox
	for len(data) >= 8 {
		size := uint64(binary.BigEndian.Uint32(data))
		typ := string(data[4:8])
		header := uint64(8)
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < 16 {
				return boxes
			}
			size = binary.BigEndian.Uint64(data[8:])
			header = 16
		}
		if size < header || size > uint64(len(data)) {
			return boxes
		}
		boxes = append(boxes, isoBox{typ: typ, body: data[header:size]})
		data = data[size:]
	}
	return boxes
}

func findBox(boxes []isoBox, typ string) (isoBox, bool) {
	for _, b := range boxes {
		if b.typ == typ {
			return b, true
		}
	}
	return isoBox{}, false
}

// cursor reads big-endian fields and latches the first overrun.
type cursor struct {
	buf []byte
	bad bool
}

func (c *cursor) take(n int) []byte {
	if c.bad || n > len(c.buf) {
		c.bad = true
		return make([]byte, n)
	}
	p := c.buf[:n]
	c.buf = c.buf[n:]
	return p
}

func (c *cursor) u8() uint8   { return c.take(1)[0] }
func (c *cursor) u16() uint16 { return binary.BigEndian.Uint16(c.take(2)) }
func (c *cursor) u32() uint32 { return binary.BigEndian.Uint32(c.take(4)) }
func (c *cursor) u64() uint64 { return binary.BigEndian.Uint64(c.take(8)) }

// sized reads an n-byte field, n being 0, 4 or 8 (2 also appears for ids).
func (c *cursor) sized(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 2:
		return uint64(c.u16())
	case 4:
		return uint64(c.u32())
	case 8:
		return c.u64()
	default:
		c.bad = true
		return 0
	}
}

func (c *cursor) cstring() string {
	if c.bad {
		return ""
	}
	for i, v := range c.buf {
		if v == 0 {
			s := string(c.buf[:i])
			c.buf = c.buf[i+1:]
			return s
		}
	}
	s := string(c.buf)
	c.buf = nil
	return s
}

// fullBox splits the version and flags off a full box body.
func fullBox(body []byte) (version uint8, flags uint32, rest []byte, ok bool) {
	if len(body) < 4 {
		return 0, 0, nil, false
	}
	return body[0], binary.BigEndian.Uint32(body) & 0xFFFFFF, body[4:], true
}

type heifItem struct {
	id          uint32
	typ         string
	contentType string
}

type heifExtent struct {
	offset, length uint64
}

type heifLocation struct {
	method  uint16
	base    uint64
	extents []heifExtent
}

// readHEIF reads the brand, the primary item's size and rotation and the
// Exif and XMP items of a HEIF/HEIC/AVIF file held in data.
func (b *builder) readHEIF(data []byte) error {
	top := isoBoxes(data)
	ftyp, ok := findBox(top, "ftyp")
	if !ok || len(ftyp.body) < 8 {
		return fmt.Errorf("%w: missing ftyp box", ErrUnreadableFormat)
	}

	d := NewDirectory(KindHEIF)
	major := string(ftyp.body[:4])
	d.Set("Major Brand", major, major)
	minor := strconv.FormatUint(uint64(binary.BigEndian.Uint32(ftyp.body[4:])), 10)
	d.Set("Minor Version", minor, minor)
	var compatible []string
	for p := ftyp.body[8:]; len(p) >= 4; p = p[4:] {
		compatible = append(compatible, string(p[:4]))
	}
	if len(compatible) > 0 {
		s := strings.Join(compatible, ", ")
		d.Set("Compatible Brands", s, s)
	}
	b.add(d)

	meta, ok := findBox(top, "meta")
	if !ok {
		return nil
	}
	_, _, metaBody, ok := fullBox(meta.body)
	if !ok {
		return nil
	}
	children := isoBoxes(metaBody)

	primary := uint32(0)
	if pitm, ok := findBox(children, "pitm"); ok {
		if v, _, rest, ok := fullBox(pitm.body); ok {
			c := &cursor{buf: rest}
			if v == 0 {
				primary = uint32(c.u16())
			} else {
				primary = c.u32()
			}
			if c.bad {
				primary = 0
			}
		}
	}
	if iprp, ok := findBox(children, "iprp"); ok && primary != 0 {
		heifProperties(d, isoBoxes(iprp.body), primary)
	}

	var items []heifItem
	if iinf, ok := findBox(children, "iinf"); ok {
		items = heifItems(iinf.body)
	}
	var locations map[uint32]heifLocation
	if iloc, ok := findBox(children, "iloc"); ok {
		locations = heifLocations(iloc.body)
	}
	var idat []byte
	if box, ok := findBox(children, "idat"); ok {
		idat = box.body
	}

	for _, it := range items {
		isExif := it.typ == "Exif"
		isXMP := it.typ == "mime" && it.contentType == xmpContentType
		if !isExif && !isXMP {
			continue
		}
		loc, ok := locations[it.id]
		if !ok {
			continue
		}
		payload, err := heifPayload(data, idat, loc)
		if err != nil {
			b.logger.Warn(b.path, "unreadable HEIF item "+it.typ, err)
			continue
		}
		switch {
		case isExif && !b.exifed:
			// 4-byte offset to the TIFF header, then the header prefix
			if len(payload) < 4 {
				continue
			}
			skip := uint64(binary.BigEndian.Uint32(payload))
			if skip > uint64(len(payload)-4) {
				b.logger.Warn(b.path, "no EXIF data", fmt.Errorf("%w: bad Exif item header", ErrCorruptExif))
				continue
			}
			b.readExif(trimExifHeader(payload[4+skip:]))
		case isXMP:
			b.readXMP(payload)
		}
	}
	return nil
}

// heifItems reads the infe entries of version 2 and 3; older entries carry
// no item type.
func heifItems(body []byte) []heifItem {
	v, _, rest, ok := fullBox(body)
	if !ok {
		return nil
	}
	c := &cursor{buf: rest}
	if v == 0 {
		c.u16()
	} else {
		c.u32()
	}
	if c.bad {
		return nil
	}

	var items []heifItem
	for _, box := range isoBoxes(c.buf) {
		if box.typ != "infe" {
			continue
		}
		iv, _, entry, ok := fullBox(box.body)
		if !ok || iv < 2 {
			continue
		}
		ec := &cursor{buf: entry}
		var it heifItem
		if iv == 2 {
			it.id = uint32(ec.u16())
		} else {
			it.id = ec.u32()
		}
		ec.u16() // protection index
		it.typ = string(ec.take(4))
		ec.cstring() // item name
		if it.typ == "mime" {
			it.contentType = ec.cstring()
		}
		if !ec.bad {
			items = append(items, it)
		}
	}
	return items
}

func heifLocations(body []byte) map[uint32]heifLocation {
	v, _, rest, ok := fullBox(body)
	if !ok || v > 2 {
		return nil
	}
	c := &cursor{buf: rest}
	sizes := c.u16()
	offsetSize := int(sizes >> 12)
	lengthSize := int(sizes >> 8 & 0x0F)
	baseSize := int(sizes >> 4 & 0x0F)
	indexSize := 0
	if v > 0 {
		indexSize = int(sizes & 0x0F)
	}
	var count uint32
	if v < 2 {
		count = uint32(c.u16())
	} else {
		count = c.u32()
	}

	locations := make(map[uint32]heifLocation)
	for i := uint32(0); i < count && !c.bad; i++ {
		var id uint32
		if v < 2 {
			id = uint32(c.u16())
		} else {
			id = c.u32()
		}
		var loc heifLocation
		if v > 0 {
			loc.method = c.u16() & 0x0F
		}
		c.u16() // data reference index
		loc.base = c.sized(baseSize)
		extents := c.u16()
		for e := uint16(0); e < extents && !c.bad; e++ {
			if indexSize > 0 {
				c.sized(indexSize)
			}
			off := c.sized(offsetSize)
			length := c.sized(lengthSize)
			loc.extents = append(loc.extents, heifExtent{offset: off, length: length})
		}
		if !c.bad {
			locations[id] = loc
		}
	}
	return locations
}

// heifPayload joins the extents of one item. Method 0 addresses the file,
// method 1 the idat box.
func heifPayload(file, idat []byte, loc heifLocation) ([]byte, error) {
	var src []byte
	switch loc.method {
	case 0:
		src = file
	case 1:
		src = idat
	default:
		return nil, fmt.Errorf("construction method %d not supported", loc.method)
	}

	var out []byte
	for _, e := range loc.extents {
		start := loc.base + e.offset
		if start < loc.base || start > uint64(len(src)) {
			return nil, fmt.Errorf("extent at %d outside %d bytes", start, len(src))
		}
		end := uint64(len(src))
		if e.length != 0 {
			end = start + e.length
		}
		if end < start || end > uint64(len(src)) || uint64(len(out))+end-start > maxHEIFItem {
			return nil, fmt.Errorf("extent of %d bytes at %d outside %d bytes", e.length, start, len(src))
		}
		out = append(out, src[start:end]...)
	}
	return out, nil
}

// heifProperties applies the ispe and irot properties associated with the
// primary item through ipma.
func heifProperties(d *Directory, iprp []isoBox, primary uint32) {
	ipco, ok := findBox(iprp, "ipco")
	if !ok {
		return
	}
	props := isoBoxes(ipco.body)
	ipma, ok := findBox(iprp, "ipma")
	if !ok {
		return
	}
	v, flags, rest, ok := fullBox(ipma.body)
	if !ok {
		return
	}

	c := &cursor{buf: rest}
	count := c.u32()
	for i := uint32(0); i < count && !c.bad; i++ {
		var id uint32
		if v < 1 {
			id = uint32(c.u16())
		} else {
			id = c.u32()
		}
		n := int(c.u8())
		for j := 0; j < n && !c.bad; j++ {
			var index int
			if flags&1 != 0 {
				index = int(c.u16() & 0x7FFF)
			} else {
				index = int(c.u8() & 0x7F)
			}
			if id != primary || index == 0 || index > len(props) || c.bad {
				continue
			}
			heifProperty(d, props[index-1])
		}
	}
}

func heifProperty(d *Directory, p isoBox) {
	switch p.typ {
	case "ispe":
		_, _, rest, ok := fullBox(p.body)
		if !ok || len(rest) < 8 {
			return
		}
		setDimensions(d, binary.BigEndian.Uint32(rest), binary.BigEndian.Uint32(rest[4:]))
	case "irot":
		if len(p.body) < 1 {
			return
		}
		angle := int(p.body[0]&0x03) * 90
		d.Set("Rotation", strconv.Itoa(angle), strconv.Itoa(angle)+" degrees anticlockwise")
	}
}
