package fixture

import (
	"encoding/binary"
)

// WebP wraps chunks in a RIFF "WEBP" container. Chunk sizes are
// little-endian and odd chunks get a pad byte.
func WebP(chunks ...Chunk) []byte {
	var body []byte
	for _, c := range chunks {
		var head [8]byte
		copy(head[:4], c.Type)
		binary.LittleEndian.PutUint32(head[4:], uint32(len(c.Data)))
		body = append(body, head[:]...)
		body = append(body, c.Data...)
		if len(c.Data)%2 == 1 {
			body = append(body, 0)
		}
	}
	out := []byte("RIFF")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(4+len(body)))
	out = append(out, size[:]...)
	out = append(out, "WEBP"...)
	return append(out, body...)
}

// VP8X is the extended WebP header with the given flag bits.
func VP8X(width, height uint32, flags byte) Chunk {
	d := make([]byte, 10)
	d[0] = flags
	w, h := width-1, height-1
	d[4], d[5], d[6] = byte(w), byte(w>>8), byte(w>>16)
	d[7], d[8], d[9] = byte(h), byte(h>>8), byte(h>>16)
	return Chunk{Type: "VP8X", Data: d}
}

// VP8L is a lossless bitstream header without image data.
func VP8L(width, height uint32) Chunk {
	d := make([]byte, 5)
	d[0] = 0x2F
	binary.LittleEndian.PutUint32(d[1:], (width-1)&0x3FFF|((height-1)&0x3FFF)<<14)
	return Chunk{Type: "VP8L", Data: d}
}

// HEIF describes a still HEIF file whose metadata items live in idat.
type HEIF struct {
	Brand    string
	Width    uint32
	Height   uint32
	Rotation byte
	// Exif is a bare TIFF block; it is stored with the usual offset and
	// "Exif\0\0" prefix.
	Exif []byte
	XMP  string
}

func box(typ string, parts ...[]byte) []byte {
	n := 8
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 8, n)
	binary.BigEndian.PutUint32(out, uint32(n))
	copy(out[4:], typ)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func fullBox(typ string, version byte, flags uint32, parts ...[]byte) []byte {
	head := []byte{version, byte(flags >> 16), byte(flags >> 8), byte(flags)}
	return box(typ, append([][]byte{head}, parts...)...)
}

func be16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func infe(id uint16, typ, contentType string) []byte {
	body := append(be16(id), be16(0)...)
	body = append(body, typ...)
	body = append(body, 0)
	if typ == "mime" {
		body = append(body, contentType...)
		body = append(body, 0)
	}
	return fullBox("infe", 2, 0, body)
}

// Bytes lays out ftyp and meta. Item 1 is the primary image, item 2 the
// Exif block, item 3 the XMP packet.
func (h HEIF) Bytes() []byte {
	brand := h.Brand
	if brand == "" {
		brand = "heic"
	}
	ftyp := box("ftyp", []byte(brand), be32(0), []byte("mif1"), []byte(brand))

	var idat []byte
	type loc struct {
		id          uint16
		off, length uint32
	}
	var locs []loc
	entries := [][]byte{infe(1, "hvc1", "")}
	if h.Exif != nil {
		payload := append(be32(6), "Exif\x00\x00"...)
		payload = append(payload, h.Exif...)
		locs = append(locs, loc{id: 2, off: uint32(len(idat)), length: uint32(len(payload))})
		idat = append(idat, payload...)
		entries = append(entries, infe(2, "Exif", ""))
	}
	if h.XMP != "" {
		locs = append(locs, loc{id: 3, off: uint32(len(idat)), length: uint32(len(h.XMP))})
		idat = append(idat, h.XMP...)
		entries = append(entries, infe(3, "mime", "application/rdf+xml"))
	}

	iinf := fullBox("iinf", 0, 0, append([][]byte{be16(uint16(len(entries)))}, entries...)...)

	// version 1: 4-byte offsets and lengths, no base offset, idat construction
	iloc := []byte{0x44, 0x00}
	iloc = append(iloc, be16(uint16(len(locs)))...)
	for _, l := range locs {
		iloc = append(iloc, be16(l.id)...)
		iloc = append(iloc, be16(1)...)
		iloc = append(iloc, be16(0)...)
		iloc = append(iloc, be16(1)...)
		iloc = append(iloc, be32(l.off)...)
		iloc = append(iloc, be32(l.length)...)
	}

	ispe := fullBox("ispe", 0, 0, be32(h.Width), be32(h.Height))
	irot := box("irot", []byte{h.Rotation})
	ipco := box("ipco", ispe, irot)
	ipma := fullBox("ipma", 0, 0, be32(1), be16(1), []byte{2, 0x01, 0x82})

	meta := fullBox("meta", 0, 0,
		fullBox("hdlr", 0, 0, be32(0), []byte("pict"), make([]byte, 12), []byte{0}),
		fullBox("pitm", 0, 0, be16(1)),
		iinf,
		fullBox("iloc", 1, 0, iloc),
		box("iprp", ipco, ipma),
		box("idat", idat),
	)
	return append(ftyp, meta...)
}

// GIF is an 89a file with a two-colour global table, one 1x1 frame and
// optional comment and XMP extensions.
func GIF(width, height uint16, comment, xmpPacket string) []byte {
	out := []byte("GIF89a")
	var dims [4]byte
	binary.LittleEndian.PutUint16(dims[0:], width)
	binary.LittleEndian.PutUint16(dims[2:], height)
	out = append(out, dims[:]...)
	out = append(out, 0xF0, 0, 0)
	out = append(out, 0, 0, 0, 0xFF, 0xFF, 0xFF)

	if comment != "" {
		out = append(out, 0x21, 0xFE)
		out = append(out, subBlocks([]byte(comment))...)
	}
	if xmpPacket != "" {
		out = append(out, 0x21, 0xFF, 11)
		out = append(out, "XMP DataXMP"...)
		out = append(out, xmpPacket...)
		// magic trailer: every length chain through the packet ends on the
		// final zero
		out = append(out, 0x01)
		for i := 0xFF; i >= 0; i-- {
			out = append(out, byte(i))
		}
		out = append(out, 0)
	}

	out = append(out, 0x2C, 0, 0, 0, 0, 1, 0, 1, 0, 0)
	out = append(out, 2, 2, 0x4C, 0x01, 0)
	return append(out, 0x3B)
}

func subBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return append(out, 0)
}

// BMP is a file header plus a BITMAPINFOHEADER and no pixel data.
func BMP(width, height int32, bitsPerPixel uint16) []byte {
	out := make([]byte, 54)
	copy(out, "BM")
	binary.LittleEndian.PutUint32(out[2:], 54)
	binary.LittleEndian.PutUint32(out[10:], 54)
	binary.LittleEndian.PutUint32(out[14:], 40)
	binary.LittleEndian.PutUint32(out[18:], uint32(width))
	binary.LittleEndian.PutUint32(out[22:], uint32(height))
	binary.LittleEndian.PutUint16(out[26:], 1)
	binary.LittleEndian.PutUint16(out[28:], bitsPerPixel)
	binary.LittleEndian.PutUint32(out[38:], 2835)
	binary.LittleEndian.PutUint32(out[42:], 2835)
	return out
}

// RAF puts a JPEG preview behind a Fujifilm RAF header.
func RAF(preview []byte) []byte {
	const offset = 100
	out := make([]byte, offset)
	copy(out, "FUJIFILMCCD-RAW 0201FF393101")
	binary.BigEndian.PutUint32(out[84:], offset)
	binary.BigEndian.PutUint32(out[88:], uint32(len(preview)))
	return append(out, preview...)
}

// WithMagic replaces the 42 of a TIFF header, as ORF ("RO") and RW2 ("U\0")
// files do.
func WithMagic(tiff []byte, magic string) []byte {
	out := append([]byte(nil), tiff...)
	copy(out[2:4], magic)
	return out
}
