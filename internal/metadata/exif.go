package metadata

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const tagXMLPacket = 0x02BC

var ifd0Fields = map[string]bool{
	"ImageWidth": true, "ImageLength": true, "BitsPerSample": true, "Compression": true,
	"PhotometricInterpretation": true, "Orientation": true, "SamplesPerPixel": true,
	"PlanarConfiguration": true, "YCbCrSubSampling": true, "YCbCrPositioning": true,
	"XResolution": true, "YResolution": true, "ResolutionUnit": true, "DateTime": true,
	"ImageDescription": true, "Make": true, "Model": true, "Software": true,
	"Artist": true, "Copyright": true,
}

var pointerFields = map[string]bool{
	"ExifIFDPointer":             true,
	"GPSInfoIFDPointer":          true,
	"InteroperabilityIFDPointer": true,
}

// exifKind puts a goexif field back into the IFD it came from.
func exifKind(name exif.FieldName) Kind {
	n := string(name)
	switch {
	case ifd0Fields[n]:
		return KindExifIFD0
	case strings.HasPrefix(n, "GPS"):
		return KindGPS
	case strings.HasPrefix(n, "Interoperability"):
		return KindInterop
	case strings.HasPrefix(n, "ThumbJPEG"):
		return KindExifThumbnail
	case strings.Contains(n, "."):
		// maker-note parsers namespace their fields ("Canon.ModelID")
		return KindMakernote
	default:
		return KindExifSubIFD
	}
}

var exifOrder = []Kind{KindExifIFD0, KindExifSubIFD, KindInterop, KindGPS, KindExifThumbnail, KindMakernote}

type exifField struct {
	name exif.FieldName
	tag  *tiff.Tag
}

type exifCollector struct {
	fields []exifField
}

func (c *exifCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if pointerFields[string(name)] {
		return nil
	}
	c.fields = append(c.fields, exifField{name: name, tag: tag})
	return nil
}

// decodeExif decodes a TIFF-structured block with goexif once checkExif
// has accepted it. A panic inside a maker-note parser becomes ErrCorruptExif.
func decodeExif(data []byte) (x *exif.Exif, err error) {
	if err := checkExif(data); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: %v", ErrCorruptExif, r)
		}
	}()
	return exif.Decode(bytes.NewReader(data))
}

// trimExifHeader drops the "Exif\0\0" marker some writers put in front of
// the TIFF header outside JPEG.
func trimExifHeader(data []byte) []byte {
	return bytes.TrimPrefix(data, exifPrefix)
}

// readExif decodes an EXIF block into the EXIF directories. A broken block
// is logged and skipped.
func (b *builder) readExif(data []byte) {
	x, err := decodeExif(data)
	if x == nil {
		b.logger.Warn(b.path, "no EXIF data", err)
		return
	}
	if err != nil {
		b.logger.Warn(b.path, "partial EXIF data", err)
	}
	b.addExif(x)
}

func (b *builder) addExif(x *exif.Exif) {
	b.exifed = true

	c := &exifCollector{}
	_ = x.Walk(c)

	// goexif walks a map; order by tag id, then name, for stable output
	sort.SliceStable(c.fields, func(i, j int) bool {
		if c.fields[i].tag.Id != c.fields[j].tag.Id {
			return c.fields[i].tag.Id < c.fields[j].tag.Id
		}
		return c.fields[i].name < c.fields[j].name
	})

	dirs := make(map[Kind]*Directory)
	for _, f := range c.fields {
		kind := exifKind(f.name)
		d, ok := dirs[kind]
		if !ok {
			d = NewDirectory(kind)
			dirs[kind] = d
		}
		d.Set(string(f.name), rawValue(f.tag), describe(x, f.name, f.tag))
	}

	if gps, ok := dirs[KindGPS]; ok {
		if lat, lng, err := x.LatLong(); err == nil && finite(lat) && finite(lng) {
			gps.setGeoLocation(lat, lng)
		}
	}

	for _, k := range exifOrder {
		if d, ok := dirs[k]; ok {
			b.add(d)
		}
	}
}

// readTIFF treats the whole file as the EXIF block. TIFF files may also
// embed an XMP packet in tag 700.
func (b *builder) readTIFF(data []byte) error {
	x, err := decodeExif(data)
	if x == nil {
		return fmt.Errorf("%w: %w", ErrUnreadableFormat, err)
	}
	if err != nil {
		b.logger.Warn(b.path, "partial TIFF data", err)
	}
	b.addExif(x)

	if x.Tiff != nil && len(x.Tiff.Dirs) > 0 {
		for _, t := range x.Tiff.Dirs[0].Tags {
			if t.Id == tagXMLPacket && len(t.Val) > 0 {
				b.readXMP(bytes.TrimRight(t.Val, "\x00"))
				break
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
