package metadata

import (
	"fmt"

	"github.com/On-Jun9/ShutterMeta/internal/xmp"
)

// Kind identifies which decoding stage produced a directory.
type Kind int

const (
	KindJFIF Kind = iota + 1
	KindJPEG
	KindJpegComment
	KindExifIFD0
	KindExifSubIFD
	KindInterop
	KindGPS
	KindExifThumbnail
	KindMakernote
	KindXMP
	KindPNG
	KindPNGText
	KindWebP
	KindHEIF
	KindGIF
	KindGIFComment
	KindBMP
)

var kindNames = map[Kind]string{
	KindJFIF:          "JFIF",
	KindJPEG:          "JPEG",
	KindJpegComment:   "JpegComment",
	KindExifIFD0:      "Exif IFD0",
	KindExifSubIFD:    "Exif SubIFD",
	KindInterop:       "Interoperability",
	KindGPS:           "GPS",
	KindExifThumbnail: "Exif Thumbnail",
	KindMakernote:     "Makernote",
	KindXMP:           "XMP",
	KindPNG:           "PNG-IHDR",
	KindPNGText:       "PNG-tEXt",
	KindWebP:          "WebP",
	KindHEIF:          "HEIF",
	KindGIF:           "GIF Header",
	KindGIFComment:    "GIF Comment",
	KindBMP:           "BMP Header",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Tag is one metadata field. Value is the raw string form, Description the
// human-readable one.
type Tag struct {
	Name        string
	Value       string
	Description string
}

// GeoLocation is a position in signed decimal degrees.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
}

// Directory is a named group of tags. Some directories also carry a
// hierarchical property tree; ask HasProperties before Properties.
type Directory struct {
	Name string
	Kind Kind

	tags  []Tag
	index map[string]int

	location *GeoLocation

	hasProps bool
	props    *xmp.Meta
	propsErr error
}

func NewDirectory(kind Kind) *Directory {
	return &Directory{Name: kind.String(), Kind: kind, index: make(map[string]int)}
}

// Set adds a tag or replaces the one with the same name.
func (d *Directory) Set(name, value, description string) {
	t := Tag{Name: name, Value: value, Description: description}
	if i, ok := d.index[name]; ok {
		d.tags[i] = t
		return
	}
	d.index[name] = len(d.tags)
	d.tags = append(d.tags, t)
}

func (d *Directory) Tags() []Tag {
	return d.tags
}

func (d *Directory) TagCount() int {
	return len(d.tags)
}

func (d *Directory) ContainsTag(name string) bool {
	_, ok := d.index[name]
	return ok
}

func (d *Directory) tag(name string) (Tag, bool) {
	i, ok := d.index[name]
	if !ok {
		return Tag{}, false
	}
	return d.tags[i], true
}

// Description returns the formatted value of a tag.
func (d *Directory) Description(name string) (string, bool) {
	t, ok := d.tag(name)
	return t.Description, ok
}

// RawValue returns the unformatted value of a tag.
func (d *Directory) RawValue(name string) (string, bool) {
	t, ok := d.tag(name)
	return t.Value, ok
}

// GeoLocation is only set on GPS directories whose coordinates decode.
func (d *Directory) GeoLocation() (GeoLocation, bool) {
	if d.location == nil {
		return GeoLocation{}, false
	}
	return *d.location, true
}

func (d *Directory) setGeoLocation(lat, lng float64) {
	d.location = &GeoLocation{Latitude: lat, Longitude: lng}
}

func (d *Directory) HasProperties() bool {
	return d.hasProps
}

// Properties returns the property tree, or the error met while decoding it.
func (d *Directory) Properties() (*xmp.Meta, error) {
	if !d.hasProps {
		return nil, ErrNoProperties
	}
	return d.props, d.propsErr
}

func (d *Directory) setProperties(m *xmp.Meta, err error) {
	d.hasProps = true
	d.props = m
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidProperties, err)
	}
	d.propsErr = err
}

// Map returns tag name -> description.
func (d *Directory) Map() map[string]string {
	out := make(map[string]string, len(d.tags))
	for _, t := range d.tags {
		out[t.Name] = t.Description
	}
	return out
}

// Document is the ordered set of directories read from one file.
type Document struct {
	dirs []*Directory
}

func (doc *Document) Directories() []*Directory {
	return doc.dirs
}

// FirstOfKind returns the first directory of kind k, or nil.
func (doc *Document) FirstOfKind(k Kind) *Directory {
	for _, d := range doc.dirs {
		if d.Kind == k {
			return d
		}
	}
	return nil
}

// add keeps only directories that hold at least one tag.
func (doc *Document) add(d *Directory) {
	if d == nil || d.TagCount() == 0 {
		return
	}
	doc.dirs = append(doc.dirs, d)
}
