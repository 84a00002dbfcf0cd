package xmp

const (
	NSRDF   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXML   = "http://www.w3.org/XML/1998/namespace"
	NSMeta  = "adobe:ns:meta/"
	NSDC    = "http://purl.org/dc/elements/1.1/"
	NSXMP   = "http://ns.adobe.com/xap/1.0/"
	NSExif  = "http://ns.adobe.com/exif/1.0/"
	NSTiff  = "http://ns.adobe.com/tiff/1.0/"
	NSPhoto = "http://ns.adobe.com/photoshop/1.0/"
)

// registered prefixes take precedence over whatever the packet declares,
// so paths stay stable across writers.
var registeredPrefixes = map[string]string{
	NSDC:    "dc",
	NSXMP:   "xmp",
	NSExif:  "exif",
	NSTiff:  "tiff",
	NSPhoto: "photoshop",
	NSXML:   "xml",
	NSRDF:   "rdf",
	NSMeta:  "x",

	"http://ns.adobe.com/xap/1.0/mm/":                  "xmpMM",
	"http://ns.adobe.com/xap/1.0/rights/":              "xmpRights",
	"http://ns.adobe.com/xap/1.0/sType/ResourceEvent#": "stEvt",
	"http://ns.adobe.com/xap/1.0/sType/ResourceRef#":   "stRef",
	"http://ns.adobe.com/xap/1.0/bj/":                  "xmpBJ",
	"http://ns.adobe.com/xap/1.0/g/img/":               "xmpGImg",
	"http://ns.adobe.com/exif/1.0/aux/":                "aux",
	"http://ns.adobe.com/camera-raw-settings/1.0/":     "crs",
	"http://ns.adobe.com/lightroom/1.0/":               "lr",
	"http://ns.adobe.com/pdf/1.3/":                     "pdf",
	"http://cipa.jp/exif/1.0/":                         "exifEX",
	"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/":      "Iptc4xmpCore",
	"http://iptc.org/std/Iptc4xmpExt/2008-02-29/":      "Iptc4xmpExt",
	"http://ns.google.com/photos/1.0/panorama/":        "GPano",
	"http://ns.google.com/photos/1.0/camera/":          "GCamera",
	"http://ns.google.com/photos/1.0/container/":       "GContainer",
	"http://ns.microsoft.com/photo/1.0/":               "MicrosoftPhoto",
}

type prefixTable struct {
	declared map[string]string
}

func newPrefixTable() *prefixTable {
	return &prefixTable{declared: make(map[string]string)}
}

// declare records the first prefix a packet binds to uri.
func (p *prefixTable) declare(prefix, uri string) {
	if prefix == "" || uri == "" {
		return
	}
	if _, ok := p.declared[uri]; !ok {
		p.declared[uri] = prefix
	}
}

func (p *prefixTable) prefix(uri string) string {
	if pfx, ok := registeredPrefixes[uri]; ok {
		return pfx
	}
	if pfx, ok := p.declared[uri]; ok {
		return pfx
	}
	return "ns" + shortHash(uri)
}

func (p *prefixTable) qualify(uri, local string) string {
	if uri == "" {
		return local
	}
	return p.prefix(uri) + ":" + local
}

// shortHash gives undeclared namespaces a stable synthetic prefix.
func shortHash(s string) string {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	const digits = "0123456789abcdef"
	out := make([]byte, 4)
	for i := range out {
		out[i] = digits[(h>>(uint(i)*4))&0xf]
	}
	return string(out)
}
