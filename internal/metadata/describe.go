package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// rawValue renders a tag the way a generic reader would: ASCII text, integer
// lists, n/d rationals.
func rawValue(t *tiff.Tag) string {
	switch t.Format() {
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return ""
		}
		return strings.TrimRight(s, "\x00 ")
	case tiff.RatVal:
		parts := make([]string, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			n, d, err := t.Rat2(i)
			if err != nil {
				break
			}
			parts = append(parts, fmt.Sprintf("%d/%d", n, d))
		}
		return strings.Join(parts, " ")
	case tiff.IntVal:
		parts := make([]string, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			v, err := t.Int64(i)
			if err != nil {
				break
			}
			parts = append(parts, strconv.FormatInt(v, 10))
		}
		return strings.Join(parts, " ")
	case tiff.FloatVal:
		parts := make([]string, 0, t.Count)
		for i := 0; i < int(t.Count); i++ {
			v, err := t.Float(i)
			if err != nil {
				break
			}
			parts = append(parts, formatFloat(v))
		}
		return strings.Join(parts, " ")
	default:
		if printable(t.Val) {
			return strings.TrimRight(string(t.Val), "\x00 ")
		}
		return fmt.Sprintf("[%d values]", len(t.Val))
	}
}

func printable(b []byte) bool {
	trimmed := strings.TrimRight(string(b), "\x00")
	if trimmed == "" {
		return false
	}
	for _, c := range []byte(trimmed) {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// round1 formats with at most one decimal ("2.8", "4", "5.6").
func round1(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)
}

func ratFloat(t *tiff.Tag, i int) (float64, bool) {
	if i >= int(t.Count) {
		return 0, false
	}
	n, d, err := t.Rat2(i)
	if err != nil || d == 0 {
		return 0, false
	}
	return float64(n) / float64(d), true
}

func intVal(t *tiff.Tag) (int, bool) {
	if t.Count == 0 {
		return 0, false
	}
	v, err := t.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

var enumDescriptions = map[string]map[int]string{
	"Orientation": {
		1: "Top, left side (Horizontal / normal)",
		2: "Top, right side (Mirror horizontal)",
		3: "Bottom, right side (Rotate 180)",
		4: "Bottom, left side (Mirror vertical)",
		5: "Left side, top (Mirror horizontal and rotate 270 CW)",
		6: "Right side, top (Rotate 90 CW)",
		7: "Right side, bottom (Mirror horizontal and rotate 90 CW)",
		8: "Left side, bottom (Rotate 270 CW)",
	},
	"ResolutionUnit":   {1: "(No unit)", 2: "Inch", 3: "cm"},
	"YCbCrPositioning": {1: "Center of pixel array", 2: "Datum point"},
	"ExposureProgram": {
		0: "Unknown", 1: "Manual control", 2: "Program normal", 3: "Aperture priority",
		4: "Shutter priority", 5: "Program creative (slow program)",
		6: "Program action (high-speed program)", 7: "Portrait mode", 8: "Landscape mode",
	},
	"MeteringMode": {
		0: "Unknown", 1: "Average", 2: "Center weighted average", 3: "Spot",
		4: "Multi-spot", 5: "Multi-segment", 6: "Partial", 255: "(Other)",
	},
	"LightSource": {
		0: "Unknown", 1: "Daylight", 2: "Fluorescent", 3: "Tungsten (Incandescent)",
		4: "Flash", 9: "Fine Weather", 10: "Cloudy", 11: "Shade", 255: "(Other)",
	},
	"ColorSpace":           {1: "sRGB", 65535: "Undefined"},
	"WhiteBalance":         {0: "Auto white balance", 1: "Manual white balance"},
	"ExposureMode":         {0: "Auto exposure", 1: "Manual exposure", 2: "Auto bracket"},
	"SceneCaptureType":     {0: "Standard", 1: "Landscape", 2: "Portrait", 3: "Night scene"},
	"GainControl":          {0: "None", 1: "Low gain up", 2: "High gain up", 3: "Low gain down", 4: "High gain down"},
	"Contrast":             {0: "None", 1: "Soft", 2: "Hard"},
	"Saturation":           {0: "None", 1: "Low saturation", 2: "High saturation"},
	"Sharpness":            {0: "None", 1: "Low", 2: "Hard"},
	"SensingMethod":        {1: "(Not defined)", 2: "One-chip color area sensor", 3: "Two-chip color area sensor", 4: "Three-chip color area sensor", 5: "Color sequential area sensor", 7: "Trilinear sensor", 8: "Color sequential linear sensor"},
	"CustomRendered":       {0: "Normal process", 1: "Custom process"},
	"SubjectDistanceRange": {0: "Unknown", 1: "Macro", 2: "Close view", 3: "Distant view"},
	"GPSAltitudeRef":       {0: "Sea level", 1: "Below sea level"},
	"Compression":          {1: "Uncompressed", 6: "JPEG (old-style)", 7: "JPEG"},
}

// describe renders a tag for humans. Unknown tags fall back to rawValue.
func describe(x *exif.Exif, name exif.FieldName, t *tiff.Tag) string {
	n := string(name)
	if labels, ok := enumDescriptions[n]; ok {
		if v, ok := intVal(t); ok {
			if label, ok := labels[v]; ok {
				return label
			}
			return fmt.Sprintf("Unknown (%d)", v)
		}
	}

	switch name {
	case exif.FNumber:
		if f, ok := ratFloat(t, 0); ok {
			return "f/" + round1(f)
		}
	case exif.ApertureValue, exif.MaxApertureValue:
		if apex, ok := ratFloat(t, 0); ok {
			return "f/" + round1(math.Pow(math.Sqrt2, apex))
		}
	case exif.FocalLength:
		if f, ok := ratFloat(t, 0); ok {
			return round1(f) + " mm"
		}
	case exif.FocalLengthIn35mmFilm:
		if v, ok := intVal(t); ok {
			return strconv.Itoa(v) + " mm"
		}
	case exif.ExposureTime:
		return exposureTime(t)
	case exif.ShutterSpeedValue:
		if apex, ok := ratFloat(t, 0); ok {
			return shutterSpeed(apex)
		}
	case exif.ExposureBiasValue:
		if f, ok := ratFloat(t, 0); ok {
			return formatFloat(math.Round(f*100)/100) + " EV"
		}
	case exif.ISOSpeedRatings:
		if v, ok := intVal(t); ok {
			return strconv.Itoa(v)
		}
	case exif.XResolution, exif.YResolution:
		if f, ok := ratFloat(t, 0); ok {
			return formatFloat(f) + " dots per " + resolutionUnit(x)
		}
	case exif.Flash:
		if v, ok := intVal(t); ok {
			return flashDescription(v)
		}
	case exif.ExifVersion, exif.FlashpixVersion:
		return versionDescription(t.Val)
	case exif.ComponentsConfiguration:
		return componentsDescription(t.Val)
	case exif.GPSLatitude, exif.GPSLongitude, exif.GPSDestLatitude, exif.GPSDestLongitude:
		return degreesDescription(t)
	case exif.GPSAltitude:
		if f, ok := ratFloat(t, 0); ok {
			return formatFloat(math.Round(f*100)/100) + " metres"
		}
	case exif.GPSTimeStamp:
		return gpsTimeDescription(t)
	case exif.GPSVersionID:
		parts := make([]string, 0, len(t.Val))
		for _, c := range t.Val {
			parts = append(parts, strconv.Itoa(int(c)))
		}
		return strings.Join(parts, ".")
	}
	return rawValue(t)
}

func resolutionUnit(x *exif.Exif) string {
	if t, err := x.Get(exif.ResolutionUnit); err == nil {
		if v, ok := intVal(t); ok && v == 3 {
			return "cm"
		}
	}
	return "inch"
}

func exposureTime(t *tiff.Tag) string {
	if t.Count == 0 {
		return rawValue(t)
	}
	n, d, err := t.Rat2(0)
	if err != nil || d == 0 {
		return rawValue(t)
	}
	if n == 0 {
		return "0 sec"
	}
	if n < d && d%n == 0 {
		return fmt.Sprintf("1/%d sec", d/n)
	}
	return formatFloat(math.Round(float64(n)/float64(d)*1000)/1000) + " sec"
}

func shutterSpeed(apex float64) string {
	if apex <= 1 {
		seconds := math.Pow(2, -apex)
		return formatFloat(math.Round(seconds*10)/10) + " sec"
	}
	return fmt.Sprintf("1/%d sec", int(math.Round(math.Pow(2, apex))))
}

func flashDescription(v int) string {
	var parts []string
	if v&0x20 != 0 {
		return "No flash function"
	}
	if v&0x1 != 0 {
		parts = append(parts, "Flash fired")
	} else {
		parts = append(parts, "Flash did not fire")
	}
	switch v & 0x6 {
	case 0x4:
		parts = append(parts, "return not detected")
	case 0x6:
		parts = append(parts, "return detected")
	}
	switch v & 0x18 {
	case 0x8:
		parts = append(parts, "compulsory")
	case 0x10:
		parts = append(parts, "suppressed")
	case 0x18:
		parts = append(parts, "auto")
	}
	if v&0x40 != 0 {
		parts = append(parts, "red-eye reduction")
	}
	return strings.Join(parts, ", ")
}

// versionDescription turns "0231" into "2.31".
func versionDescription(b []byte) string {
	s := strings.TrimRight(string(b), "\x00")
	if len(s) != 4 {
		return s
	}
	major := strings.TrimLeft(s[:2], "0")
	if major == "" {
		major = "0"
	}
	minor := strings.TrimRight(s[2:], "0")
	if minor == "" {
		return major + ".0"
	}
	return major + "." + minor
}

var componentNames = map[byte]string{1: "Y", 2: "Cb", 3: "Cr", 4: "R", 5: "G", 6: "B"}

func componentsDescription(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteString(componentNames[c])
	}
	return sb.String()
}

// degreesDescription renders three rationals as `52° 22' 12.34"`.
func degreesDescription(t *tiff.Tag) string {
	if t.Count < 3 {
		return rawValue(t)
	}
	var v [3]float64
	for i := range v {
		f, ok := ratFloat(t, i)
		if !ok {
			return rawValue(t)
		}
		v[i] = f
	}
	decimal := v[0] + v[1]/60 + v[2]/3600
	deg := math.Floor(decimal)
	minutes := math.Floor((decimal - deg) * 60)
	seconds := (decimal - deg - minutes/60) * 3600
	return fmt.Sprintf("%d° %d' %s\"", int(deg), int(minutes), formatFloat(math.Round(seconds*100)/100))
}

func gpsTimeDescription(t *tiff.Tag) string {
	if t.Count < 3 {
		return rawValue(t)
	}
	var v [3]float64
	for i := range v {
		f, ok := ratFloat(t, i)
		if !ok {
			return rawValue(t)
		}
		v[i] = f
	}
	return fmt.Sprintf("%02d:%02d:%06.3f UTC", int(v[0]), int(v[1]), v[2])
}
