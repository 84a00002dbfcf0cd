package metadata

import (
	"bufio"
	"bytes"
)

type format int

const (
	formatUnknown format = iota
	formatJPEG
	formatTIFF
	formatRawTIFF
	formatPNG
	formatWebP
	formatHEIF
	formatGIF
	formatBMP
	formatRAF
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	rafSignature = []byte("FUJIFILMCCD-RAW")
)

// rawTIFFMagic lists TIFF variants whose header carries a vendor magic in
// place of 42: Olympus ORF and Panasonic RW2.
var rawTIFFMagic = []string{"IIRO", "IIRS", "MMOR", "IIU\x00"}

var heifBrands = map[string]bool{
	"heic": true, "heix": true, "heim": true, "heis": true,
	"hevc": true, "hevx": true, "mif1": true, "msf1": true,
	"avif": true, "avis": true,
}

// sniff detects the container by magic number without consuming input.
func sniff(br *bufio.Reader) format {
	header, _ := br.Peek(16)

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return formatJPEG
	case len(header) >= 8 && bytes.Equal(header[:8], pngSignature):
		return formatPNG
	case len(header) >= 4 && (string(header[:4]) == "II*\x00" || string(header[:4]) == "MM\x00*"):
		return formatTIFF
	case len(header) >= 4 && isRawTIFF(header[:4]):
		return formatRawTIFF
	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return formatWebP
	case len(header) >= 12 && string(header[4:8]) == "ftyp" && heifBrands[string(header[8:12])]:
		return formatHEIF
	case len(header) >= 6 && (string(header[:6]) == "GIF87a" || string(header[:6]) == "GIF89a"):
		return formatGIF
	case len(header) >= 2 && string(header[:2]) == "BM":
		return formatBMP
	case bytes.HasPrefix(header, rafSignature):
		return formatRAF
	default:
		return formatUnknown
	}
}

func isRawTIFF(magic []byte) bool {
	for _, m := range rawTIFFMagic {
		if string(magic) == m {
			return true
		}
	}
	return false
}
