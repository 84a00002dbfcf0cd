package video

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrNoSidecar = errors.New("video: sidecar XML not found")

// nonRealTimeMeta is the Sony XDCAM/XAVC clip sidecar (<clip>M01.XML).
type nonRealTimeMeta struct {
	XMLName      xml.Name `xml:"NonRealTimeMeta"`
	CreationDate struct {
		Value string `xml:"value,attr"`
	} `xml:"CreationDate"`
}

// SidecarDate reads CreationDate from the M01.XML file next to videoPath.
func SidecarDate(videoPath string) (time.Time, error) {
	xmlPath := findSidecar(videoPath)
	if xmlPath == "" {
		return time.Time{}, ErrNoSidecar
	}

	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read XML: %w", err)
	}

	var meta nonRealTimeMeta
	if err := xml.Unmarshal(data, &meta); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	if meta.CreationDate.Value == "" {
		return time.Time{}, errors.New("CreationDate not found in XML")
	}

	t, err := time.Parse(time.RFC3339, meta.CreationDate.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

func findSidecar(videoPath string) string {
	dir := filepath.Dir(videoPath)
	basename := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	for _, name := range []string{basename + "M01.XML", basename + "M01.xml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
