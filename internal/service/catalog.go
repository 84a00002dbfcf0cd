package service

import (
	"errors"
	"strings"
	"time"

	"github.com/On-Jun9/ShutterMeta/internal/metadata"
	"github.com/On-Jun9/ShutterMeta/internal/xmp"
	"github.com/On-Jun9/ShutterMeta/pkg/types"
)

const subjectProperty = "dc:subject"

// exifDateLayouts are tried in order. The first is the EXIF standard form.
var exifDateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006:01:02",
}

// GetCatalogMetadata returns capture time, location and keywords. There is
// no container fallback: unrecognized files are an error.
func (s *Service) GetCatalogMetadata(path string) (*types.CatalogRecord, error) {
	start := time.Now()
	rec, err := s.catalog(path)
	s.logger.LogOperation(types.OpGetCatalogMetadata, path, time.Since(start), err)
	return rec, err
}

func (s *Service) catalog(path string) (*types.CatalogRecord, error) {
	doc, err := s.reader.Read(path)
	if err != nil {
		return nil, newError(types.OpGetCatalogMetadata, path, err)
	}

	rec := &types.CatalogRecord{}

	if sub := doc.FirstOfKind(metadata.KindExifSubIFD); sub != nil {
		if raw, ok := sub.RawValue("DateTimeOriginal"); ok {
			t, err := parseExifDate(raw)
			if err != nil {
				s.logger.Warn(path, "unparseable DateTimeOriginal", err)
			} else {
				ms := t.UnixMilli()
				rec.DateMillis = &ms
			}
		}
	}

	if gps := doc.FirstOfKind(metadata.KindGPS); gps != nil {
		if loc, ok := gps.GeoLocation(); ok {
			lat, lng := loc.Latitude, loc.Longitude
			rec.Latitude = &lat
			rec.Longitude = &lng
		}
	}

	if d := doc.FirstOfKind(metadata.KindXMP); d != nil && d.HasProperties() {
		kw, ok, err := keywords(d)
		switch {
		case errors.Is(err, metadata.ErrInvalidProperties):
			// logged when the packet was read
		case err != nil:
			s.logger.Warn(path, "failed to read keywords", err)
		case ok:
			rec.Keywords = &kw
		}
	}
	return rec, nil
}

// parseExifDate reads a date in the local time zone.
func parseExifDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var firstErr error
	for _, layout := range exifDateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// keywords joins the dc:subject items, each preceded by a space. ok is false
// when the property is not set.
func keywords(d *metadata.Directory) (string, bool, error) {
	m, err := d.Properties()
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, errors.New("empty property tree")
	}
	if !m.DoesPropertyExist(xmp.NSDC, subjectProperty) {
		return "", false, nil
	}
	count, err := m.CountArrayItems(xmp.NSDC, subjectProperty)
	if err != nil {
		return "", false, err
	}
	var sb strings.Builder
	for i := 1; i <= count; i++ {
		item, err := m.ArrayItem(xmp.NSDC, subjectProperty, i)
		if err != nil {
			return "", false, err
		}
		sb.WriteString(" ")
		sb.WriteString(item.Value)
	}
	return sb.String(), true, nil
}
