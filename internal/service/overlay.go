package service

import (
	"time"

	"github.com/On-Jun9/ShutterMeta/internal/metadata"
	"github.com/On-Jun9/ShutterMeta/pkg/types"
)

// GetOverlayMetadata returns display strings for the exposure settings.
// A file without an Exif SubIFD yields an empty record.
func (s *Service) GetOverlayMetadata(path string) (*types.OverlayRecord, error) {
	start := time.Now()
	rec, err := s.overlay(path)
	s.logger.LogOperation(types.OpGetOverlayMetadata, path, time.Since(start), err)
	return rec, err
}

func (s *Service) overlay(path string) (*types.OverlayRecord, error) {
	doc, err := s.reader.Read(path)
	if err != nil {
		return nil, newError(types.OpGetOverlayMetadata, path, err)
	}

	rec := &types.OverlayRecord{}
	sub := doc.FirstOfKind(metadata.KindExifSubIFD)
	if sub == nil {
		return rec, nil
	}

	if v, ok := sub.Description("FNumber"); ok {
		rec.Aperture = &v
	}
	if v, ok := sub.RawValue("ExposureTime"); ok {
		rec.ExposureTime = &v
	}
	if v, ok := sub.Description("FocalLength"); ok {
		rec.FocalLength = &v
	}
	if v, ok := sub.Description("ISOSpeedRatings"); ok {
		iso := "ISO" + v
		rec.ISO = &iso
	}
	return rec, nil
}
