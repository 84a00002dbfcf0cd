// Package service exposes the three metadata operations callers use:
// the full dump, the catalog record and the overlay record.
package service

import (
	"errors"
	"io/fs"
	"time"

	"github.com/On-Jun9/ShutterMeta/internal/log"
	"github.com/On-Jun9/ShutterMeta/internal/metadata"
	"github.com/On-Jun9/ShutterMeta/internal/video"
	"github.com/On-Jun9/ShutterMeta/pkg/types"
)

type Options struct {
	// FFprobePath is the ffprobe binary used by the video fallback.
	// Empty leaves only the embedded tag reader.
	FFprobePath string
	// Sidecar enables the Sony M01.XML date lookup for videos.
	Sidecar bool
	// MakerNotes registers Canon and Nikon maker-note parsers.
	MakerNotes bool
}

// Service holds no per-file state; its methods are safe to call
// concurrently on different paths.
type Service struct {
	reader   *metadata.Reader
	fallback *video.Extractor
	logger   *log.Logger
}

func New(opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	retriever := video.NewContainerRetriever(opts.FFprobePath, opts.Sidecar, logger)
	return &Service{
		reader:   metadata.New(logger, opts.MakerNotes),
		fallback: video.NewExtractor(retriever, logger),
		logger:   logger,
	}
}

// WithRetriever swaps the container metadata backend of the video fallback.
func (s *Service) WithRetriever(r video.Retriever) *Service {
	s.fallback = video.NewExtractor(r, s.logger)
	return s
}

// GetAllMetadata returns every directory of the file. Files the image
// reader does not recognize are read as containers instead, into a single
// directory with an empty name.
func (s *Service) GetAllMetadata(path string) (types.AllMetadata, error) {
	start := time.Now()
	out, err := s.getAll(path)
	s.logger.LogOperation(types.OpGetAllMetadata, path, time.Since(start), err)
	return out, err
}

func (s *Service) getAll(path string) (types.AllMetadata, error) {
	const op = types.OpGetAllMetadata

	doc, err := s.reader.Read(path)
	if errors.Is(err, metadata.ErrUnreadableFormat) {
		s.logger.Debug("image reader rejected file, reading container metadata", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		dir, ferr := s.fallback.Read(path)
		if ferr != nil {
			return nil, newError(op, path, ferr)
		}
		return types.AllMetadata{"": dir}, nil
	}
	if err != nil {
		return nil, newError(op, path, err)
	}

	out := make(types.AllMetadata, len(doc.Directories()))
	for _, d := range doc.Directories() {
		if _, dup := out[d.Name]; dup {
			s.logger.Warn(path, "directory "+d.Name+" appears twice, keeping the last one", nil)
		}
		tags, terr := metadata.FlattenDirectory(d)
		if terr != nil && !errors.Is(terr, metadata.ErrInvalidProperties) {
			s.logger.Warn(path, "dropped property tree of directory "+d.Name, terr)
		}
		out[d.Name] = tags
	}
	return out, nil
}

// newError classifies err into the boundary error kinds.
func newError(op types.Op, path string, err error) *types.MetadataError {
	kind := types.ErrorKindUnexpected
	switch {
	case errors.Is(err, metadata.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		kind = types.ErrorKindNotFound
	case errors.Is(err, metadata.ErrUnreadableFormat):
		kind = types.ErrorKindUnreadableFormat
	}
	return &types.MetadataError{Op: op, Kind: kind, Path: path, Err: err}
}
