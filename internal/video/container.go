package video

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/On-Jun9/ShutterMeta/internal/log"
	"github.com/dhowden/tag"
)

// ContainerRetriever reads container metadata with ffprobe and falls back
// to embedded tags for anything ffprobe does not report.
type ContainerRetriever struct {
	// FFprobePath is the ffprobe binary. Empty disables probing.
	FFprobePath string
	// Sidecar enables the Sony M01.XML date lookup.
	Sidecar bool

	run    Runner
	logger *log.Logger
}

func NewContainerRetriever(ffprobePath string, sidecar bool, logger *log.Logger) *ContainerRetriever {
	if logger == nil {
		logger = log.Nop()
	}
	return &ContainerRetriever{
		FFprobePath: ffprobePath,
		Sidecar:     sidecar,
		run:         execRunner,
		logger:      logger,
	}
}

// LookupFFprobe returns the ffprobe path from PATH, or "" when missing.
func LookupFFprobe() string {
	p, err := exec.LookPath("ffprobe")
	if err != nil {
		return ""
	}
	return p
}

// Open holds the file open until Close. It fails when neither ffprobe nor
// the tag reader understands the file.
func (r *ContainerRetriever) Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src := &containerSource{file: f, path: path, sidecar: r.Sidecar, logger: r.logger}

	if r.FFprobePath != "" {
		probed, err := runProbe(r.run, r.FFprobePath, path)
		if err != nil {
			r.logger.Warn(path, "ffprobe could not read container", err)
		} else {
			src.probed = probed
		}
	}

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		src.tagged = tagValues(m)
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		r.logger.Debug("tag reader skipped file", map[string]string{"path": path, "error": err.Error()})
	}

	if src.probed == nil && src.tagged == nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoContainerMetadata, path)
	}
	return src, nil
}

type containerSource struct {
	file    *os.File
	path    string
	sidecar bool
	logger  *log.Logger

	probed map[Key]string
	tagged map[Key]string
}

func (s *containerSource) Extract(key Key) (string, bool) {
	if v, ok := s.probed[key]; ok {
		return v, true
	}
	if v, ok := s.tagged[key]; ok {
		return v, true
	}
	if key == KeyDate && s.sidecar {
		t, err := SidecarDate(s.path)
		if err == nil {
			return t.UTC().Format(dateLayout), true
		}
		if !errors.Is(err, ErrNoSidecar) {
			s.logger.Warn(s.path, "sidecar date unreadable", err)
		}
	}
	return "", false
}

func (s *containerSource) Close() error {
	return s.file.Close()
}
