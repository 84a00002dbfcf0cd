// Package metadata reads tag directories out of still-image files.
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/On-Jun9/ShutterMeta/internal/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var (
	// ErrUnreadableFormat means the bytes match no supported structure.
	// Callers may retry through a container-level reader.
	ErrUnreadableFormat = errors.New("metadata: unreadable file format")
	ErrNotFound         = errors.New("metadata: file not found")
	ErrNoProperties     = errors.New("metadata: directory has no property tree")
	// ErrInvalidProperties wraps a property tree that failed to parse. The
	// reader has already logged it.
	ErrInvalidProperties = errors.New("metadata: invalid property tree")
)

var (
	registerMakerNotes sync.Once
	// makerNotesOn reports whether goexif runs the maker-note parsers.
	makerNotesOn atomic.Bool
)

type Reader struct {
	logger *log.Logger
}

// New returns a Reader. With makerNotes set, Canon and Nikon maker-note
// parsers are registered with goexif for the whole process.
func New(logger *log.Logger, makerNotes bool) *Reader {
	if logger == nil {
		logger = log.Nop()
	}
	if makerNotes {
		registerMakerNotes.Do(func() {
			exif.RegisterParsers(mknote.All...)
			makerNotesOn.Store(true)
		})
	}
	return &Reader{logger: logger}
}

// Read parses the file at path. Directories without tags are dropped.
func (r *Reader) Read(path string) (*Document, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	b := &builder{path: path, logger: r.logger}

	switch sniff(br) {
	case formatJPEG:
		err = b.readJPEG(br)
	case formatTIFF:
		err = readAll(br, b.readTIFF)
	case formatRawTIFF:
		err = readAll(br, b.readRawTIFF)
	case formatPNG:
		err = b.readPNG(br)
	case formatWebP:
		err = b.readWebP(br)
	case formatHEIF:
		err = readAll(br, b.readHEIF)
	case formatGIF:
		err = b.readGIF(br)
	case formatBMP:
		err = b.readBMP(br)
	case formatRAF:
		err = b.readRAF(br)
	default:
		return nil, ErrUnreadableFormat
	}
	if err != nil {
		return nil, err
	}
	return b.document(), nil
}

// readAll hands formats addressed by absolute offsets the whole file.
func readAll(br *bufio.Reader, read func([]byte) error) error {
	data, err := io.ReadAll(br)
	if err != nil {
		return err
	}
	return read(data)
}

// truncatedError turns an early end of stream into a format error and keeps
// other I/O failures as they are.
func truncatedError(err error, container string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s stream", ErrUnreadableFormat, container)
	}
	return err
}

func openFile(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	return f, nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// builder accumulates directories in the order they are met.
type builder struct {
	path   string
	logger *log.Logger
	dirs   []*Directory
	exifed bool
}

func (b *builder) add(d *Directory) {
	b.dirs = append(b.dirs, d)
}

func (b *builder) document() *Document {
	doc := &Document{}
	for _, d := range b.dirs {
		doc.add(d)
	}
	return doc
}
