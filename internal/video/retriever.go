package video

import "errors"

// ErrNoContainerMetadata means no backend could read the file.
var ErrNoContainerMetadata = errors.New("video: no container metadata available")

// Source is an open metadata handle bound to one file. Close must be called
// on every path once the source is no longer needed.
type Source interface {
	Extract(key Key) (string, bool)
	Close() error
}

// Retriever opens Sources.
type Retriever interface {
	Open(path string) (Source, error)
}
