package types

import (
	"errors"
	"fmt"
	"time"
)

// AllMetadata is the full dump: directory name -> tag name -> description.
// The fallback video directory uses the empty name.
type AllMetadata map[string]map[string]string

// CatalogRecord is the indexing subset of a file's metadata.
// Absent fields are nil and omitted from JSON.
type CatalogRecord struct {
	// DateMillis is the original capture time in epoch milliseconds,
	// interpreted in the local system time zone.
	DateMillis *int64 `json:"dateMillis,omitempty"`
	// Latitude and Longitude are signed decimal degrees.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	// Keywords holds every keyword prefixed by a single space (" a b").
	Keywords *string `json:"keywords,omitempty"`
}

// OverlayRecord holds pre-formatted exposure strings for on-screen display.
type OverlayRecord struct {
	Aperture     *string `json:"aperture,omitempty"`
	ExposureTime *string `json:"exposureTime,omitempty"`
	FocalLength  *string `json:"focalLength,omitempty"`
	ISO          *string `json:"iso,omitempty"`
}

// Op identifies the boundary operation an error came from.
type Op string

const (
	OpGetAllMetadata     Op = "getAllMetadata"
	OpGetCatalogMetadata Op = "getCatalogMetadata"
	OpGetOverlayMetadata Op = "getOverlayMetadata"
)

// ErrorKind classifies a fatal metadata error.
type ErrorKind string

const (
	ErrorKindNotFound         ErrorKind = "notfound"
	ErrorKindUnreadableFormat ErrorKind = "unreadableformat"
	ErrorKindUnexpected       ErrorKind = "exception"
)

// MetadataError is the only error shape returned by the boundary operations.
type MetadataError struct {
	Op      Op
	Kind    ErrorKind
	Path    string
	Message string
	Err     error
}

func (e *MetadataError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "failed to get metadata for path=" + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s-%s: %s (%v)", e.Op, e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s-%s: %s", e.Op, e.Kind, msg)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *MetadataError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var me *MetadataError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound metadata error.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrorKindNotFound
}

// BatchResult is the outcome of one operation in a batch run.
type BatchResult struct {
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// BatchSummary contains statistics for a completed batch run.
type BatchSummary struct {
	Op        Op            `json:"op"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	NotFound  int           `json:"notFound"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"durationNs"`
}
