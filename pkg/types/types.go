// Package types defines core data structures used across ShutterMeta modules.
package types

import "time"

// ConfigPreset is a saved, named set of extraction settings.
type ConfigPreset struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FFprobePath string    `json:"ffprobe_path,omitempty"`
	MakerNotes  bool      `json:"maker_notes"`
	SidecarXML  bool      `json:"sidecar_xml"`
	Jobs        int       `json:"jobs"`
	LogLevel    string    `json:"log_level,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
