package config

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/On-Jun9/ShutterMeta/internal/video"
	"gopkg.in/yaml.v3"
)

type Config struct {
	FFprobePath string `yaml:"ffprobe_path" json:"ffprobe_path"`
	MakerNotes  bool   `yaml:"maker_notes" json:"maker_notes"`
	SidecarXML  bool   `yaml:"sidecar_xml" json:"sidecar_xml"`
	Jobs        int    `yaml:"jobs" json:"jobs"`
	LogFile     string `yaml:"log_file" json:"log_file"`
	LogJSON     bool   `yaml:"log_json" json:"log_json"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	return &Config{
		FFprobePath: video.LookupFFprobe(),
		MakerNotes:  true,
		SidecarXML:  true,
		Jobs:        jobs,
		LogFile:     "",
		LogJSON:     false,
		LogLevel:    "info",
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate normalizes jobs and log level. An explicit ffprobe path must
// resolve to an executable.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		c.Jobs = 1
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if !logLevels[c.LogLevel] {
		return &ValidationError{Field: "log_level", Message: "must be one of debug, info, warn, error"}
	}

	if c.FFprobePath != "" {
		resolved, err := exec.LookPath(c.FFprobePath)
		if err != nil {
			return &ValidationError{Field: "ffprobe_path", Message: "ffprobe not found: " + c.FFprobePath}
		}
		c.FFprobePath = resolved
	}

	return nil
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
