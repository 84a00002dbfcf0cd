package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestDefaultConfig_Values는 테스트 코드 동작을 검증하거나 보조합니다.
func TestDefaultConfig_Values(t *testing.T) {
	// 기본 설정은 maker note/sidecar 활성화, info 레벨, stderr 로그를 사용해야 한다.
	cfg := DefaultConfig()

	if !cfg.MakerNotes || !cfg.SidecarXML {
		t.Fatalf("expected maker notes and sidecar enabled: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.LogFile != "" {
		t.Fatalf("expected empty log file, got %s", cfg.LogFile)
	}

	expectedJobs := runtime.NumCPU()
	if expectedJobs < 1 {
		expectedJobs = 4
	}
	if cfg.Jobs != expectedJobs {
		t.Fatalf("expected jobs=%d, got %d", expectedJobs, cfg.Jobs)
	}
}

// TestConfigValidate_FillsDefaults는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigValidate_FillsDefaults(t *testing.T) {
	// 비어 있는 log level은 info로, 대소문자는 소문자로 보정되어야 한다.
	cfg := &Config{Jobs: 2}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info level, got %s", cfg.LogLevel)
	}

	cfg = &Config{Jobs: 2, LogLevel: " WARN "}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected warn level, got %s", cfg.LogLevel)
	}
}

// TestConfigValidate_NormalizesNegativeJobs는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigValidate_NormalizesNegativeJobs(t *testing.T) {
	// 음수 jobs 값은 안전한 최소값(1)으로 정규화되어야 한다.
	cfg := &Config{Jobs: -2}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.Jobs != 1 {
		t.Fatalf("expected jobs=1, got %d", cfg.Jobs)
	}
}

// TestConfigValidate_RejectsUnknownLogLevel는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigValidate_RejectsUnknownLogLevel(t *testing.T) {
	// 알 수 없는 log level은 ValidationError(field=log_level)로 반환되어야 한다.
	cfg := &Config{Jobs: 1, LogLevel: "verbose"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if validationErr.Field != "log_level" {
		t.Fatalf("expected field log_level, got %s", validationErr.Field)
	}
}

// TestConfigValidate_RejectsMissingFFprobe는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigValidate_RejectsMissingFFprobe(t *testing.T) {
	// 존재하지 않는 ffprobe 경로는 ValidationError(field=ffprobe_path)로 반환되어야 한다.
	cfg := &Config{Jobs: 1, FFprobePath: filepath.Join(t.TempDir(), "missing-ffprobe")}

	err := cfg.Validate()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "ffprobe_path" {
		t.Fatalf("expected field ffprobe_path, got %s", validationErr.Field)
	}
}

// TestConfigValidate_AcceptsExecutableFFprobe는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigValidate_AcceptsExecutableFFprobe(t *testing.T) {
	// 실행 가능한 파일 경로는 그대로 통과해야 한다.
	bin := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("failed to write fake ffprobe: %v", err)
	}

	cfg := &Config{Jobs: 1, FFprobePath: bin}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.FFprobePath != bin {
		t.Fatalf("unexpected ffprobe path: %s", cfg.FFprobePath)
	}
}

// TestLoadFromFile_ReadsYAMLIntoConfig는 테스트 코드 동작을 검증하거나 보조합니다.
func TestLoadFromFile_ReadsYAMLIntoConfig(t *testing.T) {
	// YAML 파일 로드 시 명시 필드가 Config에 반영되고 나머지는 기본값을 유지해야 한다.
	yamlContent := strings.Join([]string{
		"jobs: 8",
		"maker_notes: false",
		"log_level: debug",
		"log_json: true",
	}, "\n")

	filePath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(filePath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(filePath)
	if err != nil {
		t.Fatalf("load from file failed: %v", err)
	}
	if cfg.Jobs != 8 || cfg.MakerNotes {
		t.Fatalf("unexpected jobs/maker_notes: %+v", cfg)
	}
	if cfg.LogLevel != "debug" || !cfg.LogJSON {
		t.Fatalf("unexpected log settings: %+v", cfg)
	}
	if !cfg.SidecarXML {
		t.Fatalf("expected default sidecar_xml to survive: %+v", cfg)
	}
}

// TestLoadFromFile_ReturnsReadError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestLoadFromFile_ReturnsReadError(t *testing.T) {
	// 존재하지 않는 설정 파일은 read 에러를 반환해야 한다.
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected read error for missing config file")
	}
}

// TestLoadFromFile_ReturnsYAMLParseError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestLoadFromFile_ReturnsYAMLParseError(t *testing.T) {
	// 잘못된 YAML 문법은 unmarshal 에러를 반환해야 한다.
	filePath := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(filePath, []byte("jobs: ["), 0644); err != nil {
		t.Fatalf("failed to write broken yaml: %v", err)
	}

	_, err := LoadFromFile(filePath)
	if err == nil {
		t.Fatal("expected yaml parse error")
	}
}

// TestValidationError_ErrorFormat는 테스트 코드 동작을 검증하거나 보조합니다.
func TestValidationError_ErrorFormat(t *testing.T) {
	// ValidationError.Error()는 "field: message" 형식을 반환해야 한다.
	err := (&ValidationError{Field: "log_level", Message: "is invalid"}).Error()
	if err != "log_level: is invalid" {
		t.Fatalf("unexpected validation error format: %s", err)
	}
}
