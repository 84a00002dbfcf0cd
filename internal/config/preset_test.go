package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/On-Jun9/ShutterMeta/pkg/types"
)

// TestConfigToPresetAndBack는 테스트 코드 동작을 검증하거나 보조합니다.
func TestConfigToPresetAndBack(t *testing.T) {
	// Config <-> Preset 변환 시 핵심 필드가 보존되어야 한다.
	cfg := &Config{
		FFprobePath: "/opt/ffmpeg/bin/ffprobe",
		MakerNotes:  false,
		SidecarXML:  true,
		Jobs:        3,
		LogFile:     "/tmp/meta.log",
		LogLevel:    "debug",
	}

	preset := ConfigToPreset(cfg, "archive", "desc")
	roundTrip := PresetToConfig(preset)

	if roundTrip.FFprobePath != cfg.FFprobePath || roundTrip.Jobs != cfg.Jobs {
		t.Fatalf("ffprobe/jobs mismatch after round trip: %+v", roundTrip)
	}
	if roundTrip.MakerNotes || !roundTrip.SidecarXML {
		t.Fatalf("toggle mismatch after round trip: %+v", roundTrip)
	}
	if roundTrip.LogLevel != "debug" {
		t.Fatalf("log level mismatch after round trip: %+v", roundTrip)
	}
	// 로그 파일 경로는 preset에 저장되지 않는다.
	if roundTrip.LogFile != "" {
		t.Fatalf("expected log file to stay default, got %s", roundTrip.LogFile)
	}
}

// TestPresetManager_SaveLoadListDelete는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_SaveLoadListDelete(t *testing.T) {
	// 저장/로드/목록/삭제 기본 플로우가 정상 동작해야 한다.
	dir := t.TempDir()
	pm := &PresetManager{presetsDir: dir}

	preset := &types.ConfigPreset{
		Name:       "test",
		MakerNotes: true,
		Jobs:       2,
		LogLevel:   "warn",
	}

	if err := pm.SavePreset(preset); err != nil {
		t.Fatalf("save preset failed: %v", err)
	}

	loaded, err := pm.LoadPreset("test")
	if err != nil {
		t.Fatalf("load preset failed: %v", err)
	}
	if loaded.Name != "test" || loaded.Jobs != 2 || loaded.LogLevel != "warn" {
		t.Fatalf("unexpected loaded preset: %+v", loaded)
	}

	presets, err := pm.ListPresets()
	if err != nil {
		t.Fatalf("list presets failed: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}

	if err := pm.DeletePreset("test"); err != nil {
		t.Fatalf("delete preset failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "test.json")); !os.IsNotExist(err) {
		t.Fatalf("expected preset file to be deleted, stat error=%v", err)
	}
}

// TestPresetManager_SavePreset_EmptyNameFails는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_SavePreset_EmptyNameFails(t *testing.T) {
	// 이름 없는 preset 저장은 거부되어야 한다.
	pm := &PresetManager{presetsDir: t.TempDir()}
	err := pm.SavePreset(&types.ConfigPreset{Name: ""})
	if err == nil {
		t.Fatal("expected error for empty preset name")
	}
}

// TestPresetManager_RejectsPathLikeNames는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_RejectsPathLikeNames(t *testing.T) {
	// 경로 구분자나 ".."을 포함한 이름은 presetsDir 밖을 가리킬 수 없어야 한다.
	pm := &PresetManager{presetsDir: t.TempDir()}
	for _, name := range []string{"../escape", "a/b", `a\b`, ".."} {
		if err := pm.SavePreset(&types.ConfigPreset{Name: name}); err == nil {
			t.Fatalf("expected error for preset name %q", name)
		}
		if _, err := pm.LoadPreset(name); err == nil {
			t.Fatalf("expected load error for preset name %q", name)
		}
	}
}

// TestPresetManager_ListPresets_SkipsInvalidJSON는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_ListPresets_SkipsInvalidJSON(t *testing.T) {
	// 깨진 JSON 파일은 목록에서 건너뛰고 정상 preset만 반환해야 한다.
	dir := t.TempDir()
	pm := &PresetManager{presetsDir: dir}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("failed to write broken preset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("ignore"), 0644); err != nil {
		t.Fatalf("failed to write txt file: %v", err)
	}

	good := &types.ConfigPreset{Name: "ok", Jobs: 1}
	if err := pm.SavePreset(good); err != nil {
		t.Fatalf("save good preset failed: %v", err)
	}

	presets, err := pm.ListPresets()
	if err != nil {
		t.Fatalf("list presets failed: %v", err)
	}
	if len(presets) != 1 || presets[0].Name != "ok" {
		t.Fatalf("unexpected presets result: %+v", presets)
	}
}

// TestNewPresetManager_CreatesDefaultDirectory는 테스트 코드 동작을 검증하거나 보조합니다.
func TestNewPresetManager_CreatesDefaultDirectory(t *testing.T) {
	// NewPresetManager는 HOME 기준 ~/.shuttermeta/presets 디렉터리를 생성해야 한다.
	home := t.TempDir()
	t.Setenv("HOME", home)

	pm, err := NewPresetManager()
	if err != nil {
		t.Fatalf("new preset manager failed: %v", err)
	}
	if pm == nil {
		t.Fatal("expected non-nil preset manager")
	}
	if _, err := os.Stat(filepath.Join(home, ".shuttermeta", "presets")); err != nil {
		t.Fatalf("expected presets dir to exist: %v", err)
	}
}

// TestNewPresetManager_ReturnsErrorWhenHomeIsFile는 테스트 코드 동작을 검증하거나 보조합니다.
func TestNewPresetManager_ReturnsErrorWhenHomeIsFile(t *testing.T) {
	// HOME이 파일이면 presets 디렉터리 생성에 실패해야 한다.
	homeFile := filepath.Join(t.TempDir(), "home-file")
	if err := os.WriteFile(homeFile, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create fake home file: %v", err)
	}
	t.Setenv("HOME", homeFile)

	_, err := NewPresetManager()
	if err == nil {
		t.Fatal("expected NewPresetManager error")
	}
}

// TestPresetManager_SavePreset_ReturnsWriteError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_SavePreset_ReturnsWriteError(t *testing.T) {
	// presetsDir가 파일이면 preset 저장 시 write 에러가 발생해야 한다.
	blocker := filepath.Join(t.TempDir(), "not-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	pm := &PresetManager{presetsDir: blocker}
	err := pm.SavePreset(&types.ConfigPreset{Name: "demo"})
	if err == nil {
		t.Fatal("expected save preset write error")
	}
}

// TestPresetManager_LoadPreset_ReturnsReadError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_LoadPreset_ReturnsReadError(t *testing.T) {
	// 없는 preset 로드는 read 에러를 반환해야 한다.
	pm := &PresetManager{presetsDir: t.TempDir()}
	_, err := pm.LoadPreset("missing")
	if err == nil {
		t.Fatal("expected load preset read error")
	}
}

// TestPresetManager_DeletePreset_ReturnsErrorWhenMissing는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_DeletePreset_ReturnsErrorWhenMissing(t *testing.T) {
	// 없는 preset 삭제는 remove 에러를 반환해야 한다.
	pm := &PresetManager{presetsDir: t.TempDir()}
	err := pm.DeletePreset("missing")
	if err == nil {
		t.Fatal("expected delete preset error")
	}
}

// TestPresetManager_ListPresets_ReturnsReadDirError는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPresetManager_ListPresets_ReturnsReadDirError(t *testing.T) {
	// presetsDir가 없으면 ReadDir 에러를 반환해야 한다.
	pm := &PresetManager{presetsDir: filepath.Join(t.TempDir(), "not-exists")}
	_, err := pm.ListPresets()
	if err == nil {
		t.Fatal("expected list presets read dir error")
	}
}
