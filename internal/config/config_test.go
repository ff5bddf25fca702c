package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAllowedExtensionsIsolation(t *testing.T) {
	first := AllowedExtensions()
	second := AllowedExtensions()

	if len(first) == 0 {
		t.Fatalf("expected allowed extensions to be non-empty")
	}

	first[0] = ".doesnotexist"
	if first[0] == second[0] {
		t.Fatalf("mutating returned slice should not affect internal configuration")
	}
}

func TestResolveMusicDirPrecedence(t *testing.T) {
	temp := t.TempDir()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})

	if err := os.Chdir(temp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	t.Setenv("CARDBOX_MUSIC_DIR", "")

	dir, err := ResolveMusicDir("")
	if err != nil {
		t.Fatalf("ResolveMusicDir default: %v", err)
	}
	assertSamePath(t, dir, temp)

	envDir := filepath.Join(temp, "env-music")
	if err := os.Mkdir(envDir, 0o755); err != nil {
		t.Fatalf("mkdir env dir: %v", err)
	}
	t.Setenv("CARDBOX_MUSIC_DIR", envDir)

	dir, err = ResolveMusicDir("")
	if err != nil {
		t.Fatalf("ResolveMusicDir env: %v", err)
	}
	assertSamePath(t, dir, envDir)

	flagDir := filepath.Join(temp, "flag-music")
	if err := os.Mkdir(flagDir, 0o755); err != nil {
		t.Fatalf("mkdir flag dir: %v", err)
	}

	dir, err = ResolveMusicDir(flagDir)
	if err != nil {
		t.Fatalf("ResolveMusicDir flag: %v", err)
	}
	assertSamePath(t, dir, flagDir)
}

func TestResolveMusicDirTildeExpansion(t *testing.T) {
	temp := t.TempDir()
	home := filepath.Join(temp, "home")
	if err := os.MkdirAll(filepath.Join(home, "music"), 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}

	t.Setenv("HOME", home)

	dir, err := ResolveMusicDir("~/music")
	if err != nil {
		t.Fatalf("ResolveMusicDir tilde: %v", err)
	}
	assertSamePath(t, dir, filepath.Join(home, "music"))
}

func TestResolveMappingFileRequired(t *testing.T) {
	t.Setenv("CARDBOX_MAPPING_FILE", "")

	if _, err := ResolveMappingFile(""); err == nil {
		t.Fatalf("expected error when no mapping file is configured")
	}

	temp := t.TempDir()
	envFile := filepath.Join(temp, "env.map")
	t.Setenv("CARDBOX_MAPPING_FILE", envFile)

	path, err := ResolveMappingFile("")
	if err != nil {
		t.Fatalf("ResolveMappingFile env: %v", err)
	}
	if path != envFile {
		t.Fatalf("expected %s, got %s", envFile, path)
	}

	flagFile := filepath.Join(temp, "flag.map")
	path, err = ResolveMappingFile(flagFile)
	if err != nil {
		t.Fatalf("ResolveMappingFile flag: %v", err)
	}
	if path != flagFile {
		t.Fatalf("flag should win over env, got %s", path)
	}
}

func TestPollInterval(t *testing.T) {
	t.Setenv("CARDBOX_POLL_INTERVAL_MS", "")
	if PollInterval() != 500*time.Millisecond {
		t.Fatalf("expected default poll interval")
	}

	t.Setenv("CARDBOX_POLL_INTERVAL_MS", "250")
	if PollInterval() != 250*time.Millisecond {
		t.Fatalf("expected custom poll interval")
	}

	t.Setenv("CARDBOX_POLL_INTERVAL_MS", "not-a-number")
	if PollInterval() != 500*time.Millisecond {
		t.Fatalf("expected fallback on parse error")
	}

	t.Setenv("CARDBOX_POLL_INTERVAL_MS", "0")
	if PollInterval() != 500*time.Millisecond {
		t.Fatalf("expected fallback on zero interval")
	}
}

func TestReloadDebounce(t *testing.T) {
	t.Setenv("CARDBOX_RELOAD_DEBOUNCE_MS", "")
	if ReloadDebounce() != 500*time.Millisecond {
		t.Fatalf("expected default debounce")
	}

	t.Setenv("CARDBOX_RELOAD_DEBOUNCE_MS", "1500")
	if ReloadDebounce() != 1500*time.Millisecond {
		t.Fatalf("expected custom debounce")
	}
}

func TestResolveSensorSettingsFromFileAndEnv(t *testing.T) {
	t.Setenv("CARDBOX_CONFIG", "")
	t.Setenv("CARDBOX_SPI_DEVICE", "")
	t.Setenv("CARDBOX_RESET_PIN", "")
	t.Setenv("CARDBOX_IRQ_PIN", "")

	settings, err := ResolveSensorSettings()
	if err != nil {
		t.Fatalf("ResolveSensorSettings defaults: %v", err)
	}
	if settings != (SensorSettings{}) {
		t.Fatalf("expected empty defaults, got %+v", settings)
	}

	temp := t.TempDir()
	configPath := filepath.Join(temp, "cardbox.yaml")
	content := "" +
		"spi_device: /dev/spidev0.0\n" +
		"reset_pin: \"25\"\n" +
		"irq_pin: \"24\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CARDBOX_CONFIG", configPath)

	settings, err = ResolveSensorSettings()
	if err != nil {
		t.Fatalf("ResolveSensorSettings file: %v", err)
	}
	if settings.SPIDevice != "/dev/spidev0.0" || settings.ResetPin != "25" || settings.IRQPin != "24" {
		t.Fatalf("expected file-derived settings, got %+v", settings)
	}

	t.Setenv("CARDBOX_RESET_PIN", "22")
	settings, err = ResolveSensorSettings()
	if err != nil {
		t.Fatalf("ResolveSensorSettings env override: %v", err)
	}
	if settings.ResetPin != "22" {
		t.Fatalf("expected env override to win, got %s", settings.ResetPin)
	}
}

func assertSamePath(t *testing.T, got, want string) {
	t.Helper()
	resolvedGot, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("eval symlinks for %s: %v", got, err)
	}
	resolvedWant, err := filepath.EvalSymlinks(want)
	if err != nil {
		t.Fatalf("eval symlinks for %s: %v", want, err)
	}
	if resolvedGot != resolvedWant {
		t.Fatalf("expected %s, got %s", resolvedWant, resolvedGot)
	}
}
