package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var allowedExtensions = []string{
	".mp3",
	".wav",
	".flac",
	".ogg",
}

const (
	defaultPollIntervalMS   = 500
	defaultReloadDebounceMS = 500
)

// AllowedExtensions returns the list of supported audio file extensions (lowercase).
func AllowedExtensions() []string {
	result := make([]string, len(allowedExtensions))
	copy(result, allowedExtensions)
	return result
}

// ResolveMusicDir returns the directory relative mapping entries are
// resolved against. Precedence: the command-line override, then
// CARDBOX_MUSIC_DIR, then the current working directory.
func ResolveMusicDir(override string) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv("CARDBOX_MUSIC_DIR"))
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	return absolutePath(dir)
}

// ResolveMappingFile returns the path to the card mapping file. The
// command-line override wins over CARDBOX_MAPPING_FILE; one of the two is
// required.
func ResolveMappingFile(override string) (string, error) {
	path := strings.TrimSpace(override)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CARDBOX_MAPPING_FILE"))
	}
	if path == "" {
		return "", errors.New("mapping file not configured: pass --mapping or set CARDBOX_MAPPING_FILE")
	}

	return absolutePath(path)
}

// PollInterval returns the duration of one control cycle, the time slept
// between sensor polls.
func PollInterval() time.Duration {
	return durationMS("CARDBOX_POLL_INTERVAL_MS", defaultPollIntervalMS)
}

// ReloadDebounce returns the duration to wait before reloading the mapping
// file after file-system change events.
func ReloadDebounce() time.Duration {
	return durationMS("CARDBOX_RELOAD_DEBOUNCE_MS", defaultReloadDebounceMS)
}

// SensorSettings selects the SPI port and GPIO pins the card reader is
// wired to. Empty values use the reader package's defaults.
type SensorSettings struct {
	SPIDevice string
	ResetPin  string
	IRQPin    string
}

type sensorSettingsYAML struct {
	SPIDevice string `yaml:"spi_device"`
	ResetPin  string `yaml:"reset_pin"`
	IRQPin    string `yaml:"irq_pin"`
}

// ResolveSensorSettings returns the reader wiring after applying the YAML
// configuration file (when CARDBOX_CONFIG is set) and environment variable
// overrides.
func ResolveSensorSettings() (SensorSettings, error) {
	var settings SensorSettings

	configPath := strings.TrimSpace(os.Getenv("CARDBOX_CONFIG"))
	if configPath != "" {
		resolved, err := absolutePath(configPath)
		if err != nil {
			return SensorSettings{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return SensorSettings{}, err
		}
		var yamlConfig sensorSettingsYAML
		if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
			return SensorSettings{}, err
		}
		settings.SPIDevice = strings.TrimSpace(yamlConfig.SPIDevice)
		settings.ResetPin = strings.TrimSpace(yamlConfig.ResetPin)
		settings.IRQPin = strings.TrimSpace(yamlConfig.IRQPin)
	}

	if value := strings.TrimSpace(os.Getenv("CARDBOX_SPI_DEVICE")); value != "" {
		settings.SPIDevice = value
	}
	if value := strings.TrimSpace(os.Getenv("CARDBOX_RESET_PIN")); value != "" {
		settings.ResetPin = value
	}
	if value := strings.TrimSpace(os.Getenv("CARDBOX_IRQ_PIN")); value != "" {
		settings.IRQPin = value
	}

	return settings, nil
}

func durationMS(envName string, fallback int) time.Duration {
	value := strings.TrimSpace(os.Getenv(envName))
	if value == "" {
		return time.Duration(fallback) * time.Millisecond
	}

	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return time.Duration(fallback) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

func absolutePath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
