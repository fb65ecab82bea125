// Package config loads segmenter settings from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"panel-segmenter/internal/cv"
	"panel-segmenter/internal/order"
	"panel-segmenter/internal/segment"
)

// DefaultAddr is the server listen address when PANELSEG_ADDR is unset.
const DefaultAddr = ":8080"

// ErrPresetConflict is returned when a requested preset differs from the one
// a config file names.
var ErrPresetConflict = errors.New("preset conflicts with config file")

// Config is a complete segmenter configuration.
type Config struct {
	segment.Params `yaml:",inline"`

	Direction string    `yaml:"direction"` // "rtl" or "ltr"
	Masks     cv.Params `yaml:"masks"`
}

// Default returns the configuration of the named preset.
func Default(preset string) (Config, error) {
	params, err := segment.Preset(preset)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Params:    params,
		Direction: params.Direction.String(),
		Masks:     cv.DefaultParams(),
	}, nil
}

// Load reads a YAML configuration file. Fields absent from the file keep
// the values of the preset it names.
func Load(path string) (Config, error) {
	return LoadWith(path, "")
}

// LoadWith is Load with preset as the base when the file names none.
func LoadWith(path, preset string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseWith(data, preset)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (Config, error) {
	return ParseWith(data, "")
}

// ParseWith decodes a YAML configuration document over preset. A document
// naming a different preset is rejected with ErrPresetConflict.
func ParseWith(data []byte, preset string) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	switch {
	case head.Preset == "":
		head.Preset = preset
	case preset != "" && preset != head.Preset:
		return Config{}, fmt.Errorf("%w: %q requested, file names %q", ErrPresetConflict, preset, head.Preset)
	}

	cfg, err := Default(head.Preset)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	dir, err := order.ParseDirection(cfg.Direction)
	if err != nil {
		return Config{}, err
	}
	cfg.Params.Direction = dir
	if err := cfg.Params.Validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.Masks.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Env holds the settings read from the environment.
type Env struct {
	Preset      string // Empty defers to the config file, then improved
	ConfigPath  string
	Addr        string
	JPEGQuality int // 0 keeps the configured quality
	Debug       bool
}

// FromEnv loads an optional .env file and reads the PANELSEG_ variables.
func FromEnv() (Env, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	env := Env{
		Preset:     getEnv("PANELSEG_PRESET", ""),
		ConfigPath: getEnv("PANELSEG_CONFIG", ""),
		Addr:       getEnv("PANELSEG_ADDR", DefaultAddr),
		Debug:      getEnvBool("PANELSEG_DEBUG", false),
	}
	if v := getEnv("PANELSEG_JPEG_QUALITY", ""); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return Env{}, fmt.Errorf("PANELSEG_JPEG_QUALITY: %w", err)
		}
		env.JPEGQuality = q
	}
	return env, nil
}

// Resolve builds the configuration selected by env: the config file over the
// preset when one is named, otherwise the preset alone, then the quality
// override.
func (e Env) Resolve() (Config, error) {
	var cfg Config
	var err error
	if e.ConfigPath != "" {
		cfg, err = LoadWith(e.ConfigPath, e.Preset)
	} else {
		cfg, err = Default(e.Preset)
	}
	if err != nil {
		return Config{}, err
	}
	if e.JPEGQuality != 0 {
		cfg.Params = cfg.Params.WithJPEGQuality(e.JPEGQuality)
		if err := cfg.Params.Validate(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}
