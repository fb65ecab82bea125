package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-segmenter/internal/cv"
	"panel-segmenter/internal/gridcut"
	"panel-segmenter/internal/order"
	"panel-segmenter/internal/segment"
)

func TestParseOverlaysPreset(t *testing.T) {
	cfg, err := Parse([]byte(`
preset: classic
direction: ltr
jpeg_quality: 90
lines:
  angle_deviation: 2
  hough_threshold: 40
contour:
  block_sizes: [11]
masks:
  close_size: 9
`))
	require.NoError(t, err)

	want := segment.ClassicParams()
	assert.Equal(t, segment.PresetClassic, cfg.Name)
	assert.Equal(t, order.LeftToRight, cfg.Params.Direction)
	assert.Equal(t, 90, cfg.JPEGQuality)
	assert.Equal(t, 2.0, cfg.Lines.AngleDeviation)
	assert.Equal(t, 40, cfg.Lines.HoughThreshold)
	assert.Equal(t, want.Lines.HoughLineLength, cfg.Lines.HoughLineLength)
	assert.Equal(t, want.Lines.WidthBorderFactor, cfg.Lines.WidthBorderFactor)
	assert.Equal(t, []int{11}, cfg.Contour.BlockSizes)
	assert.Equal(t, want.Contour.Biases, cfg.Contour.Biases)
	assert.Equal(t, 9, cfg.Masks.CloseSize)
	assert.Equal(t, cv.DefaultParams().EdgeHigh, cfg.Masks.EdgeHigh)
}

func TestParseEmptyIsImproved(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, segment.ImprovedParams(), cfg.Params)
	assert.Equal(t, "rtl", cfg.Direction)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("preset: fancy"))
	assert.ErrorIs(t, err, segment.ErrUnknownPreset)

	_, err = Parse([]byte("direction: up"))
	assert.ErrorContains(t, err, "direction")

	_, err = Parse([]byte("lines: [1, 2"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Parse([]byte("lines:\n  angle_deviation: 60\n"))
	assert.ErrorContains(t, err, "angle deviation")
}

func TestParseRejectsDetectorSettings(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"even blur", "masks:\n  blur_size: 4\n", "blur size"},
		{"zero close kernel", "masks:\n  close_size: 0\n", "close_size"},
		{"edge thresholds reversed", "masks:\n  edge_low: 250\n", "edge thresholds"},
		{"zero hough threshold", "lines:\n  hough_threshold: 0\n", "hough threshold"},
		{"negative line gap", "preset: classic\nlines:\n  hough_line_gap: -2\n", "hough line length"},
		{"canny above one", "lines:\n  canny_high: 2\n", "canny thresholds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseWithPreset(t *testing.T) {
	cfg, err := ParseWith([]byte("jpeg_quality: 70\n"), segment.PresetClassic)
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)
	assert.Equal(t, gridcut.ClassicParams(), cfg.Lines)
	assert.Equal(t, 70, cfg.JPEGQuality)

	cfg, err = ParseWith([]byte("preset: classic\n"), segment.PresetClassic)
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)

	cfg, err = ParseWith([]byte("preset: classic\n"), "")
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)

	_, err = ParseWith([]byte("preset: classic\n"), segment.PresetImproved)
	assert.ErrorIs(t, err, ErrPresetConflict)

	_, err = ParseWith(nil, "fancy")
	assert.ErrorIs(t, err, segment.ErrUnknownPreset)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lines:\n  merge_distance: 12\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, gridcut.DefaultParams().WithMergeDistance(12), cfg.Lines)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PANELSEG_PRESET", "classic")
	t.Setenv("PANELSEG_CONFIG", "")
	t.Setenv("PANELSEG_ADDR", "")
	t.Setenv("PANELSEG_JPEG_QUALITY", "60")
	t.Setenv("PANELSEG_DEBUG", "yes")

	env, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Env{Preset: "classic", Addr: DefaultAddr, JPEGQuality: 60, Debug: true}, env)

	cfg, err := env.Resolve()
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)
	assert.Equal(t, 60, cfg.JPEGQuality)
}

func TestFromEnvBadQuality(t *testing.T) {
	t.Setenv("PANELSEG_JPEG_QUALITY", "high")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "PANELSEG_JPEG_QUALITY")

	_, err = Env{Preset: segment.PresetImproved, JPEGQuality: 101}.Resolve()
	assert.ErrorContains(t, err, "jpeg quality")
}

func TestResolveConfigFile(t *testing.T) {
	dir := t.TempDir()
	named := filepath.Join(dir, "classic.yaml")
	require.NoError(t, os.WriteFile(named, []byte("preset: classic\n"), 0o644))
	plain := filepath.Join(dir, "plain.yaml")
	require.NoError(t, os.WriteFile(plain, []byte("jpeg_quality: 75\n"), 0o644))

	cfg, err := Env{ConfigPath: named}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)

	// The env preset is the base of a file that names none.
	cfg, err = Env{Preset: segment.PresetClassic, ConfigPath: plain}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, segment.PresetClassic, cfg.Name)
	assert.Equal(t, 75, cfg.JPEGQuality)

	cfg, err = Env{ConfigPath: plain}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, segment.PresetImproved, cfg.Name)

	_, err = Env{Preset: segment.PresetImproved, ConfigPath: named}.Resolve()
	assert.ErrorIs(t, err, ErrPresetConflict)
}

func TestFromEnvPresetDefersToConfig(t *testing.T) {
	t.Setenv("PANELSEG_PRESET", "")
	t.Setenv("PANELSEG_CONFIG", "")
	t.Setenv("PANELSEG_JPEG_QUALITY", "")

	env, err := FromEnv()
	require.NoError(t, err)
	assert.Empty(t, env.Preset)

	cfg, err := env.Resolve()
	require.NoError(t, err)
	assert.Equal(t, segment.PresetImproved, cfg.Name)
}
