package axisplot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPreset = `
axes:
  - id: temp
    side: left
    name: Temperature
    color: "#ff0000"
    dynamicScaling: true
  - id: load
    side: right
    color: "#00ff00"
series:
  - id: t1
    axisId: temp
    name: Inside
    kind: linear
    valueField: inside
    color: "#aa0000"
  - id: l1
    axisId: load
    name: CPU
    kind: bar
    valueField: cpu
    color: "#00aa00"
timeRangeDays: 3
`

func TestLoadPreset(t *testing.T) {
	config, err := LoadPreset(strings.NewReader(testPreset))
	require.NoError(t, err)

	assert.Equal(t, ChartConfig{
		Axes: []AxisConfig{
			{ID: "temp", Side: SideLeft, DisplayName: "Temperature", Color: "#ff0000", DynamicScaling: true},
			{ID: "load", Side: SideRight, Color: "#00ff00"},
		},
		Series: []SeriesConfig{
			{ID: "t1", AxisID: "temp", DisplayName: "Inside", Kind: KindLinear, ValueField: "inside", Color: "#aa0000"},
			{ID: "l1", AxisID: "load", DisplayName: "CPU", Kind: KindBar, ValueField: "cpu", Color: "#00aa00"},
		},
		TimeRangeDays: 3,
	}, config)
}

func TestLoadPresetErrors(t *testing.T) {
	tests := []struct {
		name        string
		preset      string
		errContains string
	}{
		{
			name:        "empty",
			preset:      "",
			errContains: "preset is empty",
		},
		{
			name:        "unknown key",
			preset:      "timeRangeDays: 1\nzoom: 3\n",
			errContains: "failed to decode preset",
		},
		{
			name:        "not yaml",
			preset:      "axes: [",
			errContains: "failed to decode preset",
		},
		{
			name:        "dangling series",
			preset:      "series:\n  - id: s\n    axisId: nope\n    kind: bar\ntimeRangeDays: 1\n",
			errContains: "invalid preset",
		},
		{
			name:        "time range too long",
			preset:      "timeRangeDays: 100000\n",
			errContains: "invalid preset",
		},
		{
			name:        "missing time range",
			preset:      "axes: []\n",
			errContains: "invalid preset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPreset(strings.NewReader(tt.preset))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadPresetFile(t *testing.T) {
	config, err := LoadPresetFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultChartConfig(), config)

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPreset), 0o644))

	config, err = LoadPresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "load"}, axisIDs(config))

	_, err = LoadPresetFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open preset")
}

func TestDefaultChartConfig(t *testing.T) {
	config := DefaultChartConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, 7, config.TimeRangeDays)

	model := Bind(config, nil)
	assert.Len(t, model.LeftAxes, 2)
	assert.Len(t, model.RightAxes, 2)

	kinds := make([]SeriesKind, len(config.Series))
	for i, series := range config.Series {
		kinds[i] = series.Kind
	}
	assert.Equal(t, []SeriesKind{KindLinear, KindBar, KindArea}, kinds)
}
