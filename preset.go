package axisplot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultChartConfig is the chart shown when no preset is given: four axes
// (two per side) and three series, one of each kind, over the last week.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Axes: []AxisConfig{
			{ID: "voltage-axis", Side: SideLeft, DisplayName: "Voltage", Color: "#FF5733", DynamicScaling: true},
			{ID: "pressure-axis", Side: SideLeft, DisplayName: "Pressure", Color: "#3498DB", DynamicScaling: true},
			{ID: "flow-axis", Side: SideRight, DisplayName: "Flow", Color: "#2ECC71", DynamicScaling: true},
			{ID: "power-axis", Side: SideRight, DisplayName: "Power", Color: "#F08080", DynamicScaling: true},
		},
		Series: []SeriesConfig{
			{ID: "series-1", AxisID: "voltage-axis", DisplayName: "Voltage Series", Kind: KindLinear, ValueField: "voltage", Color: "#FF5733"},
			{ID: "series-2", AxisID: "pressure-axis", DisplayName: "Pressure Series", Kind: KindBar, ValueField: "pressure", Color: "#3498DB"},
			{ID: "series-3", AxisID: "flow-axis", DisplayName: "Flow Series", Kind: KindArea, ValueField: "flow", Color: "#2ECC71"},
		},
		TimeRangeDays: 7,
	}
}

// LoadPreset decodes a YAML chart configuration and validates it. Unknown
// keys are rejected so typos do not silently drop settings.
func LoadPreset(r io.Reader) (ChartConfig, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var config ChartConfig
	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return ChartConfig{}, fmt.Errorf("preset is empty")
		}
		return ChartConfig{}, fmt.Errorf("failed to decode preset: %w", err)
	}

	if err := config.Validate(); err != nil {
		return ChartConfig{}, fmt.Errorf("invalid preset: %w", err)
	}

	return config, nil
}

// LoadPresetFile loads a preset from path, or returns DefaultChartConfig when
// path is empty.
func LoadPresetFile(path string) (ChartConfig, error) {
	if path == "" {
		return DefaultChartConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return ChartConfig{}, fmt.Errorf("failed to open preset: %w", err)
	}
	defer f.Close()

	return LoadPreset(f)
}
