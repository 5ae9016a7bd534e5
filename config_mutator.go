package axisplot

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// The functions in this file are the only way a ChartConfig changes. Each one
// returns a new value and never writes through the slices of its input, so a
// revision held elsewhere (the store history, a frame being broadcast) stays
// exactly as it was.

const (
	DefaultAxisColor   = "#000000"
	DefaultSeriesColor = "#000000"
	DefaultValueField  = "value"
)

func AddAxis(config ChartConfig) ChartConfig {
	next := config.clone()
	next.Axes = append(next.Axes, AxisConfig{
		ID:             nextID("axis", len(config.Axes), func(id string) bool { _, ok := config.FindAxis(id); return ok }),
		Side:           SideLeft,
		Color:          DefaultAxisColor,
		DynamicScaling: true,
	})
	return next
}

// RemoveAxis removes the axis and every series plotted against it. Leaving a
// series behind would break the invariant that every series has an axis.
func RemoveAxis(config ChartConfig, axisID string) ChartConfig {
	next := config.clone()
	next.Axes = Filter(next.Axes, func(axis AxisConfig) bool {
		return axis.ID != axisID
	})
	next.Series = Filter(next.Series, func(series SeriesConfig) bool {
		return series.AxisID != axisID
	})
	return next
}

// UpdateAxis replaces the axis with the given id. Unknown ids are a no-op.
func UpdateAxis(config ChartConfig, axisID string, newAxis AxisConfig) ChartConfig {
	next := config.clone()
	i := slices.IndexFunc(next.Axes, func(axis AxisConfig) bool { return axis.ID == axisID })
	if i >= 0 {
		next.Axes[i] = newAxis
	}
	return next
}

// CanAddSeries reports whether AddSeries would produce a valid config. Callers
// must check this first: with no axes the new series gets an empty axis id.
func CanAddSeries(config ChartConfig) bool {
	return len(config.Axes) > 0
}

func AddSeries(config ChartConfig) ChartConfig {
	axisID := ""
	if len(config.Axes) > 0 {
		axisID = config.Axes[0].ID
	}

	id := nextID("series", len(config.Series), func(id string) bool { _, ok := config.FindSeries(id); return ok })

	next := config.clone()
	next.Series = append(next.Series, SeriesConfig{
		ID:          id,
		AxisID:      axisID,
		DisplayName: fmt.Sprintf("Series %d", len(config.Series)+1),
		Kind:        KindLinear,
		ValueField:  DefaultValueField,
		Color:       DefaultSeriesColor,
	})
	return next
}

func RemoveSeries(config ChartConfig, seriesID string) ChartConfig {
	next := config.clone()
	next.Series = Filter(next.Series, func(series SeriesConfig) bool {
		return series.ID != seriesID
	})
	return next
}

// UpdateSeries replaces the series with the given id. Unknown ids are a no-op.
func UpdateSeries(config ChartConfig, seriesID string, newSeries SeriesConfig) ChartConfig {
	next := config.clone()
	i := slices.IndexFunc(next.Series, func(series SeriesConfig) bool { return series.ID == seriesID })
	if i >= 0 {
		next.Series[i] = newSeries
	}
	return next
}

// SetTimeRange does not validate days; reject or clamp before calling.
func SetTimeRange(config ChartConfig, days int) ChartConfig {
	next := config.clone()
	next.TimeRangeDays = days
	return next
}

// ClampTimeRange maps arbitrary user input onto an acceptable time range.
func ClampTimeRange(days int) int {
	return Clamp(days, 1, MaxTimeRangeDays)
}

func (c ChartConfig) clone() ChartConfig {
	return ChartConfig{
		Axes:          slices.Clone(c.Axes),
		Series:        slices.Clone(c.Series),
		TimeRangeDays: c.TimeRangeDays,
	}
}

// nextID starts at prefix-(count+1) and walks forward until it finds an id
// that taken() rejects. Removals can leave gaps, so count+1 may already be in
// use.
func nextID(prefix string, count int, taken func(string) bool) string {
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("%s-%d", prefix, n)
		if !taken(id) {
			return id
		}
	}
}
