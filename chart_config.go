package axisplot

import (
	"errors"
	"time"
)

// MaxTimeRangeDays bounds the time range of a chart. Every render generates
// 288 points per day and series, so the bound caps the work of one revision.
const MaxTimeRangeDays = 365

type AxisSide string

const (
	SideLeft  AxisSide = "left"
	SideRight AxisSide = "right"
)

func (s AxisSide) Valid() bool {
	return s == SideLeft || s == SideRight
}

// SeriesKind is how a series is drawn. The renderer interprets it; nothing in
// the core changes behaviour based on it.
type SeriesKind string

const (
	KindLinear SeriesKind = "linear"
	KindBar    SeriesKind = "bar"
	KindArea   SeriesKind = "area"
)

func (k SeriesKind) Valid() bool {
	switch k {
	case KindLinear, KindBar, KindArea:
		return true
	}
	return false
}

// ShowsMarkers is true for kinds drawn with a point marker on every sample.
func (k SeriesKind) ShowsMarkers() bool {
	return k == KindLinear
}

// Filled is true for kinds whose area under the line is painted.
func (k SeriesKind) Filled() bool {
	return k == KindArea
}

type AxisConfig struct {
	ID             string   `json:"id" yaml:"id"`
	Side           AxisSide `json:"side" yaml:"side"`
	DisplayName    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Color          string   `json:"color" yaml:"color"`
	DynamicScaling bool     `json:"dynamicScaling" yaml:"dynamicScaling"`
}

// Label is the text drawn next to the axis. Falls back to the id when the
// axis has no display name.
func (a AxisConfig) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.ID
}

type SeriesConfig struct {
	ID          string     `json:"id" yaml:"id"`
	AxisID      string     `json:"axisId" yaml:"axisId"`
	DisplayName string     `json:"name" yaml:"name"`
	Kind        SeriesKind `json:"kind" yaml:"kind"`
	ValueField  string     `json:"valueField" yaml:"valueField"`
	Color       string     `json:"color" yaml:"color"`
}

// ChartConfig is a single revision of the chart. Values are never edited in
// place: all changes go through the functions in config_mutator.go, which
// return a fresh ChartConfig that shares no slices with its input.
type ChartConfig struct {
	Axes          []AxisConfig   `json:"axes" yaml:"axes"`
	Series        []SeriesConfig `json:"series" yaml:"series"`
	TimeRangeDays int            `json:"timeRangeDays" yaml:"timeRangeDays"`
}

// FindAxis returns the axis with the given id and whether it exists.
func (c ChartConfig) FindAxis(axisID string) (AxisConfig, bool) {
	for _, axis := range c.Axes {
		if axis.ID == axisID {
			return axis, true
		}
	}
	return AxisConfig{}, false
}

func (c ChartConfig) FindSeries(seriesID string) (SeriesConfig, bool) {
	for _, series := range c.Series {
		if series.ID == seriesID {
			return series, true
		}
	}
	return SeriesConfig{}, false
}

// Validate checks the structural invariants of a configuration. All
// violations are reported, each as a *ValidationError.
func (c ChartConfig) Validate() error {
	var errs []error

	if c.TimeRangeDays <= 0 || c.TimeRangeDays > MaxTimeRangeDays {
		errs = append(errs, &ValidationError{Entity: "timeRangeDays", Err: ErrInvalidTimeRange})
	}

	axisIDs := make(map[string]struct{}, len(c.Axes))
	for _, axis := range c.Axes {
		if axis.ID == "" {
			errs = append(errs, &ValidationError{Entity: "axis", Err: ErrEmptyID})
		} else if _, seen := axisIDs[axis.ID]; seen {
			errs = append(errs, &ValidationError{Entity: "axis", ID: axis.ID, Err: ErrDuplicateID})
		}
		axisIDs[axis.ID] = struct{}{}

		if !axis.Side.Valid() {
			errs = append(errs, &ValidationError{Entity: "axis", ID: axis.ID, Err: ErrInvalidSide})
		}
	}

	seriesIDs := make(map[string]struct{}, len(c.Series))
	for _, series := range c.Series {
		if series.ID == "" {
			errs = append(errs, &ValidationError{Entity: "series", Err: ErrEmptyID})
		} else if _, seen := seriesIDs[series.ID]; seen {
			errs = append(errs, &ValidationError{Entity: "series", ID: series.ID, Err: ErrDuplicateID})
		}
		seriesIDs[series.ID] = struct{}{}

		if !series.Kind.Valid() {
			errs = append(errs, &ValidationError{Entity: "series", ID: series.ID, Err: ErrInvalidKind})
		}

		if _, ok := axisIDs[series.AxisID]; !ok {
			errs = append(errs, &ValidationError{Entity: "series", ID: series.ID, Err: ErrUnknownAxis})
		}
	}

	return errors.Join(errs...)
}

// DataPoint is one generated sample. A field missing from Fields means the
// sample has no value for it, which is not an error.
type DataPoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Fields    map[string]float64 `json:"fields"`
}

// Value looks up a field. ok is false when the field is absent.
func (p DataPoint) Value(field string) (value float64, ok bool) {
	value, ok = p.Fields[field]
	return value, ok
}
