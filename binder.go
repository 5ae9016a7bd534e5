package axisplot

import "time"

const (
	TimeOfDayTickLayout = "15:04"
	MonthDayTickLayout  = "Jan 2"
)

// TickLayout is the time.Format layout for the labels of the time axis:
// time of day for a single day, month and day otherwise.
func TickLayout(timeRangeDays int) string {
	if timeRangeDays == 1 {
		return TimeOfDayTickLayout
	}
	return MonthDayTickLayout
}

// Point is one (x, y) pair of a bound series. Y is nil when the sample has no
// value for the series' field; renderers draw that as a gap.
type Point struct {
	X time.Time `json:"x"`
	Y *float64  `json:"y"`
}

// BoundSeries is a series resolved against its axis and projected onto the
// generated data.
type BoundSeries struct {
	Series SeriesConfig `json:"series"`
	Axis   AxisConfig   `json:"axis"`
	Points []Point      `json:"points"`
}

func (s BoundSeries) Kind() SeriesKind {
	return s.Series.Kind
}

// RenderModel is everything a chart library needs to draw one revision.
type RenderModel struct {
	TimeRangeDays int           `json:"timeRangeDays"`
	TickLayout    string        `json:"tickLayout"`
	LeftAxes      []AxisConfig  `json:"leftAxes"`
	RightAxes     []AxisConfig  `json:"rightAxes"`
	Series        []BoundSeries `json:"series"`
}

// Timestamps returns the x values shared by every series, which is the order
// of the data that was bound.
func (m RenderModel) Timestamps() []time.Time {
	if len(m.Series) == 0 {
		return []time.Time{}
	}
	xs := make([]time.Time, len(m.Series[0].Points))
	for i, point := range m.Series[0].Points {
		xs[i] = point.X
	}
	return xs
}

// Bind projects config and data into a RenderModel. Series whose axis cannot
// be resolved are left out rather than failing the whole chart.
func Bind(config ChartConfig, data []DataPoint) RenderModel {
	model := RenderModel{
		TimeRangeDays: config.TimeRangeDays,
		TickLayout:    TickLayout(config.TimeRangeDays),
		LeftAxes: Filter(config.Axes, func(axis AxisConfig) bool {
			return axis.Side == SideLeft
		}),
		RightAxes: Filter(config.Axes, func(axis AxisConfig) bool {
			return axis.Side == SideRight
		}),
		Series: make([]BoundSeries, 0, len(config.Series)),
	}

	for _, series := range config.Series {
		axis, ok := config.FindAxis(series.AxisID)
		if !ok {
			continue
		}

		points := make([]Point, len(data))
		for i, dataPoint := range data {
			points[i].X = dataPoint.Timestamp
			if value, ok := dataPoint.Value(series.ValueField); ok {
				points[i].Y = &value
			}
		}

		model.Series = append(model.Series, BoundSeries{
			Series: series,
			Axis:   axis,
			Points: points,
		})
	}

	return model
}
