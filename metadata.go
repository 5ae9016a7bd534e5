package axisplot

// SeriesDescriptor tells a client how to draw the DATA messages that carry
// SeriesIndex.
type SeriesDescriptor struct {
	Index      uint32     `json:"index"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	AxisID     string     `json:"axisId"`
	Kind       SeriesKind `json:"kind"`
	ValueField string     `json:"valueField"`
	Color      string     `json:"color"`
}

// Layout is the non-numeric half of a frame: axes, series styling and the
// tick format. Sent before the DATA messages of the same revision.
type Layout struct {
	Revision      uint64             `json:"revision"`
	TimeRangeDays int                `json:"timeRangeDays"`
	TickLayout    string             `json:"tickLayout"`
	LeftAxes      []AxisConfig       `json:"leftAxes"`
	RightAxes     []AxisConfig       `json:"rightAxes"`
	Series        []SeriesDescriptor `json:"series"`
}

func NewLayout(revision uint64, model RenderModel) Layout {
	layout := Layout{
		Revision:      revision,
		TimeRangeDays: model.TimeRangeDays,
		TickLayout:    model.TickLayout,
		LeftAxes:      model.LeftAxes,
		RightAxes:     model.RightAxes,
		Series:        make([]SeriesDescriptor, len(model.Series)),
	}

	for i, bound := range model.Series {
		layout.Series[i] = SeriesDescriptor{
			Index:      uint32(i),
			ID:         bound.Series.ID,
			Name:       bound.Series.DisplayName,
			AxisID:     bound.Axis.ID,
			Kind:       bound.Series.Kind,
			ValueField: bound.Series.ValueField,
			Color:      bound.Series.Color,
		}
	}

	return layout
}
