package axisplot

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteConfigTables prints the axes and series of config as two tables.
func WriteConfigTables(w io.Writer, config ChartConfig) {
	axes := table.NewWriter()
	axes.SetOutputMirror(w)
	axes.SetTitle("Axes")
	axes.AppendHeader(table.Row{"id", "side", "label", "color", "dynamic scaling"})
	for _, axis := range config.Axes {
		axes.AppendRow(table.Row{axis.ID, axis.Side, axis.Label(), axis.Color, axis.DynamicScaling})
	}
	axes.Render()

	series := table.NewWriter()
	series.SetOutputMirror(w)
	series.SetTitle("Series")
	series.AppendHeader(table.Row{"id", "name", "kind", "axis", "value field", "color"})
	for _, s := range config.Series {
		series.AppendRow(table.Row{s.ID, s.DisplayName, s.Kind, s.AxisID, s.ValueField, s.Color})
	}
	series.AppendFooter(table.Row{"", "", "", "", "time range", config.TimeRangeDays})
	series.Render()
}

// WriteRenderSummary prints one row per bound series: where it is drawn and
// how many of its points have values.
func WriteRenderSummary(w io.Writer, model RenderModel) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Render")
	t.AppendHeader(table.Row{"series", "kind", "axis", "side", "points", "gaps", "first", "last"})

	for _, bound := range model.Series {
		gaps := 0
		for _, point := range bound.Points {
			if point.Y == nil {
				gaps++
			}
		}

		first, last := "", ""
		if n := len(bound.Points); n > 0 {
			first = bound.Points[0].X.Format(time.DateTime)
			last = bound.Points[n-1].X.Format(time.DateTime)
		}

		t.AppendRow(table.Row{
			bound.Series.ID,
			bound.Kind(),
			bound.Axis.Label(),
			bound.Axis.Side,
			len(bound.Points),
			gaps,
			first,
			last,
		})
	}

	t.AppendFooter(table.Row{"left axes", len(model.LeftAxes), "right axes", len(model.RightAxes), "", "", "tick layout", model.TickLayout})
	t.Render()
}
