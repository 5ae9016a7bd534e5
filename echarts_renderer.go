package axisplot

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Horizontal distance, in pixels, between stacked axes on the same side.
const axisStackOffset = 60

// echarts treats this value as a missing sample and leaves a gap.
const echartsGap = "-"

const areaOpacity float32 = 0.4

const echartsChartID = "axisplot"

// ChartYAxes lays out one echarts y axis per configured axis: left axes
// first, then right axes. The returned map gives the y axis index of every
// axis id. See AxisOffsets for how axes on the same side are stacked.
func ChartYAxes(model RenderModel) ([]opts.YAxis, map[string]int) {
	yAxes := make([]opts.YAxis, 0, len(model.LeftAxes)+len(model.RightAxes))
	indexes := make(map[string]int, cap(yAxes))

	for _, side := range [][]AxisConfig{model.LeftAxes, model.RightAxes} {
		for _, axis := range side {
			indexes[axis.ID] = len(yAxes)
			yAxes = append(yAxes, opts.YAxis{
				Name:     axis.Label(),
				Type:     "value",
				Position: string(axis.Side),
				Scale:    opts.Bool(axis.DynamicScaling),
				AxisLine: &opts.AxisLine{
					Show:      opts.Bool(true),
					LineStyle: &opts.LineStyle{Color: axis.Color},
				},
				AxisLabel: &opts.AxisLabel{Color: axis.Color},
			})
		}
	}

	return yAxes, indexes
}

// AxisOffsets gives the pixel offset of every y axis returned by ChartYAxes,
// in the same order. The first axis on a side sits on the plot edge and every
// further axis on that side moves outward by axisStackOffset.
func AxisOffsets(model RenderModel) []int {
	offsets := make([]int, 0, len(model.LeftAxes)+len(model.RightAxes))
	for _, side := range [][]AxisConfig{model.LeftAxes, model.RightAxes} {
		for stack := range side {
			offsets = append(offsets, stack*axisStackOffset)
		}
	}
	return offsets
}

// axisOffsetScript moves stacked axes apart once the chart is initialized.
// opts.YAxis has no offset field, so the offsets are merged into the y axis
// options with setOption.
func axisOffsetScript(offsets []int) string {
	options := make([]string, len(offsets))
	for i, offset := range offsets {
		options[i] = fmt.Sprintf("{offset: %d}", offset)
	}
	return fmt.Sprintf("%%MY_ECHARTS%%.setOption({yAxis: [%s]});", strings.Join(options, ", "))
}

// TickLabels formats the shared timestamps with the model's tick layout.
func TickLabels(model RenderModel) []string {
	timestamps := model.Timestamps()
	labels := make([]string, len(timestamps))
	for i, timestamp := range timestamps {
		labels[i] = timestamp.Format(model.TickLayout)
	}
	return labels
}

// NewEChart builds a go-echarts chart for model. Line and area series live on
// the returned chart; bar series are overlapped onto it.
func NewEChart(model RenderModel, title string) *charts.Line {
	yAxes, axisIndexes := ChartYAxes(model)
	labels := TickLabels(model)

	line := charts.NewLine()

	globalOptions := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			ChartID:   echartsChartID,
			Width:     "100%",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "6%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
	}
	if len(yAxes) > 0 {
		globalOptions = append(globalOptions, charts.WithYAxisOpts(yAxes[0]))
	}
	line.SetGlobalOptions(globalOptions...)

	if len(yAxes) > 1 {
		line.ExtendYAxis(yAxes[1:]...)
		line.AddJSFuncs(axisOffsetScript(AxisOffsets(model)))
	}

	line.SetXAxis(labels)

	bar := charts.NewBar()
	bar.SetXAxis(labels)
	hasBars := false

	for _, bound := range model.Series {
		axisIndex := axisIndexes[bound.Axis.ID]
		series := bound.Series

		if bound.Kind() == KindBar {
			data := make([]opts.BarData, len(bound.Points))
			for i, point := range bound.Points {
				data[i] = opts.BarData{Value: chartValue(point)}
			}

			bar.AddSeries(series.DisplayName, data,
				charts.WithBarChartOpts(opts.BarChart{YAxisIndex: axisIndex}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}),
			)
			hasBars = true
			continue
		}

		data := make([]opts.LineData, len(bound.Points))
		for i, point := range bound.Points {
			data[i] = opts.LineData{Value: chartValue(point)}
		}

		seriesOptions := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{
				YAxisIndex: axisIndex,
				ShowSymbol: opts.Bool(bound.Kind().ShowsMarkers()),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: series.Color}),
		}
		if bound.Kind().Filled() {
			seriesOptions = append(seriesOptions, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: areaOpacity}))
		}

		line.AddSeries(series.DisplayName, data, seriesOptions...)
	}

	if hasBars {
		line.Overlap(bar)
	}

	return line
}

// RenderECharts writes model as a standalone HTML page.
func RenderECharts(w io.Writer, model RenderModel, title string) error {
	return NewEChart(model, title).Render(w)
}

func chartValue(point Point) interface{} {
	if point.Y == nil {
		return echartsGap
	}
	return *point.Y
}
