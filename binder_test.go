package axisplot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLayout(t *testing.T) {
	assert.Equal(t, TimeOfDayTickLayout, TickLayout(1))
	assert.Equal(t, MonthDayTickLayout, TickLayout(2))
	assert.Equal(t, MonthDayTickLayout, TickLayout(30))

	ts := time.Date(2024, time.March, 10, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "09:05", ts.Format(TickLayout(1)))
	assert.Equal(t, "Mar 10", ts.Format(TickLayout(7)))
}

func TestBind(t *testing.T) {
	t.Run("SingleBarSeriesScenario", func(t *testing.T) {
		axisA := AxisConfig{ID: "A", Side: SideLeft, Color: "#ff0000", DynamicScaling: true}
		config := ChartConfig{
			Axes:          []AxisConfig{axisA},
			Series:        []SeriesConfig{{ID: "S", AxisID: "A", DisplayName: "S", Kind: KindBar, ValueField: "v"}},
			TimeRangeDays: 1,
		}

		data, err := fixedGenerator(testNow, 0.5).Generate(config.TimeRangeDays, ReferencedFields(config))
		require.NoError(t, err)

		model := Bind(config, data)

		assert.Equal(t, []AxisConfig{axisA}, model.LeftAxes)
		assert.Empty(t, model.RightAxes)
		require.Len(t, model.Series, 1)
		assert.Equal(t, KindBar, model.Series[0].Kind())
		assert.Equal(t, axisA, model.Series[0].Axis)
		assert.Len(t, model.Series[0].Points, len(data))
		assert.Equal(t, TimeOfDayTickLayout, model.TickLayout)
		assert.Equal(t, 1, model.TimeRangeDays)
	})

	t.Run("PartitionKeepsRelativeOrder", func(t *testing.T) {
		config := ChartConfig{
			Axes: []AxisConfig{
				{ID: "r1", Side: SideRight},
				{ID: "l1", Side: SideLeft},
				{ID: "r2", Side: SideRight},
				{ID: "l2", Side: SideLeft},
			},
			TimeRangeDays: 7,
		}

		model := Bind(config, nil)
		assert.Equal(t, []string{"l1", "l2"}, axisIDs(ChartConfig{Axes: model.LeftAxes}))
		assert.Equal(t, []string{"r1", "r2"}, axisIDs(ChartConfig{Axes: model.RightAxes}))
		assert.Equal(t, MonthDayTickLayout, model.TickLayout)
	})

	t.Run("DropsSeriesWithUnknownAxis", func(t *testing.T) {
		config := ChartConfig{
			Axes: []AxisConfig{{ID: "A", Side: SideLeft}},
			Series: []SeriesConfig{
				{ID: "ok", AxisID: "A", Kind: KindLinear, ValueField: "v"},
				{ID: "dangling", AxisID: "gone", Kind: KindLinear, ValueField: "v"},
				{ID: "placeholder", AxisID: "", Kind: KindArea, ValueField: "v"},
			},
			TimeRangeDays: 1,
		}

		model := Bind(config, []DataPoint{{Timestamp: testNow, Fields: map[string]float64{"v": 1}}})

		require.Len(t, model.Series, 1)
		assert.Equal(t, "ok", model.Series[0].Series.ID)
		for _, bound := range model.Series {
			_, ok := config.FindAxis(bound.Series.AxisID)
			assert.True(t, ok)
		}
	})

	t.Run("MissingFieldIsNilY", func(t *testing.T) {
		t0 := testNow
		t1 := testNow.Add(5 * time.Minute)
		data := []DataPoint{
			{Timestamp: t0, Fields: map[string]float64{"v": 1.5}},
			{Timestamp: t1, Fields: map[string]float64{}},
		}
		config := ChartConfig{
			Axes: []AxisConfig{{ID: "A", Side: SideRight}},
			Series: []SeriesConfig{
				{ID: "has", AxisID: "A", Kind: KindLinear, ValueField: "v"},
				{ID: "never", AxisID: "A", Kind: KindBar, ValueField: "absent"},
			},
			TimeRangeDays: 1,
		}

		model := Bind(config, data)
		require.Len(t, model.Series, 2)

		has := model.Series[0].Points
		require.Len(t, has, 2)
		assert.Equal(t, t0, has[0].X)
		require.NotNil(t, has[0].Y)
		assert.Equal(t, 1.5, *has[0].Y)
		assert.Equal(t, t1, has[1].X)
		assert.Nil(t, has[1].Y)

		for _, point := range model.Series[1].Points {
			assert.Nil(t, point.Y)
		}
	})

	t.Run("KeepsSeriesOrder", func(t *testing.T) {
		config := DefaultChartConfig()
		model := Bind(config, nil)

		require.Len(t, model.Series, len(config.Series))
		for i, bound := range model.Series {
			assert.Equal(t, config.Series[i], bound.Series)
			assert.Empty(t, bound.Points)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		config := DefaultChartConfig()
		data, err := fixedGenerator(testNow, 0.5).Generate(config.TimeRangeDays, ReferencedFields(config))
		require.NoError(t, err)

		assert.Equal(t, Bind(config, data), Bind(config, data))
	})

	t.Run("PointsDoNotAliasData", func(t *testing.T) {
		data := []DataPoint{{Timestamp: testNow, Fields: map[string]float64{"v": 1}}}
		config := ChartConfig{
			Axes:          []AxisConfig{{ID: "A", Side: SideLeft}},
			Series:        []SeriesConfig{{ID: "s", AxisID: "A", Kind: KindLinear, ValueField: "v"}},
			TimeRangeDays: 1,
		}

		model := Bind(config, data)
		data[0].Fields["v"] = 99

		assert.Equal(t, 1.0, *model.Series[0].Points[0].Y)
	})
}

func TestRenderModelTimestamps(t *testing.T) {
	assert.Empty(t, RenderModel{}.Timestamps())

	config := DefaultChartConfig()
	data, err := fixedGenerator(testNow, 0.5).Generate(1, ReferencedFields(config))
	require.NoError(t, err)

	timestamps := Bind(config, data).Timestamps()
	require.Len(t, timestamps, len(data))
	for i := range data {
		assert.Equal(t, data[i].Timestamp, timestamps[i])
	}
}
