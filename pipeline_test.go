package axisplot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRender(t *testing.T) {
	config := DefaultChartConfig()

	model, err := newTestPipeline().Render(config)
	require.NoError(t, err)

	data, err := fixedGenerator(testNow, 0.5).Generate(config.TimeRangeDays, ReferencedFields(config))
	require.NoError(t, err)
	assert.Equal(t, Bind(config, data), model)
}

func TestPipelineRenderRejectsBadTimeRange(t *testing.T) {
	_, err := newTestPipeline().Render(ChartConfig{TimeRangeDays: 0})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.ErrorContains(t, err, "failed to generate data")
}

// Removing an axis, then rendering, never shows a series on the removed axis.
func TestPipelineRenderAfterRemoveAxis(t *testing.T) {
	config := RemoveAxis(twoAxisConfig(), "A")

	model, err := newTestPipeline().Render(config)
	require.NoError(t, err)

	require.Len(t, model.Series, 1)
	assert.Equal(t, "s2", model.Series[0].Series.ID)
	assert.Empty(t, model.LeftAxes)
	assert.Equal(t, []string{"B"}, axisIDs(ChartConfig{Axes: model.RightAxes}))
}
