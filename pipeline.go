package axisplot

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pipeline turns a configuration into a RenderModel: generate data for the
// referenced fields, then bind. It runs in full for every revision.
type Pipeline struct {
	generator *DataGenerator
	logger    logrus.FieldLogger
}

func NewPipeline(generator *DataGenerator) *Pipeline {
	return &Pipeline{
		generator: generator,
		logger:    logrus.WithField("tag", "Pipeline"),
	}
}

func (p *Pipeline) Render(config ChartConfig) (RenderModel, error) {
	data, err := p.generator.Generate(config.TimeRangeDays, ReferencedFields(config))
	if err != nil {
		return RenderModel{}, fmt.Errorf("failed to generate data: %w", err)
	}

	model := Bind(config, data)

	p.logger.WithFields(logrus.Fields{
		"points":        len(data),
		"series":        len(model.Series),
		"droppedSeries": len(config.Series) - len(model.Series),
		"leftAxes":      len(model.LeftAxes),
		"rightAxes":     len(model.RightAxes),
		"timeRange":     config.TimeRangeDays,
	}).Debug("rendered config")

	return model, nil
}
