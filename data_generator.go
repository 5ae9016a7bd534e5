package axisplot

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

// One sample every five minutes, 288 per day.
const DefaultSampleInterval = 5 * time.Minute

// Upper bound (exclusive) of the generated values.
const generatedValueScale = 100.0

// DataGenerator produces synthetic samples for a chart. The clock and the
// random source are fields so tests can pin them down; NewDataGenerator fills
// them with time.Now and a process-wide random source.
type DataGenerator struct {
	Interval time.Duration

	// Now returns the current instant. Calendar days are computed in the
	// location of the returned time.
	Now func() time.Time

	// Rand returns a value in [0, 1).
	Rand func() float64

	logger logrus.FieldLogger
}

// The package level source starts from a fixed seed; reseed it once so
// separate runs draw different data.
var seedOnce sync.Once

func NewDataGenerator() *DataGenerator {
	seedOnce.Do(func() {
		rand.Seed(uint64(time.Now().UnixNano()))
	})

	return &DataGenerator{
		Interval: DefaultSampleInterval,
		Now:      time.Now,
		Rand:     rand.Float64,
		logger:   logrus.WithField("tag", "DataGenerator"),
	}
}

// WindowStart is the first timestamp of a time range that ends at now: the
// start of today for a single day, otherwise the start of the day
// timeRangeDays-1 days before today.
func WindowStart(now time.Time, timeRangeDays int) time.Time {
	day := now.AddDate(0, 0, -(timeRangeDays - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

// Generate returns one DataPoint per interval from WindowStart up to and
// including now. Every point carries a fresh random value for each field.
//
// A timeRangeDays outside 1..MaxTimeRangeDays returns an empty slice and
// ErrInvalidTimeRange.
func (g *DataGenerator) Generate(timeRangeDays int, fields []string) ([]DataPoint, error) {
	if timeRangeDays <= 0 || timeRangeDays > MaxTimeRangeDays {
		return []DataPoint{}, ErrInvalidTimeRange
	}

	interval := g.Interval
	if interval <= 0 {
		interval = DefaultSampleInterval
	}

	now := g.Now()
	start := WindowStart(now, timeRangeDays)
	uniqueFields := dedupe(fields)

	points := make([]DataPoint, 0, int(now.Sub(start)/interval)+1)
	for t := start; !t.After(now); t = t.Add(interval) {
		values := make(map[string]float64, len(uniqueFields))
		for _, field := range uniqueFields {
			values[field] = g.Rand() * generatedValueScale
		}

		points = append(points, DataPoint{
			Timestamp: t,
			Fields:    values,
		})
	}

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"timeRangeDays": timeRangeDays,
			"fields":        uniqueFields,
			"points":        len(points),
		}).Debug("generated data")
	}

	return points, nil
}

// ReferencedFields returns the distinct value fields used by the series of
// config, sorted.
func ReferencedFields(config ChartConfig) []string {
	fields := make([]string, 0, len(config.Series))
	for _, series := range config.Series {
		fields = append(fields, series.ValueField)
	}
	return dedupe(fields)
}

func dedupe(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}

	unique := maps.Keys(set)
	slices.Sort(unique)
	return unique
}
