// Package growth converts a time-ordered measurement series into per-interval
// and aggregate growth rates. Units are preserved exactly as stored: weight in
// grams, height and head circumference in millimeters. Conversion to kg/cm
// happens at presentation boundaries, never here.
package growth

import (
	"time"

	"github.com/keyurgolani/BabyNest-sub008/datemath"
)

type TimeUnit string

const (
	TimeUnitDay  TimeUnit = "DAY"
	TimeUnitWeek TimeUnit = "WEEK"
)

// Measurement is a single growth record. Metric fields are optional; a nil
// metric is skipped when pairing, never imputed.
type Measurement struct {
	RecordedAt        time.Time `json:"recordedAt"`
	Weight            *float64  `json:"weight,omitempty"`
	Height            *float64  `json:"height,omitempty"`
	HeadCircumference *float64  `json:"headCircumference,omitempty"`
}

// DataPoint is the derived velocity between one consecutive measurement pair.
// A metric's velocity is nil when either endpoint lacks the metric, or when
// the pair is zero days apart (flagged, not a divide-by-zero error).
type DataPoint struct {
	FromDate                  time.Time `json:"fromDate"`
	ToDate                    time.Time `json:"toDate"`
	DaysBetween               int       `json:"daysBetween"`
	WeightChange              *float64  `json:"weightChange,omitempty"`
	HeightChange              *float64  `json:"heightChange,omitempty"`
	HeadCircumferenceChange   *float64  `json:"headCircumferenceChange,omitempty"`
	WeightVelocity            *float64  `json:"weightVelocity,omitempty"`
	HeightVelocity            *float64  `json:"heightVelocity,omitempty"`
	HeadCircumferenceVelocity *float64  `json:"headCircumferenceVelocity,omitempty"`
}

// Summary aggregates the series. Averages are arithmetic means of the
// non-nil per-interval velocities; totals are last non-nil value minus first
// non-nil value (not a sum of increments, which would double count across
// gaps). All fields are nil when the series has no usable data for a metric.
type Summary struct {
	AverageWeightVelocity            *float64 `json:"averageWeightVelocity"`
	AverageHeightVelocity            *float64 `json:"averageHeightVelocity"`
	AverageHeadCircumferenceVelocity *float64 `json:"averageHeadCircumferenceVelocity"`
	TotalWeightChange                *float64 `json:"totalWeightChange"`
	TotalHeightChange                *float64 `json:"totalHeightChange"`
	TotalHeadCircumferenceChange     *float64 `json:"totalHeadCircumferenceChange"`
}

type Result struct {
	DataPoints []DataPoint `json:"dataPoints"`
	Summary    Summary     `json:"summary"`
}

// ComputeVelocity derives per-pair velocities normalized to the given time
// unit. The input must already be sorted chronologically ascending - the
// function does not sort, and output order matches input order. Fewer than
// two measurements yields an empty result rather than an error.
func ComputeVelocity(measurements []Measurement, unit TimeUnit) Result {
	result := Result{DataPoints: []DataPoint{}}

	if len(measurements) < 2 {
		return result
	}

	factor := 1.0
	if unit == TimeUnitWeek {
		factor = 7.0
	}

	var weightVelocities, heightVelocities, headVelocities []float64

	for i := 0; i < len(measurements)-1; i++ {
		from, to := measurements[i], measurements[i+1]

		point := DataPoint{
			FromDate:    from.RecordedAt,
			ToDate:      to.RecordedAt,
			DaysBetween: datemath.DaysBetween(from.RecordedAt, to.RecordedAt),
		}

		point.WeightChange, point.WeightVelocity = pairVelocity(from.Weight, to.Weight, point.DaysBetween, factor)
		point.HeightChange, point.HeightVelocity = pairVelocity(from.Height, to.Height, point.DaysBetween, factor)
		point.HeadCircumferenceChange, point.HeadCircumferenceVelocity = pairVelocity(from.HeadCircumference, to.HeadCircumference, point.DaysBetween, factor)

		weightVelocities = appendVelocity(weightVelocities, point.WeightVelocity)
		heightVelocities = appendVelocity(heightVelocities, point.HeightVelocity)
		headVelocities = appendVelocity(headVelocities, point.HeadCircumferenceVelocity)

		result.DataPoints = append(result.DataPoints, point)
	}

	result.Summary = Summary{
		AverageWeightVelocity:            mean(weightVelocities),
		AverageHeightVelocity:            mean(heightVelocities),
		AverageHeadCircumferenceVelocity: mean(headVelocities),
		TotalWeightChange:                totalChange(measurements, func(m Measurement) *float64 { return m.Weight }),
		TotalHeightChange:                totalChange(measurements, func(m Measurement) *float64 { return m.Height }),
		TotalHeadCircumferenceChange:     totalChange(measurements, func(m Measurement) *float64 { return m.HeadCircumference }),
	}

	return result
}

// pairVelocity computes change and normalized velocity for one metric across
// a pair. Velocity is nil on a zero-day gap to avoid division by zero.
func pairVelocity(from, to *float64, days int, factor float64) (change, velocity *float64) {
	if from == nil || to == nil {
		return nil, nil
	}

	diff := *to - *from
	change = &diff

	if days == 0 {
		return change, nil
	}

	v := diff / float64(days) * factor

	return change, &v
}

func appendVelocity(velocities []float64, v *float64) []float64 {
	if v == nil {
		return velocities
	}

	return append(velocities, *v)
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	avg := sum / float64(len(values))

	return &avg
}

// totalChange is last non-nil minus first non-nil value for a metric. A
// metric needs at least two recorded values to have a total change.
func totalChange(measurements []Measurement, metric func(Measurement) *float64) *float64 {
	var values []float64

	for _, m := range measurements {
		if v := metric(m); v != nil {
			values = append(values, *v)
		}
	}

	if len(values) < 2 {
		return nil
	}

	total := values[len(values)-1] - values[0]

	return &total
}
