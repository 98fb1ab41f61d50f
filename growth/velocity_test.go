package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 10, 0, 0, 0, time.UTC)
}

func f(v float64) *float64 { return &v }

func TestComputeVelocityEmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		ms   []Measurement
	}{
		{"no measurements", nil},
		{"single measurement", []Measurement{{RecordedAt: day(1), Weight: f(3500)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeVelocity(tt.ms, TimeUnitDay)

			assert.Empty(t, result.DataPoints)
			assert.Nil(t, result.Summary.AverageWeightVelocity)
			assert.Nil(t, result.Summary.TotalWeightChange)
		})
	}
}

func TestComputeVelocityPerDay(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500), Height: f(500)},
		{RecordedAt: day(11), Weight: f(3800), Height: f(510)},
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.Len(t, result.DataPoints, 1)
	point := result.DataPoints[0]

	assert.Equal(t, 10, point.DaysBetween)
	require.NotNil(t, point.WeightVelocity)
	assert.InDelta(t, 30.0, *point.WeightVelocity, 1e-9) // grams/day
	require.NotNil(t, point.HeightVelocity)
	assert.InDelta(t, 1.0, *point.HeightVelocity, 1e-9) // mm/day
	require.NotNil(t, point.WeightChange)
	assert.InDelta(t, 300.0, *point.WeightChange, 1e-9)
}

// Weekly velocity must be exactly 7x the daily velocity for the same pair.
func TestComputeVelocityUnitConversion(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500)},
		{RecordedAt: day(15), Weight: f(3920)},
	}

	daily := ComputeVelocity(ms, TimeUnitDay)
	weekly := ComputeVelocity(ms, TimeUnitWeek)

	require.NotNil(t, daily.DataPoints[0].WeightVelocity)
	require.NotNil(t, weekly.DataPoints[0].WeightVelocity)
	assert.InDelta(t, *daily.DataPoints[0].WeightVelocity*7, *weekly.DataPoints[0].WeightVelocity, 1e-9)
}

func TestComputeVelocitySign(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(4000)},
		{RecordedAt: day(6), Weight: f(3900)},
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.NotNil(t, result.DataPoints[0].WeightVelocity)
	assert.Negative(t, *result.DataPoints[0].WeightVelocity)
}

func TestComputeVelocityZeroDayGap(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500)},
		{RecordedAt: day(1).Add(2 * time.Hour), Weight: f(3520)},
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.Len(t, result.DataPoints, 1)
	// Change is recorded but velocity is flagged nil, not a division by zero
	require.NotNil(t, result.DataPoints[0].WeightChange)
	assert.Nil(t, result.DataPoints[0].WeightVelocity)
}

func TestComputeVelocitySkipsMissingMetrics(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500)},
		{RecordedAt: day(8), Height: f(520)}, // no weight recorded
		{RecordedAt: day(15), Weight: f(3900)},
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.Len(t, result.DataPoints, 2)
	assert.Nil(t, result.DataPoints[0].WeightVelocity)
	assert.Nil(t, result.DataPoints[1].WeightVelocity)
	assert.Nil(t, result.Summary.AverageWeightVelocity)

	// Totals bridge the gap: last weight minus first weight, not a sum of
	// pairwise increments
	require.NotNil(t, result.Summary.TotalWeightChange)
	assert.InDelta(t, 400.0, *result.Summary.TotalWeightChange, 1e-9)
}

func TestComputeVelocitySummaryAverages(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500)},
		{RecordedAt: day(6), Weight: f(3600)},  // 20 g/day
		{RecordedAt: day(11), Weight: f(3800)}, // 40 g/day
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.NotNil(t, result.Summary.AverageWeightVelocity)
	assert.InDelta(t, 30.0, *result.Summary.AverageWeightVelocity, 1e-9)
	require.NotNil(t, result.Summary.TotalWeightChange)
	assert.InDelta(t, 300.0, *result.Summary.TotalWeightChange, 1e-9)
}

func TestComputeVelocityPreservesInputOrder(t *testing.T) {
	ms := []Measurement{
		{RecordedAt: day(1), Weight: f(3500)},
		{RecordedAt: day(5), Weight: f(3600)},
		{RecordedAt: day(9), Weight: f(3700)},
	}

	result := ComputeVelocity(ms, TimeUnitDay)

	require.Len(t, result.DataPoints, 2)
	assert.Equal(t, day(1), result.DataPoints[0].FromDate)
	assert.Equal(t, day(5), result.DataPoints[0].ToDate)
	assert.Equal(t, day(5), result.DataPoints[1].FromDate)
	assert.Equal(t, day(9), result.DataPoints[1].ToDate)
}
