package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bucketsWithValues(values []map[string]*float64) []Bucket {
	buckets := make([]Bucket, 0, len(values))
	for _, averages := range values {
		buckets = append(buckets, Bucket{MetricAverages: averages})
	}
	return buckets
}

func ptr(v float64) *float64 { return &v }

func TestClassifyAxes_magnitudeSplit(t *testing.T) {
	// force in hundreds, velocity in single digits: 2 magnitudes apart
	buckets := bucketsWithValues([]map[string]*float64{
		{"meanForce": ptr(480), "peakVelocity": ptr(2.1)},
		{"meanForce": ptr(500), "peakVelocity": ptr(2.5)},
	})

	assignment := ClassifyAxes(buckets, []string{"meanForce", "peakVelocity"})
	assert.Equal(t, []string{"meanForce"}, assignment.Primary)
	assert.Equal(t, []string{"peakVelocity"}, assignment.Secondary)
}

func TestClassifyAxes_closeMagnitudesStayPrimary(t *testing.T) {
	// magnitudes 2 and 3 differ by 1, not enough for a second axis
	buckets := bucketsWithValues([]map[string]*float64{
		{"meanForce": ptr(800), "peakPower": ptr(2400)},
	})

	assignment := ClassifyAxes(buckets, []string{"meanForce", "peakPower"})
	assert.ElementsMatch(t, []string{"meanForce", "peakPower"}, assignment.Primary)
	assert.Empty(t, assignment.Secondary)
}

func TestClassifyAxes_dominantGroupWins(t *testing.T) {
	// two fields around magnitude 0, one at magnitude 3: the pair is the
	// dominant cluster, the big one goes secondary
	buckets := bucketsWithValues([]map[string]*float64{
		{"peakVelocity": ptr(2.5), "contactTime": ptr(0.95), "meanForce": ptr(1200)},
	})

	assignment := ClassifyAxes(buckets, []string{"peakVelocity", "contactTime", "meanForce"})
	assert.ElementsMatch(t, []string{"peakVelocity", "contactTime"}, assignment.Primary)
	assert.Equal(t, []string{"meanForce"}, assignment.Secondary)
}

func TestClassifyAxes_zeroAndEmptyFieldsAlwaysPrimary(t *testing.T) {
	buckets := bucketsWithValues([]map[string]*float64{
		{"meanForce": ptr(50000), "zeroField": ptr(0), "nullField": nil},
	})

	assignment := ClassifyAxes(buckets, []string{"meanForce", "zeroField", "nullField"})
	assert.Contains(t, assignment.Primary, "zeroField")
	assert.Contains(t, assignment.Primary, "nullField")
	assert.NotContains(t, assignment.Secondary, "zeroField")
	assert.NotContains(t, assignment.Secondary, "nullField")
}

func TestClassifyAxes_negativeValuesUseAbsoluteMagnitude(t *testing.T) {
	buckets := bucketsWithValues([]map[string]*float64{
		{"netImpulse": ptr(-350), "peakVelocity": ptr(1.8)},
	})

	assignment := ClassifyAxes(buckets, []string{"netImpulse", "peakVelocity"})
	// |−350| has magnitude 2, velocity magnitude 0: split
	assert.Len(t, assignment.Primary, 1)
	assert.Len(t, assignment.Secondary, 1)
}

func TestClassifyAxes_noBuckets(t *testing.T) {
	assignment := ClassifyAxes(nil, []string{"meanForce"})
	assert.Equal(t, []string{"meanForce"}, assignment.Primary)
	assert.Empty(t, assignment.Secondary)
}
