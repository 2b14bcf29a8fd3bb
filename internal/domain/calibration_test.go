package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearPairs(n int, coef, intercept float64) []Pair {
	pairs := make([]Pair, n)
	for i := range pairs {
		x := float64(i) * 1.5
		pairs[i] = Pair{
			Station: []string{"A", "B"}[i%2],
			Time:    at(0, 0).Add(time.Duration(i) * time.Hour),
			Product: x,
			Truth:   coef*x + intercept,
		}
	}
	return pairs
}

func TestSplit(t *testing.T) {
	pairs := linearPairs(30, 1, 0)

	train, test := Split(pairs, 42)
	assert.Len(t, test, 10)
	assert.Len(t, train, 20)

	train2, test2 := Split(pairs, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, test3 := Split(pairs, 7)
	assert.NotEqual(t, test, test3)

	train, test = Split(linearPairs(3, 1, 0), 42)
	assert.Len(t, train, 2)
	assert.Len(t, test, 1)
}

func TestFit_RecoversLine(t *testing.T) {
	m, err := Fit(linearPairs(10, 0.8, -2.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.8, m.Coefficient, 1e-9)
	assert.InDelta(t, -2.5, m.Intercept, 1e-9)
	assert.InDelta(t, 5.5, m.Apply(10), 1e-9)
}

func TestFit_Degenerate(t *testing.T) {
	pairs := []Pair{{Product: 1, Truth: 1}, {Product: 1, Truth: 2}}
	_, err := Fit(pairs)
	require.ErrorIs(t, err, ErrDegenerateFit)
}

func TestCalibrate(t *testing.T) {
	cal, err := Calibrate(linearPairs(30, 1.1, 0.4), 42)
	require.NoError(t, err)

	assert.InDelta(t, 1.1, cal.Coefficient, 1e-9)
	assert.InDelta(t, 0.4, cal.Intercept, 1e-9)
	assert.InDelta(t, 1.0, cal.RSquared, 1e-9)
	assert.InDelta(t, 0.0, cal.RMSE, 1e-9)
	assert.Equal(t, 20, cal.Train)
	assert.Equal(t, 10, cal.Test)

	require.Len(t, cal.Stations, 2)
	assert.Equal(t, "A", cal.Stations[0].Station)
	assert.Equal(t, 15, cal.Stations[0].Pairs)
	assert.Greater(t, cal.Stations[0].RMSEBefore, cal.Stations[0].RMSEAfter)
}

func TestCalibrate_NotEnoughPairs(t *testing.T) {
	_, err := Calibrate(linearPairs(2, 1, 0), 42)
	require.ErrorIs(t, err, ErrNotEnoughPairs)
}

func TestRMSE(t *testing.T) {
	pairs := []Pair{{Product: 1, Truth: 2}, {Product: 3, Truth: 2}}
	assert.InDelta(t, 1.0, RMSE(pairs, Model{Coefficient: 1}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, Model{})))
}
