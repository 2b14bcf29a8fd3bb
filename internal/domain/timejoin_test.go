package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(station string, t time.Time, v float64) Sample {
	return Sample{Station: station, Time: t, Value: v}
}

func TestNearestJoin(t *testing.T) {
	truth := []Sample{
		sample("A", at(10, 0), 1),
		sample("A", at(12, 0), 2),
		sample("B", at(10, 0), 3),
		sample("C", at(10, 0), 4),
	}
	product := []Sample{
		sample("A", at(10, 20), 10),
		sample("A", at(9, 50), 11),
		sample("A", at(14, 0), 12),
		sample("B", at(10, 0), 13),
	}

	t.Run("nearest within tolerance", func(t *testing.T) {
		pairs := NearestJoin(truth, product, time.Hour, true)
		require.Len(t, pairs, 2)

		assert.Equal(t, "A", pairs[0].Station)
		assert.Equal(t, 11.0, pairs[0].Product)
		assert.Equal(t, at(9, 50), pairs[0].ProductTime)
		assert.Equal(t, 1.0, pairs[0].Truth)

		assert.Equal(t, "B", pairs[1].Station)
		assert.Equal(t, 13.0, pairs[1].Product)
	})

	t.Run("unlimited tolerance", func(t *testing.T) {
		pairs := NearestJoin(truth, product, 0, true)
		require.Len(t, pairs, 3)
		assert.Equal(t, at(12, 0), pairs[1].Time)
		assert.Equal(t, 10.0, pairs[1].Product)
	})

	t.Run("exact matches excluded", func(t *testing.T) {
		pairs := NearestJoin(truth, product, time.Hour, false)
		require.Len(t, pairs, 1)
		assert.Equal(t, "A", pairs[0].Station)
	})

	t.Run("tie prefers earlier product", func(t *testing.T) {
		pairs := NearestJoin(
			[]Sample{sample("A", at(10, 0), 1)},
			[]Sample{sample("A", at(10, 30), 2), sample("A", at(9, 30), 3)},
			time.Hour, true)
		require.Len(t, pairs, 1)
		assert.Equal(t, 3.0, pairs[0].Product)
	})

	t.Run("tolerance boundary is inclusive", func(t *testing.T) {
		pairs := NearestJoin(
			[]Sample{sample("A", at(10, 0), 1)},
			[]Sample{sample("A", at(11, 0), 2)},
			time.Hour, false)
		require.Len(t, pairs, 1)
	})
}
