package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TestFraction is the share of joined pairs held out for evaluation.
var TestFraction = 0.33

// MinPairs is the smallest number of joined pairs a calibration accepts.
const MinPairs = 3

// Model maps a product value onto station temperature:
// truth = Coefficient*product + Intercept.
type Model struct {
	Coefficient float64
	Intercept   float64
}

// Apply returns the calibrated value for a product value.
func (m Model) Apply(product float64) float64 {
	return m.Coefficient*product + m.Intercept
}

// StationStats compares product and calibrated values against truth for one station.
type StationStats struct {
	Station        string
	Pairs          int
	RSquaredBefore float64
	RSquaredAfter  float64
	RMSEBefore     float64
	RMSEAfter      float64
}

// Calibration is the result of fitting a product against station truth.
type Calibration struct {
	Model
	RSquared float64 // on the held-out set
	RMSE     float64 // on the held-out set, after calibration
	Train    int
	Test     int
	Stations []StationStats
}

// Split shuffles pairs with a seeded generator and holds out
// ceil(TestFraction*n) of them for testing.
func Split(pairs []Pair, seed uint64) (train, test []Pair) {
	shuffled := make([]Pair, len(pairs))
	copy(shuffled, pairs)
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nTest := int(math.Ceil(TestFraction * float64(len(shuffled))))
	if nTest >= len(shuffled) {
		nTest = len(shuffled) - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return shuffled[nTest:], shuffled[:nTest]
}

// Fit runs an ordinary least squares regression of truth on product.
func Fit(pairs []Pair) (Model, error) {
	if len(pairs) < 2 {
		return Model{}, fmt.Errorf("fit: %w: have %d", ErrNotEnoughPairs, len(pairs))
	}
	x, y := columns(pairs)
	if stat.Variance(x, nil) == 0 {
		return Model{}, ErrDegenerateFit
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Model{Coefficient: beta, Intercept: alpha}, nil
}

// Calibrate splits pairs, fits on the training share and scores on the
// held-out share.
func Calibrate(pairs []Pair, seed uint64) (Calibration, error) {
	if len(pairs) < MinPairs {
		return Calibration{}, fmt.Errorf("calibrate: %w: have %d, need %d", ErrNotEnoughPairs, len(pairs), MinPairs)
	}
	train, test := Split(pairs, seed)
	m, err := Fit(train)
	if err != nil {
		return Calibration{}, fmt.Errorf("calibrate: %w", err)
	}

	x, y := columns(test)
	return Calibration{
		Model:    m,
		RSquared: stat.RSquared(x, y, nil, m.Intercept, m.Coefficient),
		RMSE:     RMSE(test, m),
		Train:    len(train),
		Test:     len(test),
		Stations: PerStation(pairs, m),
	}, nil
}

// PerStation reports agreement with truth for every station in pairs, sorted
// by station id.
func PerStation(pairs []Pair, m Model) []StationStats {
	groups := make(map[string][]Pair)
	for _, p := range pairs {
		groups[p.Station] = append(groups[p.Station], p)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	identity := Model{Coefficient: 1}
	out := make([]StationStats, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		x, y := columns(g)
		out = append(out, StationStats{
			Station:        id,
			Pairs:          len(g),
			RSquaredBefore: stat.RSquared(x, y, nil, identity.Intercept, identity.Coefficient),
			RSquaredAfter:  stat.RSquared(x, y, nil, m.Intercept, m.Coefficient),
			RMSEBefore:     RMSE(g, identity),
			RMSEAfter:      RMSE(g, m),
		})
	}
	return out
}

// RMSE is the root mean squared error of m's predictions against truth.
func RMSE(pairs []Pair, m Model) float64 {
	if len(pairs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, p := range pairs {
		d := m.Apply(p.Product) - p.Truth
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pairs)))
}

func columns(pairs []Pair) (x, y []float64) {
	x = make([]float64, len(pairs))
	y = make([]float64, len(pairs))
	for i, p := range pairs {
		x[i] = p.Product
		y[i] = p.Truth
	}
	return x, y
}
