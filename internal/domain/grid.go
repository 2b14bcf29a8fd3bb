package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Cell is one grid point of a gridded product, in degrees.
type Cell struct {
	Lat float64
	Lon float64
}

type cellTime struct {
	cell int
	at   int64
}

// Grid is a gridded variable indexed by time and cell.
type Grid struct {
	Variable string

	cells  []Cell
	index  map[Cell]int
	times  map[int64]time.Time
	values map[cellTime]float64
}

// NewGrid returns an empty grid for the named variable.
func NewGrid(variable string) *Grid {
	return &Grid{
		Variable: variable,
		index:    make(map[Cell]int),
		times:    make(map[int64]time.Time),
		values:   make(map[cellTime]float64),
	}
}

// Add records the value of the variable at a cell and time. A later value for
// the same cell and time replaces the earlier one.
func (g *Grid) Add(at time.Time, lat, lon, v float64) {
	c := Cell{Lat: lat, Lon: lon}
	i, ok := g.index[c]
	if !ok {
		i = len(g.cells)
		g.cells = append(g.cells, c)
		g.index[c] = i
	}
	at = at.UTC()
	g.times[at.UnixNano()] = at
	g.values[cellTime{cell: i, at: at.UnixNano()}] = v
}

// Cells returns the distinct cells in insertion order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Times returns the distinct timestamps in ascending order.
func (g *Grid) Times() []time.Time {
	out := make([]time.Time, 0, len(g.times))
	for _, t := range g.times {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Series returns the values of one cell over time, skipping missing steps.
func (g *Grid) Series(cell int) []Sample {
	var out []Sample
	for _, t := range g.Times() {
		if v, ok := g.values[cellTime{cell: cell, at: t.UnixNano()}]; ok {
			out = append(out, Sample{Time: t, Value: v})
		}
	}
	return out
}

// Locator finds the nearest grid cell to a coordinate. Distance is Euclidean
// in (lat, lon) degree space.
type Locator struct {
	tree  *kdtree.Tree
	index map[[2]float64]int
}

// NewLocator builds a k-d tree over cells.
func NewLocator(cells []Cell) (*Locator, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyGrid
	}
	pts := make(kdtree.Points, len(cells))
	index := make(map[[2]float64]int, len(cells))
	for i, c := range cells {
		pts[i] = kdtree.Point{c.Lat, c.Lon}
		index[[2]float64{c.Lat, c.Lon}] = i
	}
	return &Locator{tree: kdtree.New(pts, false), index: index}, nil
}

// Nearest returns the index of the closest cell and its distance in degrees.
func (l *Locator) Nearest(lat, lon float64) (int, float64) {
	got, d2 := l.tree.Nearest(kdtree.Point{lat, lon})
	p := got.(kdtree.Point)
	return l.index[[2]float64{p[0], p[1]}], math.Sqrt(d2)
}

// SampleStation extracts the grid series at the cell nearest to st. Values
// are converted from kelvin when kelvin is set.
func SampleStation(g *Grid, loc *Locator, st Station, kelvin bool) ([]Sample, error) {
	cell, _ := loc.Nearest(st.Lat, st.Lon)
	series := g.Series(cell)
	if len(series) == 0 {
		c := g.cells[cell]
		return nil, fmt.Errorf("station %s at cell (%g, %g): %w", st.ID, c.Lat, c.Lon, ErrNoSamples)
	}
	for i := range series {
		series[i].Station = st.ID
		if kelvin {
			series[i].Value -= KelvinOffset
		}
	}
	return series, nil
}
