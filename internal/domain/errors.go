package domain

import "errors"

var (
	ErrUnknownUnit     = errors.New("unknown temperature unit")
	ErrUnknownTimeZone = errors.New("unknown time zone")
	ErrUnknownFormat   = errors.New("unknown source format")
	ErrMissingColumn   = errors.New("missing column")
	ErrRangeAlreadySet = errors.New("observed date range already recorded")
	ErrNotEnoughPairs  = errors.New("not enough joined pairs")
	ErrDegenerateFit   = errors.New("product values have no variance")
	ErrEmptyGrid       = errors.New("grid has no cells")
	ErrNoSamples       = errors.New("no grid values at nearest cell")
)
