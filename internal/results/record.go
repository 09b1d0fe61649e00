// Package results loads benchmark rows comparing the compact LP formulation
// against column generation for the cutting-stock problem.
//
// Rows are validated once at load time: the five required columns must be
// present and both LP bounds must parse as floats. Downstream code consumes
// typed Records instead of re-reading CSV cells by name.
package results

import (
	"errors"
	"fmt"
)

// Required CSV column names, in display order.
const (
	ColumnInstance    = "Instance"
	ColumnCompactLP   = "Compact LP"
	ColumnCompactTime = "Compact Time(s)"
	ColumnColGenLP    = "ColGen LP"
	ColumnColGenTime  = "ColGen Time(s)"
)

// Columns lists the columns every results file must provide.
var Columns = []string{
	ColumnInstance,
	ColumnCompactLP,
	ColumnCompactTime,
	ColumnColGenLP,
	ColumnColGenTime,
}

var (
	// ErrFileNotFound indicates the results CSV does not exist.
	ErrFileNotFound = errors.New("results file not found")
	// ErrEmptyInput indicates the results CSV has a header but no data rows.
	ErrEmptyInput = errors.New("results CSV is empty")
	// ErrMissingColumn indicates a required column is absent from the header or a row.
	ErrMissingColumn = errors.New("results: missing column")
	// ErrMalformedNumeric indicates an LP bound that is not a number.
	ErrMalformedNumeric = errors.New("results: malformed numeric value")
	// ErrUndefinedGap indicates the gap cannot be computed because the ColGen bound is zero.
	ErrUndefinedGap = errors.New("results: gap undefined for zero ColGen LP")
)

// Bound is an LP bound as written in the CSV together with its parsed value.
// Text is what gets rendered; Value is only used for arithmetic.
type Bound struct {
	Text  string
	Value float64
}

// Record is one benchmark row.
type Record struct {
	Instance    string
	CompactLP   Bound
	CompactTime string // seconds, passed through as written
	ColGenLP    Bound
	ColGenTime  string // seconds, passed through as written

	// Line is the 1-based CSV line the record was read from.
	Line int
}

// Gap returns the relative improvement of the column-generation bound over
// the compact bound as a percentage of the column-generation bound:
//
//	(ColGenLP - CompactLP) / ColGenLP * 100
func (r Record) Gap() (float64, error) {
	if r.ColGenLP.Value == 0 {
		return 0, fmt.Errorf("%w: instance %q (line %d)", ErrUndefinedGap, r.Instance, r.Line)
	}
	return (r.ColGenLP.Value - r.CompactLP.Value) / r.ColGenLP.Value * 100, nil
}
