package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const utf8BOM = "\uFEFF"

// Load reads the results CSV at path. The first row is the header; columns
// are matched by name and extra columns are ignored. Records keep file order.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run compare.sh first)", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads results from r. It fails with ErrEmptyInput when there are no
// data rows.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := newRecord(row, index, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	return records, nil
}

// columnIndex maps each required column to its position in header. A name
// repeated in the header resolves to its first occurrence.
func columnIndex(header []string) (map[string]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: header lacks %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return index, nil
}

func newRecord(row []string, index map[string]int, line int) (Record, error) {
	cell := func(col string) (string, error) {
		i := index[col]
		if i >= len(row) {
			return "", fmt.Errorf("%w: %q on line %d", ErrMissingColumn, col, line)
		}
		return row[i], nil
	}

	values := make(map[string]string, len(Columns))
	for _, col := range Columns {
		v, err := cell(col)
		if err != nil {
			return Record{}, err
		}
		values[col] = v
	}

	compact, err := parseBound(values[ColumnCompactLP], ColumnCompactLP, line)
	if err != nil {
		return Record{}, err
	}
	colgen, err := parseBound(values[ColumnColGenLP], ColumnColGenLP, line)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Instance:    values[ColumnInstance],
		CompactLP:   compact,
		CompactTime: values[ColumnCompactTime],
		ColGenLP:    colgen,
		ColGenTime:  values[ColumnColGenTime],
		Line:        line,
	}, nil
}

func parseBound(text, col string, line int) (Bound, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return Bound{}, fmt.Errorf("%w: %s %q on line %d", ErrMalformedNumeric, col, text, line)
	}
	return Bound{Text: text, Value: v}, nil
}
