package forcing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

// AllCategories selects every column of a table.
const AllCategories = "*"

// Table is a year-indexed set of forcing categories, as found in the
// historical and scenario CSV files.
type Table struct {
	Years   []int
	Columns []string
	data    [][]float64 // data[col][row]
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forcing table: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads a CSV table whose first column holds the year and whose
// remaining columns hold one forcing category each.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header", ErrMalformedTable)
		}
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need a year column and at least one category", ErrMalformedTable)
	}

	t := &Table{
		Columns: make([]string, len(header)-1),
		data:    make([][]float64, len(header)-1),
	}
	for i, name := range header[1:] {
		t.Columns[i] = strings.TrimSpace(name)
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		line++

		year, err := parseYear(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, line, err)
		}
		t.Years = append(t.Years, year)

		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedTable, line, t.Columns[i], err)
			}
			t.data[i] = append(t.data[i], v)
		}
	}

	return t, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	// Some exports write the index as a float.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("bad year %q", s)
	}
	return int(f), nil
}

func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

func (t *Table) Column(name string) (Series, error) {
	idx := slices.Index(t.Columns, name)
	if idx < 0 {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return Series{
		Years:  slices.Clone(t.Years),
		Values: slices.Clone(t.data[idx]),
	}, nil
}

// Expand resolves AllCategories and checks every name exists.
func (t *Table) Expand(categories []string) ([]string, error) {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == AllCategories {
			for _, col := range t.Columns {
				if !slices.Contains(out, col) {
					out = append(out, col)
				}
			}
			continue
		}
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Sum adds the chosen categories year by year. An empty selection is not an
// error: it yields a zero series over the table's years and empty is true.
func (t *Table) Sum(categories []string) (s Series, empty bool, err error) {
	cats, err := t.Expand(categories)
	if err != nil {
		return Series{}, false, err
	}

	s = Series{
		Years:  slices.Clone(t.Years),
		Values: make([]float64, len(t.Years)),
	}
	for _, c := range cats {
		col := t.data[slices.Index(t.Columns, c)]
		for i, v := range col {
			s.Values[i] += v
		}
	}

	return s, len(cats) == 0, nil
}

// Share is one category's forcing in a single year. Fraction is its part
// of the summed magnitudes, so negative forcings count toward the whole.
type Share struct {
	Category string
	Value    float64
	Fraction float64
}

// Shares breaks the forcing of year down by category.
func (t *Table) Shares(year int, categories []string) ([]Share, error) {
	row := slices.Index(t.Years, year)
	if row < 0 {
		return nil, fmt.Errorf("%w: year %d not in table", ErrInvalidInput, year)
	}
	cats, err := t.Expand(categories)
	if err != nil {
		return nil, err
	}

	out := make([]Share, len(cats))
	total := 0.0
	for i, c := range cats {
		v := t.data[slices.Index(t.Columns, c)][row]
		out[i] = Share{Category: c, Value: v}
		total += math.Abs(v)
	}
	if total > 0 {
		for i := range out {
			out[i].Fraction = math.Abs(out[i].Value) / total
		}
	}
	return out, nil
}
