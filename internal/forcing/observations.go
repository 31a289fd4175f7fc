package forcing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Observations is a measured temperature anomaly record with its 95%
// confidence band. It is only overlaid on charts.
type Observations struct {
	Years  []int
	Values []float64
	Min    []float64
	Max    []float64
}

func LoadObservationsFile(path string) (*Observations, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()

	obs, err := LoadObservations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// LoadObservations reads year,value[,ci95] rows. Title lines before the
// header, which have a single field, are skipped. Without a ci95 column the
// band collapses onto the values.
func LoadObservations(r io.Reader) (*Observations, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var header []string
	for header == nil {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header", ErrMalformedTable)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		if len(rec) >= 2 {
			header = rec
		}
	}

	ciCol := slices.IndexFunc(header, func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), "ci95")
	})

	obs := &Observations{}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		if len(rec) < 2 {
			continue
		}

		year, err := parseYear(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: year %d: %v", ErrMalformedTable, year, err)
		}

		ci := 0.0
		if ciCol > 0 && ciCol < len(rec) && strings.TrimSpace(rec[ciCol]) != "" {
			ci, err = strconv.ParseFloat(strings.TrimSpace(rec[ciCol]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: year %d ci95: %v", ErrMalformedTable, year, err)
			}
		}

		obs.Years = append(obs.Years, year)
		obs.Values = append(obs.Values, v)
		obs.Min = append(obs.Min, v-ci)
		obs.Max = append(obs.Max, v+ci)
	}

	return obs, nil
}

// Window returns the records with from <= year <= to; zero bounds are open.
func (o *Observations) Window(from, to int) *Observations {
	lo, hi := windowBounds(o.Years, from, to)
	return &Observations{
		Years:  slices.Clone(o.Years[lo:hi]),
		Values: slices.Clone(o.Values[lo:hi]),
		Min:    slices.Clone(o.Min[lo:hi]),
		Max:    slices.Clone(o.Max[lo:hi]),
	}
}
