package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	Run     RunMetadata `json:"run"`
	Samples []Sample    `json:"samples"`
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(sampleHeader); err != nil {
		return err
	}

	for _, smp := range samples {
		row := []string{
			smp.Subset,
			strconv.Itoa(int(smp.Year)),
			formatFloat(smp.Forcing),
			formatFloat(smp.Ts),
			formatFloat(smp.To),
			formatFloat(smp.TsLambdaMin),
			formatFloat(smp.TsLambdaMax),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportParquet writes samples to a Parquet file at path.
func ExportParquet(path string, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[Sample](file)
	if _, err := writer.Write(samples); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads back samples written by ExportParquet.
func ReadParquet(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[Sample](file)
	defer func() { _ = reader.Close() }()

	samples := make([]Sample, reader.NumRows())
	n, err := reader.Read(samples)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return samples[:n], nil
}
