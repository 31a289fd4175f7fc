package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileStore keeps each run in its own directory as metadata.json and
// samples.csv.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

var sampleHeader = []string{"subset", "year", "forcing", "ts", "to", "ts_lambda_min", "ts_lambda_max"}

// Save writes the run into a hidden temporary directory and renames it
// into place, so a failed save leaves nothing behind.
func (s *FileStore) Save(meta RunMetadata, samples []Sample) (id string, err error) {
	stamp(&meta)
	if err := s.Init(); err != nil {
		return "", err
	}

	tmp, err := os.MkdirTemp(s.baseDir, ".save-")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()
	if err = os.Chmod(tmp, 0755); err != nil {
		return "", err
	}

	err = writeFile(filepath.Join(tmp, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}

	err = writeFile(filepath.Join(tmp, "samples.csv"), func(w io.Writer) error {
		return WriteCSV(w, samples)
	})
	if err != nil {
		return "", err
	}

	if err = os.Rename(tmp, filepath.Join(s.baseDir, meta.ID)); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *FileStore) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *FileStore) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		smp, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("samples.csv line %d: %w", i+2, err)
		}
		samples = append(samples, smp)
	}

	return samples, nil
}

func parseSample(record []string) (Sample, error) {
	if len(record) != len(sampleHeader) {
		return Sample{}, fmt.Errorf("expected %d fields, got %d", len(sampleHeader), len(record))
	}

	year, err := strconv.ParseInt(record[1], 10, 32)
	if err != nil {
		return Sample{}, err
	}

	vals := make([]float64, 5)
	for j := range vals {
		vals[j], err = strconv.ParseFloat(record[j+2], 64)
		if err != nil {
			return Sample{}, err
		}
	}

	return Sample{
		Subset:      record[0],
		Year:        int32(year),
		Forcing:     vals[0],
		Ts:          vals[1],
		To:          vals[2],
		TsLambdaMin: vals[3],
		TsLambdaMax: vals[4],
	}, nil
}
