package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("storage: run not found")
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store persists finished runs.
type Store interface {
	Init() error
	// Save assigns an ID and timestamp when meta has none and returns the ID.
	Save(meta RunMetadata, samples []Sample) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadSamples(id string) ([]Sample, error)
	Close() error
}

type RunMetadata struct {
	ID           string       `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	Forcing      string       `json:"forcing"`
	Source       string       `json:"lambda_source"`
	Lambda       float64      `json:"lambda"`
	LambdaLow    float64      `json:"lambda_low"`
	LambdaHigh   float64      `json:"lambda_high"`
	Gamma        float64      `json:"gamma"`
	Uncertainty  bool         `json:"uncertainty"`
	Envelope     string       `json:"envelope,omitempty"`
	Feedback     []string     `json:"feedback,omitempty"`
	BaselineFrom int          `json:"baseline_from,omitempty"`
	BaselineTo   int          `json:"baseline_to,omitempty"`
	Subsets      []SubsetMeta `json:"subsets"`
}

type SubsetMeta struct {
	Name           string   `json:"name"`
	Categories     []string `json:"categories"`
	EmptySelection bool     `json:"empty_selection,omitempty"`
	Metrics        Metrics  `json:"metrics"`
}

// Sample is one year of one subset. Without an envelope the lambda bounds
// repeat Ts.
type Sample struct {
	Subset      string  `json:"subset" parquet:"subset,snappy"`
	Year        int32   `json:"year" parquet:"year,snappy"`
	Forcing     float64 `json:"forcing" parquet:"forcing,snappy"`
	Ts          float64 `json:"ts" parquet:"ts,snappy"`
	To          float64 `json:"to" parquet:"to,snappy"`
	TsLambdaMin float64 `json:"ts_lambda_min" parquet:"ts_lambda_min,snappy"`
	TsLambdaMax float64 `json:"ts_lambda_max" parquet:"ts_lambda_max,snappy"`
}

// Open returns the store for backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir), nil
	case BackendSQLite:
		return NewSQLiteStore(dir), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

func stamp(meta *RunMetadata) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
}

// SubsetSamples returns the samples of one subset in year order.
func SubsetSamples(samples []Sample, subset string) []Sample {
	out := make([]Sample, 0)
	for _, s := range samples {
		if s.Subset == subset {
			out = append(out, s)
		}
	}
	return out
}
