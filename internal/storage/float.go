package storage

import (
	"encoding/json"
	"math"
	"strconv"
)

// jsonFloat is a float64 that encodes NaN and the infinities as the
// strings "NaN", "+Inf" and "-Inf", which encoding/json rejects as numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = jsonFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// Metrics holds the summary values of one run by name. A diverging run
// has infinite or NaN entries; they are kept.
type Metrics map[string]float64

func (m Metrics) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	out := make(map[string]jsonFloat, len(m))
	for k, v := range m {
		out[k] = jsonFloat(v)
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(b []byte) error {
	var in map[string]jsonFloat
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in == nil {
		*m = nil
		return nil
	}
	*m = make(Metrics, len(in))
	for k, v := range in {
		(*m)[k] = float64(v)
	}
	return nil
}

type sampleJSON struct {
	Subset      string    `json:"subset"`
	Year        int32     `json:"year"`
	Forcing     jsonFloat `json:"forcing"`
	Ts          jsonFloat `json:"ts"`
	To          jsonFloat `json:"to"`
	TsLambdaMin jsonFloat `json:"ts_lambda_min"`
	TsLambdaMax jsonFloat `json:"ts_lambda_max"`
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(sampleJSON{
		Subset:      s.Subset,
		Year:        s.Year,
		Forcing:     jsonFloat(s.Forcing),
		Ts:          jsonFloat(s.Ts),
		To:          jsonFloat(s.To),
		TsLambdaMin: jsonFloat(s.TsLambdaMin),
		TsLambdaMax: jsonFloat(s.TsLambdaMax),
	})
}

func (s *Sample) UnmarshalJSON(b []byte) error {
	var v sampleJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Sample{
		Subset:      v.Subset,
		Year:        v.Year,
		Forcing:     float64(v.Forcing),
		Ts:          float64(v.Ts),
		To:          float64(v.To),
		TsLambdaMin: float64(v.TsLambdaMin),
		TsLambdaMax: float64(v.TsLambdaMax),
	}
	return nil
}
