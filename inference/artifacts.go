package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	DefaultPreprocessFile = "insurance_claim_preprocess.json"
	DefaultModelFile      = "insurance_claim_xgboost_model.json"
	DefaultThresholdFile  = "insurance_claim_threshold.json"
)

type Paths struct {
	Preprocess string
	Model      string
	Threshold  string
}

// DefaultPaths places the three artifacts under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Preprocess: filepath.Join(dir, DefaultPreprocessFile),
		Model:      filepath.Join(dir, DefaultModelFile),
		Threshold:  filepath.Join(dir, DefaultThresholdFile),
	}
}

// Artifacts is loaded once at startup and shared read-only afterwards.
type Artifacts struct {
	preprocess Transformer
	model      Classifier
	threshold  float64
}

func NewArtifacts(preprocess Transformer, model Classifier, threshold float64) (*Artifacts, error) {
	if preprocess == nil || model == nil {
		return nil, errors.New("preprocess and model are required")
	}
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if w, n := preprocess.OutputWidth(), model.NumFeatures(); w != n {
		return nil, fmt.Errorf("preprocess emits %d features, model expects %d", w, n)
	}
	return &Artifacts{preprocess: preprocess, model: model, threshold: threshold}, nil
}

func (a *Artifacts) Preprocess() Transformer { return a.preprocess }
func (a *Artifacts) Model() Classifier       { return a.model }
func (a *Artifacts) Threshold() float64      { return a.threshold }

// Load reads and cross-checks all three artifacts. Any failure is fatal to
// the caller; there is no partial result.
func Load(paths Paths) (*Artifacts, error) {
	raw, err := read("preprocess", paths.Preprocess)
	if err != nil {
		return nil, err
	}
	preprocess, err := DecodeColumnTransformer(raw)
	if err != nil {
		return nil, &ArtifactError{Artifact: "preprocess", Path: paths.Preprocess, Err: err}
	}

	raw, err = read("model", paths.Model)
	if err != nil {
		return nil, err
	}
	model, err := DecodeClassifier(raw)
	if err != nil {
		return nil, &ArtifactError{Artifact: "model", Path: paths.Model, Err: err}
	}

	raw, err = read("threshold", paths.Threshold)
	if err != nil {
		return nil, err
	}
	threshold, err := DecodeThreshold(raw)
	if err != nil {
		return nil, &ArtifactError{Artifact: "threshold", Path: paths.Threshold, Err: err}
	}

	a, err := NewArtifacts(preprocess, model, threshold)
	if err != nil {
		return nil, &ArtifactError{Artifact: "model", Path: paths.Model, Err: err}
	}
	return a, nil
}

func read(artifact, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Artifact: artifact, Path: path, Err: err}
	}
	return data, nil
}

// DecodeThreshold accepts a bare JSON number or {"threshold": x}.
func DecodeThreshold(data []byte) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0, errors.New("threshold file is empty")
	}

	var t float64
	if data[0] == '{' {
		var obj struct {
			Threshold *float64 `json:"threshold"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return 0, fmt.Errorf("decode threshold: %w", err)
		}
		if obj.Threshold == nil {
			return 0, errors.New(`threshold object has no "threshold" key`)
		}
		t = *obj.Threshold
	} else if err := json.Unmarshal(data, &t); err != nil {
		return 0, fmt.Errorf("decode threshold: %w", err)
	}

	if err := checkThreshold(t); err != nil {
		return 0, err
	}
	return t, nil
}

func checkThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 || t > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", t)
	}
	return nil
}
