package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"claim-prediction-api/models"

	"gonum.org/v1/gonum/mat"
)

// Transformer turns a record into the feature matrix the classifier expects.
type Transformer interface {
	Transform(rec models.Record) (*mat.Dense, error)
	InputSchema() []models.ColumnSpec
	OutputWidth() int
}

const (
	UnknownIgnore = "ignore"
	UnknownError  = "error"
)

type numericBlock struct {
	Columns []string  `json:"columns"`
	Fill    []float64 `json:"fill,omitempty"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

type categoricalBlock struct {
	Columns       []string   `json:"columns"`
	Categories    [][]string `json:"categories"`
	HandleUnknown string     `json:"handle_unknown"`
}

// ColumnTransformer standardizes numeric columns and one-hot encodes
// categorical ones, numeric block first.
type ColumnTransformer struct {
	FeatureNamesIn []models.ColumnSpec `json:"feature_names_in"`
	Numeric        numericBlock        `json:"numeric"`
	Categorical    categoricalBlock    `json:"categorical"`

	index map[string]int
}

func DecodeColumnTransformer(data []byte) (*ColumnTransformer, error) {
	var ct ColumnTransformer
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("decode column transformer: %w", err)
	}
	if err := ct.validate(); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (ct *ColumnTransformer) validate() error {
	if len(ct.FeatureNamesIn) == 0 {
		return errors.New("feature_names_in is empty")
	}
	ct.index = make(map[string]int, len(ct.FeatureNamesIn))
	for i, spec := range ct.FeatureNamesIn {
		if _, dup := ct.index[spec.Name]; dup {
			return fmt.Errorf("duplicate input column %q", spec.Name)
		}
		ct.index[spec.Name] = i
	}

	n := len(ct.Numeric.Columns)
	if len(ct.Numeric.Mean) != n || len(ct.Numeric.Scale) != n {
		return fmt.Errorf("numeric block: %d columns, %d means, %d scales",
			n, len(ct.Numeric.Mean), len(ct.Numeric.Scale))
	}
	if len(ct.Numeric.Fill) != 0 && len(ct.Numeric.Fill) != n {
		return fmt.Errorf("numeric block: %d columns, %d fill values", n, len(ct.Numeric.Fill))
	}
	used := make(map[string]bool, len(ct.FeatureNamesIn))
	for i, col := range ct.Numeric.Columns {
		if err := ct.claim(used, col, models.Numeric); err != nil {
			return err
		}
		if ct.Numeric.Scale[i] == 0 {
			return fmt.Errorf("numeric column %q has zero scale", col)
		}
	}

	if len(ct.Categorical.Categories) != len(ct.Categorical.Columns) {
		return fmt.Errorf("categorical block: %d columns, %d category lists",
			len(ct.Categorical.Columns), len(ct.Categorical.Categories))
	}
	for i, col := range ct.Categorical.Columns {
		if err := ct.claim(used, col, models.Categorical); err != nil {
			return err
		}
		if len(ct.Categorical.Categories[i]) == 0 {
			return fmt.Errorf("categorical column %q has no categories", col)
		}
	}
	// every input column feeds exactly one block; there is no remainder
	for _, spec := range ct.FeatureNamesIn {
		if !used[spec.Name] {
			return fmt.Errorf("input column %q is not used by any block", spec.Name)
		}
	}

	switch ct.Categorical.HandleUnknown {
	case "":
		ct.Categorical.HandleUnknown = UnknownError
	case UnknownIgnore, UnknownError:
	default:
		return fmt.Errorf("unsupported handle_unknown %q", ct.Categorical.HandleUnknown)
	}
	return nil
}

func (ct *ColumnTransformer) claim(used map[string]bool, col string, kind models.Kind) error {
	if used[col] {
		return fmt.Errorf("column %q is listed more than once", col)
	}
	used[col] = true
	return ct.expectKind(col, kind)
}

func (ct *ColumnTransformer) expectKind(col string, kind models.Kind) error {
	i, ok := ct.index[col]
	if !ok {
		return fmt.Errorf("column %q is not in feature_names_in", col)
	}
	if got := ct.FeatureNamesIn[i].Kind; got != kind {
		return fmt.Errorf("column %q is %s in feature_names_in, used as %s", col, got, kind)
	}
	return nil
}

func (ct *ColumnTransformer) InputSchema() []models.ColumnSpec {
	out := make([]models.ColumnSpec, len(ct.FeatureNamesIn))
	copy(out, ct.FeatureNamesIn)
	return out
}

func (ct *ColumnTransformer) OutputWidth() int {
	width := len(ct.Numeric.Columns)
	for _, cats := range ct.Categorical.Categories {
		width += len(cats)
	}
	return width
}

// Transform checks the record against the fitted schema and encodes it as
// a single-row matrix.
func (ct *ColumnTransformer) Transform(rec models.Record) (*mat.Dense, error) {
	if err := ct.checkSchema(rec); err != nil {
		return nil, err
	}

	row := make([]float64, ct.OutputWidth())
	for i, col := range ct.Numeric.Columns {
		x := rec.Columns[ct.index[col]].Value.Num
		if math.IsNaN(x) {
			if len(ct.Numeric.Fill) == 0 {
				return nil, mismatch(col, "missing value and no fill configured")
			}
			x = ct.Numeric.Fill[i]
		}
		row[i] = (x - ct.Numeric.Mean[i]) / ct.Numeric.Scale[i]
	}

	offset := len(ct.Numeric.Columns)
	for i, col := range ct.Categorical.Columns {
		cats := ct.Categorical.Categories[i]
		text := rec.Columns[ct.index[col]].Value.Text
		hit := -1
		for j, c := range cats {
			if c == text {
				hit = j
				break
			}
		}
		if hit < 0 && ct.Categorical.HandleUnknown == UnknownError {
			return nil, mismatch(col, "unknown category %q", text)
		}
		if hit >= 0 {
			row[offset+hit] = 1
		}
		offset += len(cats)
	}

	return mat.NewDense(1, len(row), row), nil
}

func (ct *ColumnTransformer) checkSchema(rec models.Record) error {
	if rec.Len() != len(ct.FeatureNamesIn) {
		return mismatch("", "record has %d columns, transformer expects %d",
			rec.Len(), len(ct.FeatureNamesIn))
	}
	for i, spec := range ct.FeatureNamesIn {
		got := rec.Columns[i]
		if got.Name != spec.Name {
			return mismatch(spec.Name, "position %d holds %q", i, got.Name)
		}
		if got.Value.Kind != spec.Kind {
			return mismatch(spec.Name, "expected %s value, got %s", spec.Kind, got.Value.Kind)
		}
	}
	return nil
}
