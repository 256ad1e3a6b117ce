package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Classifier returns one row per sample: [P(no claim), P(claim)].
type Classifier interface {
	PredictProba(x mat.Matrix) (*mat.Dense, error)
	NumFeatures() int
}

type Decoder func(data []byte) (Classifier, error)

var Decoders = map[string]Decoder{
	"gbtree": func(data []byte) (Classifier, error) {
		te, err := DecodeTreeEnsemble(data)
		if err != nil {
			return nil, err
		}
		return te, nil
	},
	"logistic": func(data []byte) (Classifier, error) {
		lr, err := DecodeLogistic(data)
		if err != nil {
			return nil, err
		}
		return lr, nil
	},
}

// DecodeClassifier dispatches on the artifact's "kind" field.
func DecodeClassifier(data []byte) (Classifier, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	decode, ok := Decoders[head.Kind]
	if !ok {
		kinds := make([]string, 0, len(Decoders))
		for k := range Decoders {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		return nil, fmt.Errorf("unsupported classifier kind %q (want one of %v)", head.Kind, kinds)
	}
	return decode(data)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func binaryProba(x mat.Matrix, width int, margin func(row []float64) float64) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != width {
		return nil, fmt.Errorf("classifier expects %d features, got %d", width, c)
	}
	out := mat.NewDense(r, 2, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		p := sigmoid(margin(row))
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

type TreeNode struct {
	Feature     int     `json:"feature"`
	Threshold   float64 `json:"threshold"`
	Left        int     `json:"left"`
	Right       int     `json:"right"`
	DefaultLeft bool    `json:"default_left"`
	Leaf        float64 `json:"leaf"`
	IsLeaf      bool    `json:"is_leaf"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsemble is a boosted binary:logistic ensemble. Leaves are summed in
// margin space on top of BaseMargin.
type TreeEnsemble struct {
	Features   int     `json:"num_features"`
	BaseMargin float64 `json:"base_margin"`
	Trees      []Tree  `json:"trees"`
}

func DecodeTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var te TreeEnsemble
	if err := json.Unmarshal(data, &te); err != nil {
		return nil, fmt.Errorf("decode tree ensemble: %w", err)
	}
	if err := te.validate(); err != nil {
		return nil, err
	}
	return &te, nil
}

func (te *TreeEnsemble) validate() error {
	if te.Features <= 0 {
		return errors.New("num_features must be positive")
	}
	if len(te.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	for t, tree := range te.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		for n, node := range tree.Nodes {
			if node.IsLeaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= te.Features {
				return fmt.Errorf("tree %d node %d: feature %d out of range", t, n, node.Feature)
			}
			// children must point forward so evaluation terminates
			if node.Left <= n || node.Left >= len(tree.Nodes) ||
				node.Right <= n || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children %d/%d", t, n, node.Left, node.Right)
			}
		}
	}
	return nil
}

func (te *TreeEnsemble) NumFeatures() int { return te.Features }

func (te *TreeEnsemble) margin(row []float64) float64 {
	sum := te.BaseMargin
	for _, tree := range te.Trees {
		sum += tree.eval(row)
	}
	return sum
}

func (t Tree) eval(row []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Leaf
		}
		x := row[node.Feature]
		switch {
		case math.IsNaN(x):
			if node.DefaultLeft {
				idx = node.Left
			} else {
				idx = node.Right
			}
		case x < node.Threshold:
			idx = node.Left
		default:
			idx = node.Right
		}
	}
}

func (te *TreeEnsemble) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	return binaryProba(x, te.Features, te.margin)
}

type Logistic struct {
	Features  int       `json:"num_features"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func DecodeLogistic(data []byte) (*Logistic, error) {
	var lr Logistic
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("decode logistic model: %w", err)
	}
	if lr.Features <= 0 {
		lr.Features = len(lr.Coef)
	}
	if lr.Features == 0 || len(lr.Coef) != lr.Features {
		return nil, fmt.Errorf("logistic model: %d coefficients for %d features", len(lr.Coef), lr.Features)
	}
	return &lr, nil
}

func (lr *Logistic) NumFeatures() int { return lr.Features }

func (lr *Logistic) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	coef := mat.NewVecDense(len(lr.Coef), lr.Coef)
	return binaryProba(x, lr.Features, func(row []float64) float64 {
		return mat.Dot(mat.NewVecDense(len(row), row), coef) + lr.Intercept
	})
}
