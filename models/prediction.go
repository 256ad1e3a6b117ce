package models

import "github.com/shopspring/decimal"

type Verdict string

const (
	HighRisk Verdict = "high_risk"
	LowRisk  Verdict = "low_risk"
)

// Decide applies the decision threshold. A probability equal to the
// threshold is High Risk.
func Decide(probability, threshold float64) Verdict {
	if probability >= threshold {
		return HighRisk
	}
	return LowRisk
}

func (v Verdict) Label() string {
	switch v {
	case HighRisk:
		return "High Risk: Claim Likely"
	case LowRisk:
		return "Low Risk: Claim Unlikely"
	default:
		return string(v)
	}
}

type Prediction struct {
	Probability float64 `json:"probability"`
	Threshold   float64 `json:"threshold"`
	Verdict     Verdict `json:"verdict"`
}

// exactExponent is small enough for NewFromFloatWithExponent to keep every
// binary digit of a float64.
const exactExponent = -1074

// Display renders the probability to three decimal places, rounding the
// exact binary value with ties to even.
func (p Prediction) Display() string {
	return decimal.NewFromFloatWithExponent(p.Probability, exactExponent).StringFixedBank(3)
}

func (p Prediction) High() bool { return p.Verdict == HighRisk }

// PredictionResponse is the JSON shape returned by the API.
type PredictionResponse struct {
	Probability        float64 `json:"probability"`
	ProbabilityDisplay string  `json:"probability_display"`
	Threshold          float64 `json:"threshold"`
	Verdict            Verdict `json:"verdict"`
	Label              string  `json:"label"`
}

func (p Prediction) Response() PredictionResponse {
	return PredictionResponse{
		Probability:        p.Probability,
		ProbabilityDisplay: p.Display(),
		Threshold:          p.Threshold,
		Verdict:            p.Verdict,
		Label:              p.Verdict.Label(),
	}
}
