package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"claim-prediction-api/inference"
	"claim-prediction-api/models"

	"go.uber.org/zap"
)

const (
	StageTransform = "transform"
	StagePredict   = "predict"
)

// positiveClass is the predict_proba column holding P(claim).
const positiveClass = 1

// PredictionError wraps a failure in one stage of the scoring pipeline.
type PredictionError struct {
	Stage string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// Scorer runs a Feature Record through the loaded artifacts.
type Scorer struct {
	artifacts *inference.Artifacts
	cache     ScoreCache
	logger    *zap.Logger
}

func NewScorer(artifacts *inference.Artifacts, cache ScoreCache, logger *zap.Logger) *Scorer {
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{artifacts: artifacts, cache: cache, logger: logger}
}

func (s *Scorer) Threshold() float64 { return s.artifacts.Threshold() }

func (s *Scorer) Score(ctx context.Context, rec models.Record) (models.Prediction, error) {
	key := rec.Fingerprint()
	if p, ok := s.cache.Get(ctx, key); ok {
		cacheHits.Inc()
		return p, nil
	}

	start := time.Now()
	probability, err := s.probability(rec)
	predictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var pe *PredictionError
		if errors.As(err, &pe) {
			predictionFailures.WithLabelValues(pe.Stage).Inc()
		}
		s.logger.Warn("prediction failed", zap.Error(err))
		return models.Prediction{}, err
	}

	threshold := s.artifacts.Threshold()
	p := models.Prediction{
		Probability: probability,
		Threshold:   threshold,
		Verdict:     models.Decide(probability, threshold),
	}
	predictionsTotal.WithLabelValues(string(p.Verdict)).Inc()
	s.logger.Debug("prediction scored",
		zap.Float64("probability", p.Probability),
		zap.String("verdict", string(p.Verdict)))

	s.cache.Set(ctx, key, p)
	return p, nil
}

func (s *Scorer) probability(rec models.Record) (float64, error) {
	x, err := s.artifacts.Preprocess().Transform(rec)
	if err != nil {
		return 0, &PredictionError{Stage: StageTransform, Err: err}
	}

	proba, err := s.artifacts.Model().PredictProba(x)
	if err != nil {
		return 0, &PredictionError{Stage: StagePredict, Err: err}
	}
	rows, cols := proba.Dims()
	if rows < 1 || cols <= positiveClass {
		return 0, &PredictionError{Stage: StagePredict,
			Err: fmt.Errorf("predict_proba returned %dx%d, want at least 1x%d", rows, cols, positiveClass+1)}
	}

	p := proba.At(0, positiveClass)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, &PredictionError{Stage: StagePredict, Err: fmt.Errorf("probability %v outside [0, 1]", p)}
	}
	return p, nil
}
