package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"claim-prediction-api/inference"
	"claim-prediction-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func loadDemo(t *testing.T) *inference.Artifacts {
	t.Helper()
	a, err := inference.Load(inference.DefaultPaths("../artifacts"))
	require.NoError(t, err)
	return a
}

// rejectingTransformer stands in for a preprocess artifact fitted on a
// different schema.
type rejectingTransformer struct{ width int }

func (r rejectingTransformer) Transform(models.Record) (*mat.Dense, error) {
	return nil, &inference.SchemaError{Column: "make", Detail: "expected numeric value, got categorical"}
}
func (r rejectingTransformer) InputSchema() []models.ColumnSpec { return nil }
func (r rejectingTransformer) OutputWidth() int                 { return r.width }

type fixedClassifier struct {
	proba *mat.Dense
	err   error
}

func (f fixedClassifier) PredictProba(mat.Matrix) (*mat.Dense, error) { return f.proba, f.err }
func (f fixedClassifier) NumFeatures() int                            { return 42 }

type countingCache struct {
	MemoryCache
	gets, sets int
}

func (c *countingCache) Get(ctx context.Context, key string) (models.Prediction, bool) {
	c.gets++
	return c.MemoryCache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, p models.Prediction) {
	c.sets++
	c.MemoryCache.Set(ctx, key, p)
}

func TestScoreDefaultsScenario(t *testing.T) {
	a := loadDemo(t)
	scorer := NewScorer(a, nil, nil)

	rec := models.Assemble(models.DefaultForm())
	require.Equal(t, 23, rec.Len())

	p, err := scorer.Score(context.Background(), rec)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, p.Probability, 0.0)
	assert.LessOrEqual(t, p.Probability, 1.0)
	assert.Equal(t, models.Decide(p.Probability, a.Threshold()), p.Verdict)
	assert.Equal(t, models.LowRisk, p.Verdict)
	assert.Equal(t, "0.037", p.Display())
}

func TestScoreHighRiskProfile(t *testing.T) {
	scorer := NewScorer(loadDemo(t), nil, nil)

	form := models.DefaultForm()
	form.PolicyTenure = 1.8
	form.AgeOfCar = 0
	form.Segment = "B1"
	form.FuelType = "Diesel"
	form.Airbags = 1

	p, err := scorer.Score(context.Background(), models.Assemble(form))
	require.NoError(t, err)
	assert.InDelta(t, 0.108129, p.Probability, 1e-6)
	assert.Equal(t, models.HighRisk, p.Verdict)
	assert.Equal(t, "High Risk: Claim Likely", p.Verdict.Label())
}

func TestScoreIsIdempotent(t *testing.T) {
	scorer := NewScorer(loadDemo(t), nil, nil)
	rec := models.Assemble(models.DefaultForm())

	first, err := scorer.Score(context.Background(), rec)
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreProbabilityEqualToThresholdIsHighRisk(t *testing.T) {
	demo := loadDemo(t)
	rec := models.Assemble(models.DefaultForm())

	x, err := demo.Preprocess().Transform(rec)
	require.NoError(t, err)
	proba, err := demo.Model().PredictProba(x)
	require.NoError(t, err)
	exact := proba.At(0, 1)

	a, err := inference.NewArtifacts(demo.Preprocess(), demo.Model(), exact)
	require.NoError(t, err)

	p, err := NewScorer(a, nil, nil).Score(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, exact, p.Probability)
	assert.Equal(t, models.HighRisk, p.Verdict)
}

func TestScoreRejectedSchemaIsRecoverable(t *testing.T) {
	a, err := inference.NewArtifacts(rejectingTransformer{width: 42}, fixedClassifier{}, 0.5)
	require.NoError(t, err)
	scorer := NewScorer(a, nil, nil)
	rec := models.Assemble(models.DefaultForm())

	for i := 0; i < 2; i++ {
		_, err := scorer.Score(context.Background(), rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, inference.ErrSchemaMismatch)

		var pe *PredictionError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, StageTransform, pe.Stage)
	}
}

func TestScorePredictStageFailures(t *testing.T) {
	demo := loadDemo(t)
	tests := []struct {
		name  string
		model fixedClassifier
	}{
		{"classifier error", fixedClassifier{err: errors.New("booster corrupted")}},
		{"single column", fixedClassifier{proba: mat.NewDense(1, 1, []float64{0.4})}},
		{"out of range", fixedClassifier{proba: mat.NewDense(1, 2, []float64{-0.2, 1.2})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := inference.NewArtifacts(demo.Preprocess(), tt.model, 0.5)
			require.NoError(t, err)

			_, err = NewScorer(a, nil, nil).Score(context.Background(), models.Assemble(models.DefaultForm()))
			var pe *PredictionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, StagePredict, pe.Stage)
		})
	}
}

func TestScoreUsesCache(t *testing.T) {
	cache := &countingCache{MemoryCache: *NewMemoryCache(8, time.Minute)}
	scorer := NewScorer(loadDemo(t), cache, nil)
	rec := models.Assemble(models.DefaultForm())

	first, err := scorer.Score(context.Background(), rec)
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestScoreFailureIsNotCached(t *testing.T) {
	cache := &countingCache{MemoryCache: *NewMemoryCache(8, time.Minute)}
	a, err := inference.NewArtifacts(rejectingTransformer{width: 42}, fixedClassifier{}, 0.5)
	require.NoError(t, err)

	_, err = NewScorer(a, cache, nil).Score(context.Background(), models.Assemble(models.DefaultForm()))
	require.Error(t, err)
	assert.Equal(t, 0, cache.sets)
}
