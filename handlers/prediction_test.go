package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"claim-prediction-api/config"
	"claim-prediction-api/inference"
	"claim-prediction-api/models"
	"claim-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func demoArtifacts(t *testing.T) *inference.Artifacts {
	t.Helper()
	a, err := inference.Load(inference.DefaultPaths("../artifacts"))
	require.NoError(t, err)
	return a
}

func newTestRouter(t *testing.T, a *inference.Artifacts) *gin.Engine {
	t.Helper()
	scorer := services.NewScorer(a, nil, zap.NewNop())
	return SetupRouter(config.CORSConfig{AllowedOrigins: "*"}, scorer, zap.NewNop())
}

// staleTransformer mimics a preprocess artifact fitted on a numeric make column.
type staleTransformer struct{ inference.Transformer }

func (s staleTransformer) Transform(models.Record) (*mat.Dense, error) {
	return nil, &inference.SchemaError{Column: "make", Detail: "expected numeric value, got categorical"}
}

func postForm(router *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/predict", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func defaultValues() url.Values {
	values := url.Values{}
	for name, v := range models.DefaultForm().Values() {
		values.Set(name, v)
	}
	return values
}

func TestShowFormRendersControls(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, PageTitle)
	for _, section := range models.Sections() {
		assert.Contains(t, body, template.HTMLEscapeString(section.Title))
	}
	assert.Contains(t, body, "Predict Claim Probability")
	assert.Contains(t, body, ModelCaption)
	assert.Contains(t, body, `name="population_density" min="0" max="8000"`)
	assert.Contains(t, body, `<option value="Petrol" selected>`)
	assert.Contains(t, body, `type="range" id="airbags"`)
	assert.NotContains(t, body, "Prediction Result")
}

func TestSubmitFormDefaults(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := postForm(router, defaultValues())

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Prediction Result")
	assert.Contains(t, body, "<code>0.037</code>")
	assert.Contains(t, body, "Low Risk: Claim Unlikely")
	assert.NotContains(t, body, "High Risk")
}

func TestSubmitFormHighRisk(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	values := defaultValues()
	values.Set("policy_tenure", "1.8")
	values.Set("age_of_car", "0")
	values.Set("segment", "B1")
	values.Set("fuel_type", "Diesel")
	values.Set("airbags", "1")
	w := postForm(router, values)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<code>0.108</code>")
	assert.Contains(t, body, `class="banner high"`)
	assert.Contains(t, body, "High Risk: Claim Likely")
	// submitted values stay on the page
	assert.Contains(t, body, `<option value="Diesel" selected>`)
}

func TestSubmitFormPartialKeepsDefaults(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := postForm(router, url.Values{"ncap_rating": {"3"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<code>0.037</code>")
}

func TestSubmitFormPopulationDensityBounds(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	for _, v := range []string{"0", "8000"} {
		values := defaultValues()
		values.Set("population_density", v)
		w := postForm(router, values)
		assert.Equal(t, http.StatusOK, w.Code, "population_density=%s", v)
		assert.Contains(t, w.Body.String(), "Prediction Result")
	}
}

func TestSubmitFormRejectsOutOfDomain(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	tests := []struct {
		field, value, message string
	}{
		{"population_density", "8001", "Population Density must be at most 8000"},
		{"policy_tenure", "-0.1", "Policy Tenure must be at least 0"},
		{"airbags", "7", "Number of Airbags must be at most 6"},
		{"segment", "D", "Car Segment must be one of A, B1, B2, C1, C2"},
		{"make", "9", "Car Make (Encoded) must be one of 1, 2, 3, 4, 5"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			values := defaultValues()
			values.Set(tt.field, tt.value)
			w := postForm(router, values)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.NotContains(t, w.Body.String(), "Prediction Result")
		})
	}
}

func TestSubmitFormRejectsBlankNumbers(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	tests := []struct {
		field, message string
	}{
		{"population_density", "Population Density is required"},
		{"max_power", "Max Power (bhp) is required"},
		{"airbags", "Number of Airbags is required"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			values := defaultValues()
			values.Set(tt.field, " ")
			w := postForm(router, values)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), template.HTMLEscapeString(tt.message))
			assert.NotContains(t, w.Body.String(), "Prediction Result")
		})
	}
}

func TestSubmitFormMaxPowerHundredths(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	values := defaultValues()
	values.Set("max_power", "90.25")
	w := postForm(router, values)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="max_power" min="50" max="200" step="0.01" value="90.25"`)
}

func TestSubmitFormMismatchIsDisplayed(t *testing.T) {
	demo := demoArtifacts(t)
	stale, err := inference.NewArtifacts(staleTransformer{demo.Preprocess()}, demo.Model(), demo.Threshold())
	require.NoError(t, err)
	router := newTestRouter(t, stale)

	for i := 0; i < 2; i++ {
		w := postForm(router, defaultValues())
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, PredictionFailure)
		assert.Contains(t, body, "column &#34;make&#34;")
		assert.NotContains(t, body, "Prediction Result")
	}

	// the form itself still renders afterwards
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictJSON(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := postJSON(router, map[string]interface{}{"make": 3, "segment": "B2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Probability, 0.0)
	assert.LessOrEqual(t, resp.Probability, 1.0)
	assert.Equal(t, 0.0937, resp.Threshold)
	assert.Equal(t, models.Decide(resp.Probability, resp.Threshold), resp.Verdict)
	assert.Equal(t, resp.Verdict.Label(), resp.Label)
	assert.Len(t, resp.ProbabilityDisplay, 5)
}

func TestPredictJSONIdempotent(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))
	body := map[string]interface{}{"policy_tenure": 1.2, "airbags": 6}

	first := postJSON(router, body)
	second := postJSON(router, body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPredictJSONValidation(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"out of range", map[string]interface{}{"width": 2100}, "width"},
		{"closed set", map[string]interface{}{"fuel_type": "Electric"}, "fuel_type"},
		{"wrong type", map[string]interface{}{"airbags": "two"}, "airbags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "invalid input", resp.Error)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestPredictJSONMismatch(t *testing.T) {
	demo := demoArtifacts(t)
	stale, err := inference.NewArtifacts(staleTransformer{demo.Preprocess()}, demo.Model(), demo.Threshold())
	require.NoError(t, err)
	router := newTestRouter(t, stale)

	w := postJSON(router, map[string]interface{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, PredictionFailure, resp["error"])
	assert.Contains(t, resp["detail"], "preprocessing mismatch")
}

func TestSchema(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/schema", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fields    []models.Field      `json:"fields"`
		Columns   []models.ColumnSpec `json:"columns"`
		Constants map[string]int      `json:"constants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Fields, 21)
	require.Len(t, resp.Columns, 23)
	assert.Equal(t, models.ColumnSpec{Name: "make", Kind: models.Categorical}, resp.Columns[4])
	assert.Equal(t, 4, resp.Constants["cylinder"])
	assert.Equal(t, 5, resp.Constants["gear_box"])
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)

	postJSON(router, map[string]interface{}{})

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "claim_predictions_total")
}

func TestAPIPreflight(t *testing.T) {
	router := newTestRouter(t, demoArtifacts(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://client.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
