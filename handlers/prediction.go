package handlers

import (
	"net/http"

	"claim-prediction-api/models"
	"claim-prediction-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	PageTitle         = "Car Insurance Claim Prediction"
	PageSubtitle      = "Predict the probability that a customer will file an insurance claim."
	ModelCaption      = "Model: Tuned XGBoost | Threshold Optimized | SHAP Explained"
	PredictionFailure = "Prediction failed due to preprocessing mismatch."
)

type PredictionHandler struct {
	scorer *services.Scorer
	logger *zap.Logger
}

func NewPredictionHandler(scorer *services.Scorer, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{scorer: scorer, logger: logger}
}

type pageData struct {
	Title    string
	Subtitle string
	Caption  string
	Sections []models.Section
	Values   map[string]string
	Errors   map[string]string
	Result   *models.Prediction
	Failure  string
	Detail   string
}

func newPage(form models.ClaimForm) pageData {
	return pageData{
		Title:    PageTitle,
		Subtitle: PageSubtitle,
		Caption:  ModelCaption,
		Sections: models.Sections(),
		Values:   form.Values(),
		Errors:   map[string]string{},
	}
}

// ShowForm renders the form with default values and no result.
func (h *PredictionHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPage(models.DefaultForm()))
}

// SubmitForm is the "Predict Claim Probability" trigger.
func (h *PredictionHandler) SubmitForm(c *gin.Context) {
	form := models.DefaultForm()
	bindErr := c.ShouldBind(&form)
	errs := blankNumbers(c.Request.PostForm)
	if bindErr != nil {
		blank := len(errs) > 0
		for name, msg := range fieldErrors(bindErr) {
			if _, ok := errs[name]; ok || (blank && name == "_") {
				continue
			}
			errs[name] = msg
		}
	}
	if len(errs) > 0 {
		services.RecordRejection()
		h.logger.Debug("form rejected", zap.Any("fields", errs))
		page := newPage(form)
		page.Errors = errs
		c.HTML(http.StatusUnprocessableEntity, "index.html", page)
		return
	}

	page := newPage(form)
	p, err := h.scorer.Score(c.Request.Context(), models.Assemble(form))
	if err != nil {
		page.Failure = PredictionFailure
		page.Detail = err.Error()
		c.HTML(http.StatusUnprocessableEntity, "index.html", page)
		return
	}

	page.Result = &p
	c.HTML(http.StatusOK, "index.html", page)
}

// PredictJSON accepts the same fields as the form; omitted fields keep
// their defaults.
func (h *PredictionHandler) PredictJSON(c *gin.Context) {
	form := models.DefaultForm()
	if err := c.ShouldBindJSON(&form); err != nil {
		services.RecordRejection()
		h.logger.Debug("api request rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": fieldErrors(err)})
		return
	}

	p, err := h.scorer.Score(c.Request.Context(), models.Assemble(form))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": PredictionFailure, "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p.Response())
}

// Schema exposes the control catalogue and the record column order.
func (h *PredictionHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields":  models.Fields,
		"columns": models.Schema,
		"constants": gin.H{
			"cylinder": models.CylinderDefault,
			"gear_box": models.GearBoxDefault,
		},
	})
}
