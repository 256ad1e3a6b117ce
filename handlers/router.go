package handlers

import (
	"embed"
	"html/template"
	"strconv"

	"claim-prediction-api/config"
	"claim-prediction-api/middleware"
	"claim-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
}

func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

func SetupRouter(cors config.CORSConfig, scorer *services.Scorer, logger *zap.Logger) *gin.Engine {
	registerFieldNames()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))
	router.SetHTMLTemplate(loadTemplates())

	h := NewPredictionHandler(scorer, logger)

	router.GET("/", h.ShowForm)
	router.POST("/predict", h.SubmitForm)

	api := router.Group("/api/v1", middleware.SetupCORS(cors))
	api.POST("/predict", h.PredictJSON)
	api.GET("/schema", h.Schema)
	api.OPTIONS("/*path", func(c *gin.Context) {})

	router.GET("/health", Health(scorer))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
