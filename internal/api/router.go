package api

import (
	"goanova/app"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine serving /api and /metrics
func NewRouter(service *app.AnalysisService, maxUploadBytes int64, ginMode string) *gin.Engine {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = maxUploadBytes

	h := NewAnalysisHandler(service, maxUploadBytes)
	api := router.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/dataset", h.UploadDataset)
		api.GET("/sessions/:id/columns", h.Columns)
		api.GET("/sessions/:id/preview", h.Preview)
		api.POST("/sessions/:id/describe", h.Describe)
		api.POST("/sessions/:id/normality", h.Normality)
		api.POST("/sessions/:id/homogeneity", h.Homogeneity)
		api.POST("/sessions/:id/assumptions", h.Assumptions)
		api.POST("/sessions/:id/residuals", h.ResidualNormality)
		api.POST("/sessions/:id/anova", h.RunANOVA)
		api.GET("/sessions/:id/anova", h.LastANOVA)
		api.POST("/formula", h.BuildFormula)
		api.GET("/classify", h.Classify)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
