package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cerebro/internal/bootstrap"
	"cerebro/internal/transport/http/handler"
	"cerebro/internal/transport/http/middleware"
	"cerebro/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	if app.Config.App.GinMode != "" {
		gin.SetMode(app.Config.App.GinMode)
	}
	log := app.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.Session(app.Config.App.Env == "prod"),
		middleware.AccessLog(log.Named("http")),
		gin.Recovery(),
	)
	router.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "method "+c.Request.Method+" not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "route not found")
	})

	healthHandler := handler.NewHealthHandler(app)
	diagnosticHandler := handler.NewDiagnosticHandler(app.Materials)
	materialHandler := handler.NewMaterialHandler(app.Ingest, app.Materials, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(app.Agent)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/test-ai", diagnosticHandler.TestAI)

	router.POST("/process-file", materialHandler.ProcessFile)
	router.GET("/search", materialHandler.Search)
	router.GET("/synthesize", materialHandler.Synthesize)

	materials := router.Group("/materials")
	materials.GET("", materialHandler.List)
	materials.GET("/:id", materialHandler.Get)
	materials.POST("/:id/analyze", materialHandler.Reanalyze)

	router.GET("/chat", chatHandler.Chat)
	router.GET("/chat/exchanges", chatHandler.Exchanges)
	router.GET("/export", chatHandler.Export)

	return router
}
