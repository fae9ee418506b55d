package internal

import (
	"github.com/gin-gonic/gin"
)

func BuildRouter(app *App) *gin.Engine {
	router := gin.New()

	router.Use(RequestLogger(app.Log))
	router.Use(gin.CustomRecovery(app.Recover))

	router.GET("/ping", app.Ping)
	router.GET("/shutdown", app.Shutdown)
	router.GET("/health", app.Health)

	captionRouter := router.Group("/caption")
	captionRouter.GET("", app.Caption)
	captionRouter.GET("/stream", app.CaptionStream)

	return router
}
