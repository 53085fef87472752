package server

import (
	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Translation routes
	apiRoutes.POST("/translate", routes.TranslateHandler, middleware.RequirePermission(middleware.PermissionTranslate))
	apiRoutes.POST("/questions", routes.EnqueueQuestionsHandler, middleware.RequirePermission(middleware.PermissionEnqueue))
	apiRoutes.GET("/translations/:id", routes.GetTranslationHandler, middleware.RequirePermission(middleware.PermissionView))
	apiRoutes.DELETE("/translations/:id", routes.DeleteTranslationHandler, middleware.RequirePermission(middleware.PermissionTranslate))

	// Statistics routes
	apiRoutes.GET("/shapes", routes.GetShapesHandler, middleware.RequirePermission(middleware.PermissionView))
}
