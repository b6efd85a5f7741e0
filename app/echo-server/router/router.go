package router

import (
	"github.com/labstack/echo/v4"

	"marketRepricer/internal/rest"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.AuthHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	operators := api.Group("/operators")

	operators.POST("/login", handler.Login)

	operators.POST("/register", handler.Register, authRequired, adminOnly)
	operators.GET("/:id", handler.GetOperatorByID, authRequired)
}

func SetupRepriceRoutes(api *echo.Group, handler *rest.RepriceHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	reprice := api.Group("/reprice", authRequired)

	reprice.POST("/run", handler.RunBatch, adminOnly)
	reprice.GET("/products/:id", handler.DecideProduct)
	reprice.GET("/jobs", handler.GetRecentJobs)
	reprice.GET("/jobs/:id", handler.GetJob)
}

func SetupSettingsRoutes(api *echo.Group, handler *rest.SettingsHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	settings := api.Group("/settings", authRequired)

	settings.GET("/products/:id", handler.GetSettings)
	settings.PUT("", handler.UpsertSettings, adminOnly)
}

func SetupOfferRoutes(api *echo.Group, handler *rest.OfferHandler, authRequired echo.MiddlewareFunc) {
	offers := api.Group("/offers", authRequired)

	offers.POST("", handler.Ingest)
	offers.GET("/products/:id", handler.GetByProduct)
}

func SetupFlagRoutes(api *echo.Group, handler *rest.FlagHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	flags := api.Group("/flags", authRequired)

	flags.GET("/express", handler.GetExpressMode)
	flags.PUT("/express", handler.SetExpressMode, adminOnly)
}
