package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/ticket-compare/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/ticket-compare/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: health check, welcome and, when metrics is not
// nil, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, metrics http.Handler) {
	// Load balancers and monitoring systems poll /healthz.
	e.GET("/healthz", handler.Health)
	e.GET("/welcome", handler.Welcome)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers all authentication‑related routes.  None of them
// require an existing session; logout accepts either a bearer token or a
// refresh_token body.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterProfile registers the signed-in user's account endpoints.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/v1/profile", middleware.JWTAuth(jwtSecret))
	g.GET("", p.Get)
	g.PUT("/name", p.UpdateName)
	g.POST("/password", p.ChangePassword)
}

// RegisterEvents registers search, discover and comparison endpoints.  JWT
// runs first so the rate limiter can key on the user; the response cache
// sits innermost and only ever sees successful upstream results.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, rateLimit, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}
	if rateLimit != nil {
		mws = append(mws, rateLimit)
	}
	if cache != nil {
		mws = append(mws, cache)
	}
	g := e.Group("/v1", mws...)
	g.GET("/search", h.Search)
	g.GET("/discover", h.Discover)
	g.GET("/comparisons", h.Comparisons)
}
