package server

import (
	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	readiness echo.HandlerFunc,
	authHandler *handlers.AuthHandler,
	dietHandler *handlers.DietHandler,
	chatHandler *handlers.ChatHandler,
	todoHandler *handlers.TodoHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware echo.MiddlewareFunc,
	optionalAuthMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
	aiRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)
	e.GET("/ready", readiness)

	// Middleware только на маршрутах: групповой добавляет catch-all, и вместо 405 был бы 404.
	api := e.Group("/api")

	// Модель доступна и анонимно; токен, если передан, привязывает запрос к пользователю в журнале.
	api.POST("/diet", dietHandler.Recommend, optionalAuthMiddleware, aiRateLimiter)
	api.POST("/chat", chatHandler.Stream, optionalAuthMiddleware, aiRateLimiter)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register, authRateLimiter)
	authGroup.POST("/login", authHandler.Login, authRateLimiter)
	authGroup.POST("/refresh", authHandler.Refresh, authRateLimiter)
	authGroup.POST("/logout", authHandler.Logout, authRateLimiter)
	authGroup.GET("/me", authHandler.Me, authRateLimiter, authMiddleware)

	todos := api.Group("/todos")
	todos.GET("", todoHandler.List, authMiddleware)
	todos.POST("", todoHandler.Create, authMiddleware)
	todos.PUT("", todoHandler.Replace, authMiddleware)
	todos.PATCH("/:index/toggle", todoHandler.Toggle, authMiddleware)
	todos.DELETE("/:index", todoHandler.Delete, authMiddleware)

	api.GET("/notifications/stream", notificationHandler.Stream, authMiddleware)

	admin := api.Group("/admin")
	admin.GET("/users", adminHandler.ListUsers, authMiddleware, adminMiddleware)
	admin.GET("/ai-requests", adminHandler.ListAIRequests, authMiddleware, adminMiddleware)
	admin.GET("/usage", adminHandler.Usage, authMiddleware, adminMiddleware)
}
