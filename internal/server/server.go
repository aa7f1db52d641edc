package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/chat"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/config"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/diet"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/handlers"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/notifications"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/repository"
)

const methodNotAllowedMessage = "Method not allowed"

// Dependencies собирает внешние ресурсы, созданные в main.
type Dependencies struct {
	DB *pgxpool.Pool
	AI ai.Client
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = httpErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userRepo := repository.NewUserRepository(deps.DB)
	tokenRepo := repository.NewRefreshTokenRepository(deps.DB)
	todoRepo := repository.NewTodoRepository(deps.DB)
	adminRepo := repository.NewAdminRepository(deps.DB)
	notificationHub := notifications.NewHub()

	auditor := ai.NopAuditor()
	readiness := handlers.Ready(nil)
	if deps.DB != nil {
		auditor = repository.NewAIRepository(deps.DB)
		readiness = handlers.Ready(deps.DB)
	}

	dietService := diet.NewService(deps.AI, diet.WithAuditor(auditor), diet.WithLogger(logger))
	chatRelay := chat.NewRelay(deps.AI, auditor)

	registerRoutes(
		e,
		readiness,
		handlers.NewAuthHandler(userRepo, tokenRepo, tokenManager),
		handlers.NewDietHandler(dietService, notificationHub),
		handlers.NewChatHandler(chatRelay, logger),
		handlers.NewTodoHandler(todoRepo, notificationHub, logger),
		handlers.NewNotificationHandler(notificationHub),
		handlers.NewAdminHandler(adminRepo),
		auth.JWTMiddleware(tokenManager),
		auth.OptionalJWTMiddleware(tokenManager),
		handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
		rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
		rateLimiter(cfg.AI.RateLimitPerMinute, cfg.AI.RateLimitBurst),
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами и CORS для браузерного клиента.
func NewHTTPServer(cfg config.ServerConfig, corsCfg config.CORSConfig, handler http.Handler) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		MaxAge:         600,
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      c.Handler(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// httpErrorHandler отдает ошибки роутера и middleware в виде {error}.
func httpErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal server error"

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
			switch {
			case code == http.StatusMethodNotAllowed:
				message = methodNotAllowedMessage
			case code >= http.StatusInternalServerError:
			default:
				if text, ok := httpErr.Message.(string); ok && text != "" {
					message = text
				} else {
					message = http.StatusText(code)
				}
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("uri", c.Request().RequestURI),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, handlers.ErrorResponse{Error: message})
		}
		if err != nil {
			logger.Error("failed to write error response", slog.String("error", err.Error()))
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

// rateLimiter ограничивает частоту запросов с одного IP.
func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	limit := rate.Limit(float64(perMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
