package router

import (
	"time"

	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/handlers"
	"github.com/admissions-dev/admissions/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Dependencies struct {
	Handler        *handlers.Handler
	Tokens         *auth.TokenIssuer
	Users          middleware.UserFinder
	Limiter        middleware.Limiter
	LoginRule      middleware.RateLimitRule
	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := deps.Handler
	requireAuth := middleware.AuthMiddleware(deps.Tokens, deps.Users, deps.Logger)

	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/signup", h.CreateUser)
	r.POST("/token", middleware.RateLimit(deps.Limiter, deps.LoginRule), h.Login)

	users := r.Group("/users", requireAuth)
	{
		users.GET("/me", h.Me)
	}

	application := r.Group("/application", requireAuth)
	{
		application.POST("/upload", h.UploadApplication)
		application.GET("/:uuid", h.GetApplication)
	}

	return r
}
