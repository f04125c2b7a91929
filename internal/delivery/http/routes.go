package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealsignal/backend/config"
)

// maxBodyBytes fits two base64 photos
const maxBodyBytes = 12 << 20

// RouterDeps are the cross-cutting pieces the router wires in; nil entries are skipped
type RouterDeps struct {
	Logger         *zap.Logger
	Metrics        RequestObserver
	MetricsHandler http.Handler
	RateLimiter    *IPRateLimiter
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, deps RouterDeps) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	v1 := router.Group("/api/v1")
	v1.Use(BodyLimitMiddleware(maxBodyBytes))
	if deps.RateLimiter != nil {
		v1.Use(RateLimitMiddleware(deps.RateLimiter))
	}

	// Feedback may be sent anonymously
	v1.POST("/feedback", handler.SubmitFeedback)

	user := v1.Group("")
	user.Use(RequireUser())
	{
		meals := user.Group("/meals")
		{
			meals.POST("/analyze", handler.AnalyzeMeal)
			meals.POST("/:id/refine", handler.RefineMeal)
			meals.GET("", handler.ListMeals)
			meals.DELETE("/:id", handler.DeleteMeal)
		}

		workouts := user.Group("/workouts")
		{
			workouts.POST("/start", handler.StartWorkout)
			workouts.POST("/end", handler.EndWorkout)
			workouts.GET("", handler.ListWorkouts)
			workouts.GET("/active", handler.ActiveWorkout)
			workouts.DELETE("/:id", handler.DeleteWorkout)
		}

		user.GET("/profile", handler.GetProfile)
		user.PUT("/profile", handler.UpdateProfile)

		digest := user.Group("/digest")
		{
			digest.GET("/home", handler.HomeDigest)
			digest.GET("/summary", handler.SummaryDigest)
			digest.GET("/insights", handler.InsightsDigest)
		}

		nudges := user.Group("/nudges")
		{
			nudges.GET("", handler.Nudges)
			nudges.GET("/history", handler.NudgeHistory)
			nudges.POST("/refresh", handler.RefreshNudges)
		}

		user.GET("/export", handler.ExportData)
		user.DELETE("/data", handler.DeleteData)
	}

	return router
}
