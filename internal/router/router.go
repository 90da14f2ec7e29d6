package router

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/m1moraru/Taskify/internal/config"
	"github.com/m1moraru/Taskify/internal/handlers"
	"github.com/m1moraru/Taskify/internal/middleware"
	"github.com/m1moraru/Taskify/internal/monitoring"
	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/internal/sessions"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New assembles the API router: recovery, request logging, metrics, CORS,
// rate limiting, and the route table. The allowed origin and optional static
// frontend serving both come from configuration, so there is exactly one
// entrypoint regardless of deployment shape.
func New(cfg *config.Config, db *gorm.DB, store sessions.Store) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORS.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	userService := services.NewUserService()
	taskService := services.NewTaskService()

	registerHandler := handlers.NewRegisterHandler(db, userService)
	authHandler := handlers.NewAuthHandler(db, userService, store, cfg.Session)
	userHandler := handlers.NewUserHandler(db, userService, store)
	taskHandler := handlers.NewTaskHandler(db, taskService)

	authRequired := middleware.SessionAuth(store, cfg.Session.CookieName)

	if cfg.CORS.StaticDir != "" {
		r.Static("/static", filepath.Join(cfg.CORS.StaticDir, "static"))
		r.StaticFile("/", filepath.Join(cfg.CORS.StaticDir, "index.html"))
	} else {
		r.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, "Welcome to the Taskify API! Available routes: /api/users, /api/tasks")
		})
	}

	r.GET("/healthz", monitoring.HealthHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", registerHandler.Register)
			users.POST("/login", authHandler.Login)

			users.POST("/logout", authRequired, authHandler.Logout)
			users.GET("/me", authRequired, userHandler.GetMe)
			users.GET("/:id", authRequired, userHandler.GetUser)
			users.PUT("/:id", authRequired, userHandler.UpdateUser)
			users.DELETE("/:id", authRequired, userHandler.DeleteUser)
		}

		tasks := api.Group("/tasks", authRequired)
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "API route not found")
	})

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Get().Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
