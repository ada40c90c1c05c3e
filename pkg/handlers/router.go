package handlers

import (
	"net/http"
	"slices"
	"time"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/middleware"
	"github.com/sunbeam-portal/course-portal-api/pkg/utils"
)

// NewRouter builds the HTTP route table. Admin routes carry their own gate;
// every other route is public.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.Errorf("Recovered from panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
			utils.ResponseWithError(c, http.StatusInternalServerError, "Internal server error", nil)
			c.Abort()
		}),
		middleware.RequestID(),
		middleware.RequestLog(),
		cors.New(corsConfig(h.Config.CORSAllowOrigins)),
	)
	router.NoRoute(func(c *gin.Context) {
		utils.ResponseWithError(c, http.StatusNotFound, "Not found", nil)
	})
	router.NoMethod(func(c *gin.Context) {
		utils.ResponseWithError(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	admin := middleware.RequireAdmin(h.Accounts.Tokens)

	router.GET("/health", HealthCheck)
	router.GET("/health/db", DatabaseHealthCheck)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	courseRoutes := router.Group("/courses")
	{
		courseRoutes.GET("/all-active-courses", h.ListActiveCourses)
		courseRoutes.GET("/all-courses", admin, h.ListCourses)
		courseRoutes.POST("/add", admin, h.CreateCourse)
		courseRoutes.PUT("/update/:id", admin, h.UpdateCourse)
		courseRoutes.DELETE("/delete/:id", admin, h.DeleteCourse)
	}

	studentRoutes := router.Group("/students")
	{
		studentRoutes.POST("/register-to-course", h.RegisterToCourse)
		studentRoutes.PUT("/change-password/:email", h.ChangePassword)
	}

	videoRoutes := router.Group("/videos")
	{
		videoRoutes.GET("/all/:email/:course_id", h.ListStudentVideos)
		videoRoutes.GET("/all-videos", admin, h.ListVideos)
		videoRoutes.POST("/add", admin, h.CreateVideo)
		videoRoutes.PUT("/update/:id", admin, h.UpdateVideo)
		videoRoutes.DELETE("/delete/:id", admin, h.DeleteVideo)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	// Credentials are only sent for an explicit origin list.
	cfg.AllowCredentials = true
	return cfg
}
