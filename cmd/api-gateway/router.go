package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Artify24/student-managment-system/internal/handler"
	"github.com/Artify24/student-managment-system/internal/middleware"
	"github.com/Artify24/student-managment-system/internal/service"
	"github.com/Artify24/student-managment-system/pkg/config"
	"github.com/Artify24/student-managment-system/pkg/logger"
	corsmiddleware "github.com/Artify24/student-managment-system/pkg/middleware/cors"
	reqidmiddleware "github.com/Artify24/student-managment-system/pkg/middleware/requestid"
)

type routerDeps struct {
	metrics    *service.MetricsService
	uploadsDir string
	attendance *handler.AttendanceHandler
	sessions   *handler.SessionHandler
	students   *handler.StudentHandler
	courses    *handler.CourseHandler
	reports    *handler.ReportHandler
	dashboard  *handler.DashboardHandler
	system     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	uploadsPrefix := "/" + strings.Trim(cfg.Uploads.URLPrefix, "/")
	r.Static(uploadsPrefix, deps.uploadsDir)

	api := r.Group(cfg.APIPrefix)

	api.PUT("/session/:id/attendance", deps.attendance.Reconcile)
	api.PUT("/sessions/:id/attendance", deps.attendance.Reconcile)

	for _, prefix := range []string{"/session", "/sessions"} {
		api.GET(prefix, deps.sessions.List)
		api.POST(prefix, deps.sessions.Create)
		api.GET(prefix+"/today", deps.sessions.Today)
	}

	sessions := api.Group("/sessions")
	sessions.GET("/:id", deps.sessions.Get)
	sessions.GET("/:id/qr", deps.sessions.QRCode)

	students := api.Group("/students")
	students.GET("", deps.students.List)
	students.POST("", deps.students.Create)
	students.GET("/:id", deps.students.Get)
	students.PUT("/:id", deps.students.Update)
	students.DELETE("/:id", deps.students.Delete)
	students.POST("/:id/image", deps.students.UploadImage)

	courses := api.Group("/courses")
	courses.GET("", deps.courses.List)
	courses.POST("", deps.courses.Create)
	courses.GET("/:name/roster", deps.courses.Roster)

	reports := api.Group("/reports")
	reports.GET("/attendance", deps.reports.Attendance)
	reports.POST("/attendance/export", deps.reports.Export)
	reports.GET("/status/:id", deps.reports.Status)
	api.GET("/export/:token", deps.reports.Download)

	api.GET("/dashboard", deps.dashboard.Admin)
	api.GET("/system/metrics", deps.system.Summary)

	return r
}
