package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	"github.com/puls-academy/backend/internal/modules/admin"
	"github.com/puls-academy/backend/internal/modules/auth"
	"github.com/puls-academy/backend/internal/modules/course"
	"github.com/puls-academy/backend/internal/modules/health"
	"github.com/puls-academy/backend/internal/modules/message"
	"github.com/puls-academy/backend/internal/modules/notification"
	"github.com/puls-academy/backend/internal/modules/payment"
	"github.com/puls-academy/backend/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)
	adminMW := middleware.AdminOnly()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "puls-academy-backend",
		"version": "1.0.0",
	}

	apiPrefix := "/api/v1"

	// Rate limiting and idempotence run on every route (requires Redis).
	if a.rc != nil {
		r.Use(middleware.RateLimit(a.rc.Raw()))
		r.Use(middleware.Idempotence(a.rc.Raw()))
	}

	api := r.Group(apiPrefix)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(a.startTime()).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	health.RegisterRoutes(api, db, a.rc, a.sched, authMW, adminMW)

	// Auth & account
	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)

	// Catalog & enrollment
	course.NewHandler(course.NewService(db)).RegisterRoutes(api, authMW, adminMW)

	notifySvc := notification.NewService(db)
	payment.NewHandler(payment.NewService(db, notifySvc)).RegisterRoutes(api, authMW, adminMW)
	notification.NewHandler(notifySvc).RegisterRoutes(api, authMW)
	message.NewHandler(message.NewService(db)).RegisterRoutes(api, authMW)

	// Admin surface
	admin.NewHandler(admin.NewService(db, a.rc)).RegisterRoutes(api, authMW, adminMW)
}
