package app

import (
	"net/http"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/middleware"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/category"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/moderation"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/preset"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/discord"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/filter"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/perspective"
	pkgredis "github.com/FlashGalatine/xivdyetools-api/internal/pkg/redis"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/screening"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	log := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "")
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "xivdyetools-api",
		"version":  "1.0.0",
		"homepage": "https://github.com/FlashGalatine/xivdyetools-api",
	}

	// Moderation pipeline. The word filter compiles once at startup; a bad
	// phrase list is a deployment error worth failing loudly on.
	wordFilter, err := filter.Compile(a.cfg.Profanity)
	if err != nil {
		log.Fatal("profanity filter compile failed", zap.Error(err))
	}
	var classifier *perspective.Client
	if a.cfg.PerspectiveAPIKey != "" {
		classifier = perspective.New(a.cfg.PerspectiveAPIKey, "")
	}
	screen := screening.New(wordFilter, classifier, log.Named("screening"))

	notifier := discord.New(a.cfg.DiscordWebhookURL, log.Named("discord"))

	resolver := middleware.NewResolver(a.cfg)
	limiter := middleware.NewRateLimiter(middleware.RateLimitMax, middleware.RateLimitWindow)
	banGate := middleware.BanGate(db, log.Named("bangate"))
	cache := middleware.HTTPCache(rc.Raw(), 15*time.Second)

	api := r.Group(apiPrefix)
	api.Use(limiter.Middleware())
	api.Use(resolver.Middleware())

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	categorySvc := category.NewService(db)
	category.NewHandler(categorySvc).RegisterRoutes(api, cache)

	presetSvc := preset.NewService(db, screen, categorySvc, notifier, log.Named("preset"))
	preset.NewHandler(presetSvc, log.Named("preset")).RegisterRoutes(api, banGate, cache)

	moderationSvc := moderation.NewService(db, notifier, log.Named("moderation"))
	moderation.NewHandler(moderationSvc, log.Named("moderation")).RegisterRoutes(api)

	// Background job visibility for moderators.
	jobs := api.Group("/jobs", middleware.RequireModerator())
	jobs.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	jobs.POST("/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFound(c, err.Error())
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
	})
	jobs.GET("/:name", func(c *gin.Context) {
		task, err := a.sched.GetTask(c.Param("name"))
		if err != nil {
			response.NotFound(c, err.Error())
			return
		}
		response.OK(c, task)
	})
}
