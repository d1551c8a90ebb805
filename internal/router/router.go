package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nightreel/cineclub-api/internal/handler"
	"github.com/nightreel/cineclub-api/internal/middleware"
	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/service"
	"github.com/nightreel/cineclub-api/pkg/config"
	"github.com/nightreel/cineclub-api/pkg/logger"
	corsmiddleware "github.com/nightreel/cineclub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nightreel/cineclub-api/pkg/middleware/requestid"
	"go.uber.org/zap"
)

// Deps carries everything route registration needs.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	Auth         *handler.AuthHandler
	Films        *handler.FilmHandler
	Suggestions  *handler.SuggestionHandler
	Interactions *handler.InteractionHandler
	Discussions  *handler.DiscussionHandler
	Invites      *handler.InviteHandler
	Realtime     *handler.RealtimeHandler
	MetricsH     *handler.MetricsHandler
	AuthService  *service.AuthService
}

// New builds the gin engine with the full middleware stack and routes.
func New(d Deps) *gin.Engine {
	if d.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(d.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/health", d.MetricsH.Health)
	r.GET("/ready", d.MetricsH.Health)
	r.GET("/metrics", d.MetricsH.Prometheus)

	if d.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/v1")

	// Unauthenticated surface: login, invite redemption, and signed
	// recap downloads.
	v1.POST("/auth/login", d.Auth.Login)
	v1.POST("/invites/redeem", d.Invites.Redeem)
	v1.GET("/recaps/download", d.Films.DownloadRecap)

	authed := v1.Group("")
	authed.Use(middleware.JWT(d.AuthService))
	{
		authed.GET("/auth/me", d.Auth.Me)

		authed.GET("/films", d.Films.List)
		authed.GET("/films/current", d.Films.Current)
		authed.GET("/films/:id", d.Films.Get)
		authed.GET("/films/:id/recap", d.Films.Recap)
		authed.POST("/films/:id/recap/link", d.Films.ShareRecap)

		authed.GET("/films/:id/watch-status", d.Interactions.WatchStatus)
		authed.PUT("/films/:id/watch-status", d.Interactions.SetWatchStatus)
		authed.PUT("/films/:id/rating", d.Interactions.Rate)
		authed.GET("/films/:id/ratings", d.Interactions.Ratings)

		authed.GET("/films/:id/discussion", d.Discussions.Thread)
		authed.POST("/films/:id/discussion", d.Discussions.Post)
		authed.DELETE("/discussion/:id", d.Discussions.Delete)

		authed.GET("/films/:id/channel", d.Realtime.Subscribe)
		authed.GET("/films/:id/presence", d.Realtime.Presence)

		authed.POST("/suggestions", d.Suggestions.Submit)
		authed.GET("/suggestions", d.Suggestions.List)
	}

	admin := v1.Group("")
	admin.Use(middleware.JWT(d.AuthService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/films", d.Films.Schedule)
		admin.POST("/films/close-week", d.Films.CloseWeek)

		admin.POST("/suggestions/:id/accept", d.Suggestions.Accept)
		admin.POST("/suggestions/:id/reject", d.Suggestions.Reject)

		admin.PUT("/discussion/:id/highlight", d.Discussions.SetHighlight)

		admin.POST("/invites", d.Invites.Create)
		admin.GET("/invites", d.Invites.List)
	}

	return r
}
