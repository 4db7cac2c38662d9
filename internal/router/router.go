package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/handler"
	"github.com/noah-isme/taskhive-api/internal/middleware"
	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/internal/service"
	"github.com/noah-isme/taskhive-api/pkg/config"
	"github.com/noah-isme/taskhive-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/taskhive-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/taskhive-api/pkg/middleware/requestid"
)

type userFinder interface {
	FindUserBy(ctx context.Context, query models.UserQuery) (*models.User, error)
}

// Dependencies collects everything the route table needs.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Auth     *handler.AuthHandler
	Password *handler.PasswordHandler
	Folders  *handler.FolderHandler
	Tasks    *handler.TaskHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler

	Tokens  *service.TokenService
	Users   userFinder
	Metrics *service.MetricsService

	FolderOwners middleware.OwnerLookup
	TaskOwners   middleware.OwnerLookup
}

// New builds the gin engine with the full route table.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	authRequired := middleware.JWT(deps.Tokens, deps.Users)
	folderOwner := middleware.Owner("folder", middleware.FromParam("id"), deps.FolderOwners)
	taskOwner := middleware.Owner("task", middleware.FromParam("id"), deps.TaskOwners)

	api := r.Group(deps.Config.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", deps.Auth.Signup)
			auth.POST("/login", deps.Auth.Login)
			auth.GET("/tokens/refresh-tokens", deps.Auth.RefreshTokens)
			auth.GET("/verify-email", deps.Auth.VerifyEmail)
			auth.POST("/resend-verification-email", deps.Auth.ResendVerificationEmail)
			auth.POST("/password/forgot-password", deps.Password.Forgot)
			auth.PATCH("/password/reset-password", deps.Password.Reset)

			auth.POST("/logout", authRequired, deps.Auth.Logout)
			auth.GET("/me", authRequired, deps.Auth.Me)
			auth.DELETE("/delete", authRequired, deps.Auth.Delete)
		}

		api.GET("/cookies/clear-auth-cookies", deps.Auth.ClearAuthCookies)

		folders := api.Group("/folder", authRequired)
		{
			folders.POST("", deps.Folders.Create)
			folders.GET("", deps.Folders.List)
			folders.PATCH("/:id", folderOwner, deps.Folders.Rename)
			folders.DELETE("/:id", folderOwner, deps.Folders.Delete)
		}

		tasks := api.Group("/tasks", authRequired)
		{
			tasks.POST("", deps.Tasks.Create)
			tasks.GET("", deps.Tasks.List)
			tasks.PATCH("/:id", taskOwner, deps.Tasks.Edit)
			tasks.PATCH("/:id/status", taskOwner, deps.Tasks.ToggleStatus)
			tasks.DELETE("/:id", taskOwner, deps.Tasks.Delete)
		}

		api.GET("/ws", authRequired, deps.WS.Connect)
	}

	return r
}
