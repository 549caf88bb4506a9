package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/adapters/ws"
	"github.com/avorin/huddle/internal/app"
	"github.com/avorin/huddle/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable opaque token.
// The coordinator does not authenticate it; it only keys the session
// cookie jar.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Rooms.List())
	})

	ctrl := ws.NewController(coord, cfg)
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleWS(ctx, c)
	})

	return r
}
