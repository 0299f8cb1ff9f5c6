package server

import (
	"net/http"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/auth"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/chat"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/config"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/metrics"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/mw"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/store"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, db *gorm.DB, d *chat.Dispatcher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewHandler(cfg, db, store.NewAccountStore(db), store.NewMessageLog(db), d)

	api := r.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.RefreshToken)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.AuthMiddleware(cfg, db))
	authed.GET("/users", h.ListUsers)
	authed.GET("/rooms", h.ListRooms)
	authed.GET("/rooms/:room/messages", h.ListRoomMessages)
	authed.GET("/pm/:user/messages", h.ListPrivateMessages)

	r.GET("/ws", ws.Serve(d, db, cfg))

	return r
}
