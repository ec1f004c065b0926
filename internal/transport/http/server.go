package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/robertorios/pangeaConversations/internal/config"
	"github.com/robertorios/pangeaConversations/internal/core"
	"github.com/robertorios/pangeaConversations/internal/store"
)

// NewServer builds the HTTP server with websocket, REST and monitoring
// routes. The websocket endpoint is served on a plain mux in front of
// the gin router: the hijacked connection must not pass through
// framework response writers.
func NewServer(service *core.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(service, st, cfg.HistoryLimit, logger)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/conversations/history", api.History)
		v1.GET("/conversations/user/:user_id", api.UserConversations)
		v1.POST("/push_tokens", api.RegisterPushToken)
	}

	monitor := NewMonitorHandlers(service.Hub(), logger)
	ws := router.Group("/websocket")
	{
		ws.GET("/status", monitor.Status)
		ws.GET("/stats", monitor.Stats)
		ws.POST("/stop_all", monitor.StopAll)
		ws.POST("/stop_user/:user_id", monitor.StopUser)
		ws.POST("/pause", monitor.Pause)
		ws.POST("/resume", monitor.Resume)
	}

	channels := NewChannelHandlers(service.Topics(), logger)
	ch := router.Group("/channels")
	{
		ch.POST("/register", channels.Register)
		ch.GET("/list", channels.List)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(service, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
