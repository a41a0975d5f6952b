package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"practice-scheduler/internal/handler"
	"practice-scheduler/internal/middleware"
)

type Options struct {
	JWTSecret string
	// TriggerKey guards POST /api/reminders/run; the route is absent when empty.
	TriggerKey string
	Limiter    *middleware.RateLimiter
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger(), middleware.Metrics())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route " + c.Request.URL.Path + " not found"})
	})

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := opts.Limiter.Handler()

	pub := r.Group("/api/public", middleware.CORS(http.MethodPost, http.MethodOptions))
	pub.OPTIONS("/appointment-actions", func(c *gin.Context) {})
	pub.POST("/appointment-actions", limit, h.PublicAction)

	// called by the practice UI, so it sits behind the practitioner JWT
	mail := r.Group("/api/notifications", middleware.CORS(http.MethodPost, http.MethodOptions), middleware.Auth(opts.JWTSecret))
	mail.OPTIONS("/appointment-mail", func(c *gin.Context) {})
	mail.POST("/appointment-mail", limit, h.SendMail)

	if opts.TriggerKey != "" {
		r.POST("/api/reminders/run", middleware.StaticKey(opts.TriggerKey), h.RunReminders)
	}

	authG := r.Group("/api/auth", limit)
	authG.POST("/register", h.Register)
	authG.POST("/login", h.Login)

	priv := r.Group("/api", middleware.Auth(opts.JWTSecret))
	priv.POST("/clients", h.CreateClient)
	priv.GET("/clients", h.ListClients)
	priv.GET("/clients/:id", h.GetClient)
	priv.PUT("/clients/:id", h.UpdateClient)
	priv.DELETE("/clients/:id", h.DeleteClient)
	priv.POST("/clients/:id/appointments", h.CreateAppointment)
	priv.GET("/clients/:id/appointments/next", h.NextAppointment)
	priv.DELETE("/appointments/:id", h.DeleteAppointment)
	priv.GET("/clients/:id/sessions", h.ListSessions)
	priv.POST("/clients/:id/sessions", h.CreateSession)
	priv.PUT("/sessions/:id", h.UpdateSession)
	priv.DELETE("/sessions/:id", h.DeleteSession)
	priv.POST("/sessions/:id/paid", h.MarkSessionPaid)

	return r
}
