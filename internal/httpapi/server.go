// Package httpapi exposes the rescue workflow over HTTP/JSON.
package httpapi

import (
	"net/http"
	"time"

	"guardianpaws/internal/core"
	"guardianpaws/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the router.
type Options struct {
	Tokens     *TokenIssuer
	AdminToken string
	Logger     core.Logger
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	PhotoURLExpiry time.Duration
	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64
}

// Server holds the handler dependencies.
type Server struct {
	svc            *core.Service
	tokens         *TokenIssuer
	adminToken     string
	logger         core.Logger
	photoURLExpiry time.Duration
	maxUploadBytes int64
}

// NewRouter builds the gin engine serving the API.
func NewRouter(svc *core.Service, opts Options) *gin.Engine {
	s := &Server{
		svc:            svc,
		tokens:         opts.Tokens,
		adminToken:     opts.AdminToken,
		logger:         opts.Logger,
		photoURLExpiry: opts.PhotoURLExpiry,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	if s.tokens == nil {
		s.tokens = NewTokenIssuer("", 0)
	}
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	if s.photoURLExpiry <= 0 {
		s.photoURLExpiry = 15 * time.Minute
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = core.DefaultMaxPhotoBytes + 1<<20
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.MaxMultipartMemory = s.maxUploadBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	auth := v1.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	authed := v1.Group("", s.authenticate())
	authed.GET("/me", s.me)
	authed.GET("/dashboard", s.dashboard)

	reports := authed.Group("/reports")
	reports.POST("", requireRole(domain.RoleReporter), s.submitReport)
	reports.GET("/pending", requireRole(domain.RoleNGO), s.pendingReports)
	reports.GET("/mine", s.myReports)
	reports.GET("/:id", s.getReport)
	reports.GET("/:id/photo", s.reportPhoto)
	reports.PATCH("/:id/status", requireRole(domain.RoleNGO), s.updateStatus)
	reports.GET("/:id/messages", s.listMessages)
	reports.POST("/:id/messages", s.appendMessage)

	admin := v1.Group("/admin", s.requireAdminToken())
	admin.POST("/reports/:id/close", s.closeReport)

	return r
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
