package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/riskcast-api/internal/handler"
	"github.com/jwalitptl/riskcast-api/internal/handler/accident"
	"github.com/jwalitptl/riskcast-api/internal/handler/dashboard"
	"github.com/jwalitptl/riskcast-api/internal/handler/hospital"
	"github.com/jwalitptl/riskcast-api/internal/middleware"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	h          *handler.Handler
	hospitalH  *hospital.Handler
	dashboardH *dashboard.Handler
	accidentH  *accident.Handler
	metrics    *metrics.Metrics
	config     RouterConfig
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RateEnabled    bool
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func NewRouter(
	h *handler.Handler,
	hospitalH *hospital.Handler,
	dashboardH *dashboard.Handler,
	accidentH *accident.Handler,
	m *metrics.Metrics,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	middleware.RegisterValidators()

	engine := gin.New()

	r := &Router{
		engine:     engine,
		h:          h,
		hospitalH:  hospitalH,
		dashboardH: dashboardH,
		accidentH:  accidentH,
		metrics:    m,
		config:     config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	root := r.engine.Group("")
	r.h.RegisterRoutes(root)
	r.dashboardH.RegisterLiveRoutes(root)

	api := r.engine.Group("")
	api.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: r.config.RequestTimeout}),
		middleware.SizeLimit(r.config.MaxBodyBytes),
		middleware.NoStore(),
	)

	for _, h := range []Handler{r.hospitalH, r.dashboardH, r.accidentH} {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			errType := "http"
			if len(c.Errors) > 0 {
				errType = "app"
			}
			r.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, errType).Inc()
		}
	}
}
