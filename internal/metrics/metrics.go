// Package metrics exposes Prometheus counters for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so tests can build routers repeatedly.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Logins              *prometheus.CounterVec
	LoginLockouts       prometheus.Counter
	UsersRegistered     prometheus.Counter
	SaintWrites         *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "santos_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "santos_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "santos_auth_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		LoginLockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "santos_auth_lockouts_total",
			Help: "Total number of login lockouts triggered by the rate limiter",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "santos_auth_users_registered_total",
			Help: "Total number of users registered",
		}),
		SaintWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "santos_saint_writes_total",
			Help: "Saints written by operation",
		}, []string{"operation"}),
	}
}

// IncrementLogin counts a login attempt.
func (m *Metrics) IncrementLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.LoginLockouts.Inc()
}

func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

// AddSaintWrites counts n saints affected by operation (create, batch, update, delete).
func (m *Metrics) AddSaintWrites(operation string, n int) {
	m.SaintWrites.WithLabelValues(operation).Add(float64(n))
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
