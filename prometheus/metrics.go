package prometheus

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_total",
			Help:      "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_errors_total",
			Help:      "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "revoked", "device_mismatch", "forbidden"
	)

	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_resolutions_total",
			Help:      "Total number of tenant resolutions by outcome",
		},
		[]string{"outcome"}, // "ok", "missing", "invalid", "mismatch", "error"
	)

	PaymentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Total number of recorded payments",
		},
		[]string{"resource", "kind"}, // kind: "single", "settle"
	)

	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of outbound notifications by result",
		},
		[]string{"result"},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Duration of database operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "Information about the service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantResolutionCounter)
	prometheus.MustRegister(PaymentCounter)
	prometheus.MustRegister(NotificationCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

var handleGaugeOnce sync.Once

// RegisterHandleGauge exposes the number of bound tenant model handles.
// Only the first call registers the gauge.
func RegisterHandleGauge(size func() int) {
	handleGaugeOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tenant_model_handles",
				Help:      "Number of tenant model handles bound by the schema registry",
			},
			func() float64 { return float64(size()) },
		))
	})
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures a database operation. Call the returned func when it finishes.
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware captures request count and duration for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLogin records a login attempt
func RecordLogin(result string) {
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordTenantResolution records the outcome of resolving a request's tenant
func RecordTenantResolution(outcome string) {
	TenantResolutionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordPayment records a payment against resource
func RecordPayment(resource, kind string) {
	PaymentCounter.With(prometheus.Labels{"resource": resource, "kind": kind}).Inc()
}

// RecordNotification records the result of an outbound notification
func RecordNotification(result string) {
	NotificationCounter.With(prometheus.Labels{"result": result}).Inc()
}
