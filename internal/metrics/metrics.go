// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jinsharnam",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of HTTP requests.",
		},
		[]string{"path", "method", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jinsharnam",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// OrdersCreated counts orders persisted by the order engine.
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jinsharnam",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created.",
	})

	// OrderTransitions counts status changes by edge.
	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jinsharnam",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions.",
		},
		[]string{"from", "to"},
	)

	// OTPRequests counts OTP issuance attempts by dispatch outcome.
	OTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jinsharnam",
			Subsystem: "otp",
			Name:      "requests_total",
			Help:      "OTP requests by dispatch result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpReqTotal, httpLatency, OrdersCreated, OrderTransitions, OTPRequests)
}

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpReqTotal.WithLabelValues(path, c.Method(), strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(path, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
