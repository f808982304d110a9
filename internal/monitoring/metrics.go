package monitoring

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navlight_bookings_created_total",
		Help: "Bookings successfully created",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navlight_booking_conflicts_total",
		Help: "Create/update attempts rejected because of overlapping dates",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navlight_notifications_total",
		Help: "Email notification attempts by kind and outcome",
	}, []string{"kind", "status"})

	InvoicesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navlight_invoices_sent_total",
		Help: "Invoice emails successfully sent",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navlight_http_requests_total",
		Help: "HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})
)

// RequestCounter is an echo middleware counting requests per route.
func RequestCounter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			httpRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			return err
		}
	}
}
