package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/navlight/booking-service/internal/model"
	"github.com/navlight/booking-service/internal/monitoring"
	"github.com/navlight/booking-service/internal/sessions"
	"github.com/navlight/booking-service/pkg/validate"
)

type Handler struct {
	svc           BookingService
	sessions      sessions.Store
	adminPassword string
	log           *zap.Logger
}

func New(svc BookingService, store sessions.Store, adminPassword string, log *zap.Logger) *Handler {
	return &Handler{
		svc:           svc,
		sessions:      store,
		adminPassword: adminPassword,
		log:           log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("",
		middleware.RequestLoggerWithConfig(requestLoggerConfig(h.log)),
		middleware.RequestID(),
		monitoring.RequestCounter(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/admin/login", h.AdminLogin)
	api.GET("/bookings", h.ListBookings)
	api.POST("/bookings", h.CreateBooking)

	admin := api.Group("/bookings", h.adminAuth)
	admin.PATCH("/:id", h.UpdateBooking)
	admin.DELETE("/:id", h.DeleteBooking)
	admin.GET("/:id/invoice-preview", h.InvoicePreview)
	admin.GET("/:id/invoice-pdf", h.InvoicePDF)
	admin.POST("/:id/send-invoice", h.SendInvoice)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !passwordMatches(h.adminPassword, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid password")
	}
	token, err := h.sessions.Issue(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (h *Handler) ListBookings(c echo.Context) error {
	bookings, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return c.JSON(http.StatusOK, bookings)
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var req model.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBooking(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) InvoicePreview(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.InvoicePreview(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"invoice": inv})
}

func (h *Handler) InvoicePDF(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}
	doc, filename, err := h.svc.InvoicePDF(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) SendInvoice(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}
	_, inv, err := h.svc.SendInvoice(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "invoice": inv})
}

// bookingID parses the :id path param. Unparseable ids behave like
// unknown ones.
func bookingID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	return id, nil
}
