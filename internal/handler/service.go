package handler

import (
	"context"

	"github.com/navlight/booking-service/internal/model"
	"github.com/navlight/booking-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookingService interface {
	Create(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	Update(ctx context.Context, id int64, patch []byte) (model.Booking, error)
	Delete(ctx context.Context, id int64) error
	InvoicePreview(ctx context.Context, id int64) (model.Invoice, error)
	InvoicePDF(ctx context.Context, id int64) ([]byte, string, error)
	SendInvoice(ctx context.Context, id int64) (model.Booking, model.Invoice, error)
}

var _ BookingService = (*service.Service)(nil)
