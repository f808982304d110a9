package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/navlight/booking-service/internal/errs"
	"github.com/navlight/booking-service/internal/model"
)

func returnedBooking() model.Booking {
	b := storedBooking()
	b.Status = model.StatusReturned
	b.PickupMissingPunches = []string{"3", "7"}
	b.ReturnMissingPunches = []string{"3", "7", "9"}
	b.ReturnedLostPunches = []string{"12"}
	b.CompetitorsEntered = intPtr(20)
	return b
}

func intPtr(v int) *int { return &v }

func TestService_BuildInvoice(t *testing.T) {
	svc, _ := newSvc(t, defaultBilling())

	t.Run("charges", func(t *testing.T) {
		inv, err := svc.BuildInvoice(returnedBooking())
		require.NoError(t, err)

		// 20 competitors x $2 plus one newly missing punch x $200
		require.True(t, inv.UsageCharge.Equal(decimal.NewFromInt(40)), "usage %s", inv.UsageCharge)
		require.Equal(t, []string{"9"}, inv.NewMissingPunches)
		require.True(t, inv.MissingPunchCharge.Equal(decimal.NewFromInt(200)), "punch %s", inv.MissingPunchCharge)
		require.True(t, inv.TotalCharge.Equal(decimal.NewFromInt(240)), "total %s", inv.TotalCharge)

		require.Equal(t, []string{"12"}, inv.ReturnedLostPunches)
		require.Equal(t, "Night Relay", inv.PaymentReference)
		require.Equal(t, "11/01/2026", inv.EventDateDisplay)
		require.Equal(t, "12-3456-7890123-00", inv.BankAccountNumber)
	})

	t.Run("punches missing at pickup are never billed", func(t *testing.T) {
		b := returnedBooking()
		b.ReturnMissingPunches = []string{"3", "7"}
		inv, err := svc.BuildInvoice(b)
		require.NoError(t, err)
		require.Empty(t, inv.NewMissingPunches)
		require.True(t, inv.MissingPunchCharge.IsZero())
	})

	t.Run("not returned yet", func(t *testing.T) {
		b := returnedBooking()
		b.Status = model.StatusBooked
		_, err := svc.BuildInvoice(b)
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("competitor count missing", func(t *testing.T) {
		b := returnedBooking()
		b.CompetitorsEntered = nil
		_, err := svc.BuildInvoice(b)
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestService_InvoicePreview(t *testing.T) {
	svc, d := newSvc(t, defaultBilling())
	ctx := context.Background()

	d.repo.EXPECT().GetByID(ctx, testID).Return(returnedBooking(), nil)
	inv, err := svc.InvoicePreview(ctx, testID)
	require.NoError(t, err)
	require.True(t, inv.TotalCharge.Equal(decimal.NewFromInt(240)))

	d.repo.EXPECT().GetByID(ctx, testID).Return(model.Booking{}, errs.ErrNotFound)
	_, err = svc.InvoicePreview(ctx, testID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_InvoicePDF(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc, d := newSvc(t, defaultBilling())
		ctx := context.Background()

		b := returnedBooking()
		b.EventName = "Night Relay #3"
		d.repo.EXPECT().GetByID(ctx, testID).Return(b, nil)
		d.renderer.EXPECT().RenderInvoice(gomock.Any(), gomock.Any()).Return([]byte("%PDF-stub"), nil)

		doc, filename, err := svc.InvoicePDF(ctx, testID)
		require.NoError(t, err)
		require.Equal(t, []byte("%PDF-stub"), doc)
		require.Equal(t, "invoice-Night_Relay__3.pdf", filename)
	})

	t.Run("render failure", func(t *testing.T) {
		svc, d := newSvc(t, defaultBilling())
		ctx := context.Background()

		d.repo.EXPECT().GetByID(ctx, testID).Return(returnedBooking(), nil)
		d.renderer.EXPECT().RenderInvoice(gomock.Any(), gomock.Any()).Return(nil, errors.New("font missing"))

		_, _, err := svc.InvoicePDF(ctx, testID)
		require.ErrorIs(t, err, errs.ErrDelivery)
	})

	t.Run("bank account not configured", func(t *testing.T) {
		billing := defaultBilling()
		billing.BankAccountNumber = ""
		svc, d := newSvc(t, billing)
		ctx := context.Background()

		d.repo.EXPECT().GetByID(ctx, testID).Return(returnedBooking(), nil)

		_, _, err := svc.InvoicePDF(ctx, testID)
		require.ErrorIs(t, err, errs.ErrConfiguration)
	})
}

func TestService_SendInvoice(t *testing.T) {
	t.Run("sets invoiceSentAt only after a successful send", func(t *testing.T) {
		svc, d := newSvc(t, defaultBilling())
		ctx := context.Background()

		stored := returnedBooking()
		d.repo.EXPECT().GetByID(ctx, testID).Return(stored, nil)
		d.notifier.EXPECT().InvoiceIssued(ctx, stored, gomock.Any()).Return(nil)

		want := stored
		want.InvoiceSentAt = testClock.Format(time.RFC3339)
		d.repo.EXPECT().Update(ctx, want).Return(nil)

		b, inv, err := svc.SendInvoice(ctx, testID)
		require.NoError(t, err)
		require.Equal(t, want.InvoiceSentAt, b.InvoiceSentAt)
		require.True(t, inv.TotalCharge.Equal(decimal.NewFromInt(240)))
	})

	t.Run("delivery failure leaves the booking untouched", func(t *testing.T) {
		svc, d := newSvc(t, defaultBilling())
		ctx := context.Background()

		d.repo.EXPECT().GetByID(ctx, testID).Return(returnedBooking(), nil)
		d.notifier.EXPECT().InvoiceIssued(ctx, gomock.Any(), gomock.Any()).Return(errors.New("smtp: 550"))

		_, _, err := svc.SendInvoice(ctx, testID)
		require.ErrorIs(t, err, errs.ErrDelivery)
	})

	t.Run("not returned never computes a charge", func(t *testing.T) {
		svc, d := newSvc(t, defaultBilling())
		ctx := context.Background()

		b := returnedBooking()
		b.Status = model.StatusPickedUp
		d.repo.EXPECT().GetByID(ctx, testID).Return(b, nil)

		_, _, err := svc.SendInvoice(ctx, testID)
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("bank account required", func(t *testing.T) {
		billing := defaultBilling()
		billing.BankAccountNumber = ""
		svc, d := newSvc(t, billing)
		ctx := context.Background()

		d.repo.EXPECT().GetByID(ctx, testID).Return(returnedBooking(), nil)

		_, _, err := svc.SendInvoice(ctx, testID)
		require.ErrorIs(t, err, errs.ErrConfiguration)
	})
}
