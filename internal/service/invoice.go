package service

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/navlight/booking-service/internal/errs"
	"github.com/navlight/booking-service/internal/model"
	"github.com/navlight/booking-service/internal/monitoring"
)

// BuildInvoice computes the charge breakdown for a returned booking.
// The computation is pure and idempotent: usage charge from the
// competitor count, plus a charge per punch that went missing during
// the loan. Punches already missing at pickup were the club's problem
// before the loan and are never billed; lost punches are listed but
// not charged.
func (s *Service) BuildInvoice(b model.Booking) (model.Invoice, error) {
	if b.Status != model.StatusReturned {
		return model.Invoice{}, errors.Wrap(errs.ErrValidation, "invoice can only be created for returned bookings")
	}
	if b.CompetitorsEntered == nil {
		return model.Invoice{}, errors.Wrap(errs.ErrValidation, "competitors entered is required before creating an invoice")
	}

	competitors := *b.CompetitorsEntered
	usageCharge := s.billing.UnitCharge.Mul(decimal.NewFromInt(int64(competitors)))
	newMissing := diffPunches(b.ReturnMissingPunches, b.PickupMissingPunches)
	missingPunchCharge := s.billing.MissingPunchUnitCharge.Mul(decimal.NewFromInt(int64(len(newMissing))))

	return model.Invoice{
		EventName:              b.EventName,
		EventDate:              b.EventDate,
		EventDateDisplay:       model.FormatDisplayDate(b.EventDate),
		CompetitorsEntered:     competitors,
		UnitCharge:             s.billing.UnitCharge,
		UsageCharge:            usageCharge,
		NewMissingPunches:      newMissing,
		ReturnedLostPunches:    nonEmpty(b.ReturnedLostPunches),
		MissingPunchUnitCharge: s.billing.MissingPunchUnitCharge,
		MissingPunchCharge:     missingPunchCharge,
		TotalCharge:            usageCharge.Add(missingPunchCharge),
		BankAccountName:        s.billing.BankAccountName,
		BankAccountNumber:      s.billing.BankAccountNumber,
		PaymentReference:       b.EventName,
	}, nil
}

// InvoicePreview computes the invoice for a stored booking without
// sending anything.
func (s *Service) InvoicePreview(ctx context.Context, id int64) (model.Invoice, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Invoice{}, err
	}
	return s.BuildInvoice(b)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// InvoicePDF renders the invoice as a PDF and returns the document
// together with a download filename derived from the event name.
func (s *Service) InvoicePDF(ctx context.Context, id int64) ([]byte, string, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	inv, err := s.BuildInvoice(b)
	if err != nil {
		return nil, "", err
	}
	if s.billing.BankAccountNumber == "" {
		return nil, "", errors.Wrap(errs.ErrConfiguration, "bank account number is not configured")
	}

	doc, err := s.renderer.RenderInvoice(b, inv)
	if err != nil {
		return nil, "", errors.Wrapf(errs.ErrDelivery, "render invoice pdf: %v", err)
	}
	eventName := b.EventName
	if eventName == "" {
		eventName = "invoice"
	}
	filename := "invoice-" + unsafeFilenameChars.ReplaceAllString(eventName, "_") + ".pdf"
	return doc, filename, nil
}

// SendInvoice emails the invoice to the booker. invoiceSentAt is only
// persisted after the send succeeded; repeated sends are allowed and
// simply refresh the timestamp.
func (s *Service) SendInvoice(ctx context.Context, id int64) (model.Booking, model.Invoice, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, model.Invoice{}, err
	}
	inv, err := s.BuildInvoice(b)
	if err != nil {
		return model.Booking{}, model.Invoice{}, err
	}
	if s.billing.BankAccountNumber == "" {
		return model.Booking{}, model.Invoice{}, errors.Wrap(errs.ErrConfiguration, "bank account number is not configured")
	}

	if err := s.notifier.InvoiceIssued(ctx, b, inv); err != nil {
		monitoring.Notifications.WithLabelValues("invoice", "error").Inc()
		return model.Booking{}, model.Invoice{}, errors.Wrapf(errs.ErrDelivery, "send invoice email: %v", err)
	}
	monitoring.Notifications.WithLabelValues("invoice", "ok").Inc()

	b.InvoiceSentAt = s.now().UTC().Format(time.RFC3339)
	if err := s.repo.Update(ctx, b); err != nil {
		return model.Booking{}, model.Invoice{}, err
	}
	monitoring.InvoicesSent.Inc()
	s.publish("booking.invoice_sent", b)
	return b, inv, nil
}

// diffPunches returns the punches in returned that are not in picked,
// preserving order.
func diffPunches(returned, picked []string) []string {
	known := make(map[string]struct{}, len(picked))
	for _, p := range picked {
		known[p] = struct{}{}
	}
	out := make([]string, 0, len(returned))
	for _, p := range returned {
		if _, ok := known[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
