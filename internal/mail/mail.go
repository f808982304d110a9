// Package mail delivers booking notifications over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/navlight/booking-service/config"
	"github.com/navlight/booking-service/internal/model"
)

// Mailer sends booking lifecycle emails. Confirmation and pickup
// notices are bcc'd to the financial controller when one is configured;
// invoices go to the customer only.
type Mailer struct {
	cfg                    config.SMTP
	unitCharge             decimal.Decimal
	missingPunchUnitCharge decimal.Decimal
	log                    *zap.Logger
}

func New(cfg config.SMTP, unitCharge, missingPunchUnitCharge decimal.Decimal, log *zap.Logger) *Mailer {
	return &Mailer{
		cfg:                    cfg,
		unitCharge:             unitCharge,
		missingPunchUnitCharge: missingPunchUnitCharge,
		log:                    log,
	}
}

func (m *Mailer) BookingConfirmed(ctx context.Context, b model.Booking) error {
	if b.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Navlight booking confirmed: %s", b.EventName)
	return m.send(ctx, b.Email, m.cfg.BCC, subject, m.confirmationBody(b))
}

func (m *Mailer) PickupRecorded(ctx context.Context, b model.Booking) error {
	if b.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Navlight picked up: %s", b.EventName)
	return m.send(ctx, b.Email, m.cfg.BCC, subject, m.pickupBody(b))
}

func (m *Mailer) InvoiceIssued(ctx context.Context, b model.Booking, inv model.Invoice) error {
	if b.Email == "" {
		return errors.New("recipient email is missing")
	}
	subject := fmt.Sprintf("Invoice for Navlight booking: %s", b.EventName)
	return m.send(ctx, b.Email, "", subject, invoiceBody(b, inv))
}

func (m *Mailer) send(ctx context.Context, to, bcc, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.FromAddress())
	msg.SetHeader("To", to)
	if bcc != "" {
		msg.SetHeader("Bcc", bcc)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)
	d.SSL = m.cfg.Secure

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(msg) }()
	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "send mail")
		}
		m.log.Debug("mail sent", zap.String("to", to), zap.String("subject", subject))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) confirmationBody(b model.Booking) string {
	return strings.Join([]string{
		fmt.Sprintf("Hi %s,", b.Name),
		"",
		"Your Navlight booking has been confirmed.",
		"",
		fmt.Sprintf("Event: %s", b.EventName),
		fmt.Sprintf("Navlight set: %s", b.NavlightSet),
		fmt.Sprintf("Pickup date: %s", model.FormatDisplayDate(b.PickupDate)),
		fmt.Sprintf("Event date: %s", model.FormatDisplayDate(b.EventDate)),
		fmt.Sprintf("Return date: %s", model.FormatDisplayDate(b.ReturnDate)),
		"",
		"The charges will be calculated based on the number of competitors entered and any missing punches after the event.",
		fmt.Sprintf("The charge per competitor is $%s, and any missing punch will incur a $%s charge.",
			m.unitCharge.StringFixed(2), m.missingPunchUnitCharge.StringFixed(2)),
		"You will receive an invoice after the return date.",
		"Thank you.",
	}, "\n")
}

func (m *Mailer) pickupBody(b model.Booking) string {
	return strings.Join([]string{
		fmt.Sprintf("Hi %s,", b.Name),
		"",
		"Your Navlight pickup has been recorded.",
		"",
		fmt.Sprintf("Event: %s", b.EventName),
		fmt.Sprintf("Navlight set: %s", b.NavlightSet),
		fmt.Sprintf("Pickup date: %s", model.FormatDisplayDate(b.PickupDate)),
		fmt.Sprintf("Event date: %s", model.FormatDisplayDate(b.EventDate)),
		fmt.Sprintf("Return date: %s", model.FormatDisplayDate(b.ReturnDate)),
		fmt.Sprintf("Actual pickup date: %s", model.FormatDisplayDate(b.ActualPickupDate)),
		fmt.Sprintf("Missing punches at pickup: %s", punchList(b.PickupMissingPunches)),
		"",
		"The charges will be calculated based on the number of competitors entered and any missing punches after the event.",
		fmt.Sprintf("The charge per competitor is $%s, and any missing punch will incur a $%s charge.",
			m.unitCharge.StringFixed(2), m.missingPunchUnitCharge.StringFixed(2)),
		"You will receive an invoice after the return date.",
		"Thank you.",
	}, "\n")
}

func invoiceBody(b model.Booking, inv model.Invoice) string {
	return strings.Join([]string{
		fmt.Sprintf("Hi %s,", b.Name),
		"",
		"Please find your Navlight booking invoice details below:",
		"",
		fmt.Sprintf("Event name: %s", inv.EventName),
		fmt.Sprintf("Event date: %s", inv.EventDateDisplay),
		fmt.Sprintf("Usage charge: %d competitors × $%s = $%s",
			inv.CompetitorsEntered, inv.UnitCharge.StringFixed(2), inv.UsageCharge.StringFixed(2)),
		fmt.Sprintf("Missing returned punches charge: %d × $%s = $%s",
			len(inv.NewMissingPunches), inv.MissingPunchUnitCharge.StringFixed(2), inv.MissingPunchCharge.StringFixed(2)),
		fmt.Sprintf("Missing punches: %s", punchList(inv.NewMissingPunches)),
		fmt.Sprintf("Lost punches (not charged): %s", punchList(inv.ReturnedLostPunches)),
		fmt.Sprintf("Total charge: $%s", inv.TotalCharge.StringFixed(2)),
		fmt.Sprintf("Please pay the total amount to account %s (%s) with reference %q.",
			orNotConfigured(inv.BankAccountName), orNotConfigured(inv.BankAccountNumber), inv.PaymentReference),
		"",
		"Thank you.",
	}, "\n")
}

func punchList(punches []string) string {
	nonEmpty := make([]string, 0, len(punches))
	for _, p := range punches {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "None"
	}
	return strings.Join(nonEmpty, ", ")
}

func orNotConfigured(s string) string {
	if s == "" {
		return "Not configured"
	}
	return s
}

// NoopNotifier is used when SMTP is not configured. Best-effort
// notifications are silently skipped; invoice delivery is an error so
// the caller never marks an invoice as sent.
type NoopNotifier struct{}

func (NoopNotifier) BookingConfirmed(context.Context, model.Booking) error { return nil }
func (NoopNotifier) PickupRecorded(context.Context, model.Booking) error   { return nil }
func (NoopNotifier) InvoiceIssued(context.Context, model.Booking, model.Invoice) error {
	return errors.New("email is not configured")
}
