package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navlight/booking-service/config"
	"github.com/navlight/booking-service/internal/model"
)

func newTestMailer() *Mailer {
	return New(config.SMTP{
		Host: "smtp.example.com",
		Port: 587,
		User: "bookings@example.com",
		Pass: "secret",
		From: "Navlight Bookings <bookings@example.com>",
	}, decimal.NewFromInt(2), decimal.NewFromInt(200), zap.NewNop())
}

func testBooking() model.Booking {
	return model.Booking{
		ID:          1700000000000,
		NavlightSet: "Set A",
		PickupDate:  "2026-01-10",
		EventDate:   "2026-01-11",
		ReturnDate:  "2026-01-12",
		Name:        "Dana",
		Email:       "dana@example.com",
		EventName:   "Spring Cup",
		Status:      model.StatusBooked,
	}
}

func TestConfirmationBody(t *testing.T) {
	t.Parallel()
	body := newTestMailer().confirmationBody(testBooking())

	require.True(t, strings.HasPrefix(body, "Hi Dana,\n"))
	require.Contains(t, body, "Your Navlight booking has been confirmed.")
	require.Contains(t, body, "Event: Spring Cup")
	require.Contains(t, body, "Navlight set: Set A")
	require.Contains(t, body, "Pickup date: 10/01/2026")
	require.Contains(t, body, "Event date: 11/01/2026")
	require.Contains(t, body, "Return date: 12/01/2026")
	require.Contains(t, body, "The charge per competitor is $2.00, and any missing punch will incur a $200.00 charge.")
	require.Contains(t, body, "You will receive an invoice after the return date.")
	require.True(t, strings.HasSuffix(body, "Thank you."))
}

func TestPickupBody(t *testing.T) {
	t.Parallel()
	b := testBooking()
	b.Status = model.StatusPickedUp
	b.ActualPickupDate = "2026-01-09"
	b.PickupMissingPunches = []string{"3", "", "7"}

	body := newTestMailer().pickupBody(b)

	require.Contains(t, body, "Your Navlight pickup has been recorded.")
	require.Contains(t, body, "Actual pickup date: 09/01/2026")
	require.Contains(t, body, "Missing punches at pickup: 3, 7")

	b.PickupMissingPunches = nil
	require.Contains(t, newTestMailer().pickupBody(b), "Missing punches at pickup: None")
}

func TestInvoiceBody(t *testing.T) {
	t.Parallel()
	b := testBooking()
	b.Status = model.StatusReturned
	inv := model.Invoice{
		EventName:              "Spring Cup",
		EventDate:              "2026-01-11",
		EventDateDisplay:       "11/01/2026",
		CompetitorsEntered:     20,
		UnitCharge:             decimal.NewFromInt(2),
		UsageCharge:            decimal.NewFromInt(40),
		NewMissingPunches:      []string{"9"},
		ReturnedLostPunches:    []string{"12"},
		MissingPunchUnitCharge: decimal.NewFromInt(200),
		MissingPunchCharge:     decimal.NewFromInt(200),
		TotalCharge:            decimal.NewFromInt(240),
		BankAccountName:        "Navlight Club",
		BankAccountNumber:      "12-3456-7890123-00",
		PaymentReference:       "Spring Cup",
	}

	body := invoiceBody(b, inv)

	require.Contains(t, body, "Please find your Navlight booking invoice details below:")
	require.Contains(t, body, "Event name: Spring Cup")
	require.Contains(t, body, "Event date: 11/01/2026")
	require.Contains(t, body, "Usage charge: 20 competitors × $2.00 = $40.00")
	require.Contains(t, body, "Missing returned punches charge: 1 × $200.00 = $200.00")
	require.Contains(t, body, "Missing punches: 9")
	require.Contains(t, body, "Lost punches (not charged): 12")
	require.Contains(t, body, "Total charge: $240.00")
	require.Contains(t, body, `Please pay the total amount to account Navlight Club (12-3456-7890123-00) with reference "Spring Cup".`)
}

func TestInvoiceBody_UnconfiguredBank(t *testing.T) {
	t.Parallel()
	inv := model.Invoice{PaymentReference: "Spring Cup"}
	body := invoiceBody(testBooking(), inv)
	require.Contains(t, body, `Please pay the total amount to account Not configured (Not configured) with reference "Spring Cup".`)
}

func TestNoopNotifier(t *testing.T) {
	t.Parallel()
	var n NoopNotifier
	require.NoError(t, n.BookingConfirmed(context.Background(), testBooking()))
	require.NoError(t, n.PickupRecorded(context.Background(), testBooking()))
	require.Error(t, n.InvoiceIssued(context.Background(), testBooking(), model.Invoice{}))
}
