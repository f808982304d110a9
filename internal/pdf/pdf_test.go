package pdf_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/navlight/booking-service/internal/model"
	"github.com/navlight/booking-service/internal/pdf"
)

func TestRenderInvoice(t *testing.T) {
	t.Parallel()
	r := pdf.New(pdf.WithClock(func() time.Time {
		return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	}))

	b := model.Booking{
		Name:  "Dana",
		Email: "dana@example.com",
	}
	inv := model.Invoice{
		EventName:              "Spring Cup",
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

	doc, err := r.RenderInvoice(b, inv)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	require.Equal(t, "%PDF", string(doc[:4]))
}

func TestRenderInvoice_EmptyInvoice(t *testing.T) {
	t.Parallel()
	doc, err := pdf.New().RenderInvoice(model.Booking{}, model.Invoice{})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(doc[:4]))
}
