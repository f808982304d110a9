// Package pdf renders booking invoices as PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/navlight/booking-service/internal/model"
)

type Renderer struct {
	now func() time.Time
}

type Option func(*Renderer)

// WithClock overrides the issue-date clock in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

func New(ops ...Option) *Renderer {
	r := &Renderer{now: time.Now}
	for _, op := range ops {
		op(r)
	}
	return r
}

// RenderInvoice produces a single-page invoice document.
func (r *Renderer) RenderInvoice(b model.Booking, inv model.Invoice) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 18, 18)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 10, "Navlight Booking Invoice", "", 1, "L", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, fmt.Sprintf("Issued: %s", r.now().Format("02/01/2006")), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 12)
	line := func(s string) {
		doc.MultiCell(0, 6, s, "", "L", false)
	}
	line(fmt.Sprintf("Name: %s", b.Name))
	line(fmt.Sprintf("Email: %s", b.Email))
	doc.Ln(3)

	line(fmt.Sprintf("Event name: %s", inv.EventName))
	line(fmt.Sprintf("Event date: %s", inv.EventDateDisplay))
	line(fmt.Sprintf("Usage charge: %d competitors x $%s = $%s",
		inv.CompetitorsEntered, inv.UnitCharge.StringFixed(2), inv.UsageCharge.StringFixed(2)))
	line(fmt.Sprintf("Missing punches charge: %d x $%s = $%s",
		len(inv.NewMissingPunches), inv.MissingPunchUnitCharge.StringFixed(2), inv.MissingPunchCharge.StringFixed(2)))
	line(fmt.Sprintf("   Missing punches: %s", punchList(inv.NewMissingPunches)))
	line(fmt.Sprintf("   Lost punches (not charged): %s", punchList(inv.ReturnedLostPunches)))
	line(fmt.Sprintf("Total charge: $%s", inv.TotalCharge.StringFixed(2)))
	line(fmt.Sprintf("Please pay to account %s (%s) with reference %q.",
		orNotConfigured(inv.BankAccountName), orNotConfigured(inv.BankAccountNumber), inv.PaymentReference))
	doc.Ln(4)
	line("Thank you.")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render invoice pdf")
	}
	return buf.Bytes(), nil
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
