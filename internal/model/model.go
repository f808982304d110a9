package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/navlight/booking-service/internal/errs"
)

type Status string

const (
	StatusBooked   Status = "booked"
	StatusPickedUp Status = "pickedup"
	StatusReturned Status = "returned"
)

// DateLayout is the canonical wire and storage format for booking dates.
// Dates in this format compare correctly as plain strings.
const DateLayout = "2006-01-02"

// Booking is the sole persisted entity: one loan of a navlight set.
type Booking struct {
	ID                   int64    `json:"id" db:"id"`
	NavlightSet          string   `json:"navlightSet"`
	PickupDate           string   `json:"pickupDate"`
	EventDate            string   `json:"eventDate"`
	ReturnDate           string   `json:"returnDate"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	EventName            string   `json:"eventName"`
	Comment              string   `json:"comment"`
	Status               Status   `json:"status"`
	ActualPickupDate     string   `json:"actualPickupDate,omitempty"`
	PickupMissingPunches []string `json:"pickupMissingPunches,omitempty"`
	ReturnMissingPunches []string `json:"returnMissingPunches,omitempty"`
	ReturnedLostPunches  []string `json:"returnedLostPunches"`
	CompetitorsEntered   *int     `json:"competitorsEntered,omitempty"`
	InvoiceSentAt        string   `json:"invoiceSentAt,omitempty"`
}

// CreateBookingRequest carries the client-supplied fields of a new
// booking. ID and status are assigned by the service.
type CreateBookingRequest struct {
	NavlightSet string `json:"navlightSet" validate:"required"`
	PickupDate  string `json:"pickupDate" validate:"required,datetime=2006-01-02"`
	EventDate   string `json:"eventDate" validate:"required,datetime=2006-01-02"`
	ReturnDate  string `json:"returnDate" validate:"required,datetime=2006-01-02"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	EventName   string `json:"eventName" validate:"required"`
	Comment     string `json:"comment"`
}

// Invoice is the computed charge breakdown for a returned booking.
type Invoice struct {
	EventName              string          `json:"eventName"`
	EventDate              string          `json:"eventDate"`
	EventDateDisplay       string          `json:"eventDateDisplay"`
	CompetitorsEntered     int             `json:"competitorsEntered"`
	UnitCharge             decimal.Decimal `json:"unitCharge"`
	UsageCharge            decimal.Decimal `json:"usageCharge"`
	NewMissingPunches      []string        `json:"newMissingPunches"`
	ReturnedLostPunches    []string        `json:"returnedLostPunches"`
	MissingPunchUnitCharge decimal.Decimal `json:"missingPunchUnitCharge"`
	MissingPunchCharge     decimal.Decimal `json:"missingPunchCharge"`
	TotalCharge            decimal.Decimal `json:"totalCharge"`
	BankAccountName        string          `json:"bankAccountName"`
	BankAccountNumber      string          `json:"bankAccountNumber"`
	PaymentReference       string          `json:"paymentReference"`
}

// ValidateDateOrder enforces pickup <= event <= return.
func ValidateDateOrder(pickup, event, ret string) error {
	if pickup > event {
		return errors.Wrap(errs.ErrValidation, "pickup date must not be after event date")
	}
	if event > ret {
		return errors.Wrap(errs.ErrValidation, "event date must not be after return date")
	}
	return nil
}

// ValidateCore checks the fields every stored booking must carry,
// including date ordering. Called on create and on every merged update.
func (b *Booking) ValidateCore() error {
	if b.NavlightSet == "" || b.PickupDate == "" || b.EventDate == "" || b.ReturnDate == "" ||
		b.Name == "" || b.Email == "" || b.EventName == "" {
		return errors.Wrap(errs.ErrValidation, "all core booking fields are required")
	}
	return ValidateDateOrder(b.PickupDate, b.EventDate, b.ReturnDate)
}

// legacyCommentFields are stale per-stage comment fields some clients
// still send; they are normalized onto the single comment field.
var legacyCommentFields = []string{"bookingComment", "pickupComment", "returnComment"}

// MergeBooking overlays a partial JSON patch onto an existing booking.
// Fields absent from the patch are preserved, legacy comment fields are
// stripped, the comment prefers patch over prior value, and the ID is
// always the existing one.
func MergeBooking(existing Booking, patch []byte) (Booking, error) {
	base, err := toMap(existing)
	if err != nil {
		return Booking{}, err
	}

	var delta map[string]json.RawMessage
	if err := json.Unmarshal(patch, &delta); err != nil {
		return Booking{}, errors.Wrap(errs.ErrValidation, "request body must be a JSON object")
	}

	for k, v := range delta {
		base[k] = v
	}
	for _, k := range legacyCommentFields {
		delete(base, k)
	}

	comment := existing.Comment
	if raw, ok := delta["comment"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &comment); err != nil {
			return Booking{}, errors.Wrap(errs.ErrValidation, "comment must be a string")
		}
	}
	base["comment"] = mustRaw(comment)
	base["id"] = mustRaw(existing.ID)

	data, err := json.Marshal(base)
	if err != nil {
		return Booking{}, err
	}
	var merged Booking
	if err := json.Unmarshal(data, &merged); err != nil {
		return Booking{}, errors.Wrapf(errs.ErrValidation, "invalid field value: %v", err)
	}
	return merged, nil
}

func toMap(b Booking) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mustRaw(v any) json.RawMessage {
	data, _ := json.Marshal(v) //nolint:errcheck
	return data
}

// FormatDisplayDate renders a stored date as DD/MM/YYYY. It accepts
// plain dates and date-with-time values and returns "" for anything
// unparseable.
func FormatDisplayDate(value string) string {
	if value == "" {
		return ""
	}
	datePart := value
	if i := strings.Index(datePart, "T"); i >= 0 {
		datePart = datePart[:i]
	}
	if parts := strings.SplitN(datePart, "-", 3); len(parts) == 3 &&
		parts[0] != "" && parts[1] != "" && parts[2] != "" {
		return fmt.Sprintf("%s/%s/%s", pad2(parts[2]), pad2(parts[1]), parts[0])
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
