package model_test

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/navlight/booking-service/internal/errs"
	"github.com/navlight/booking-service/internal/model"
)

func intPtr(v int) *int { return &v }

func testBooking() model.Booking {
	return model.Booking{
		ID:                   1700000000000,
		NavlightSet:          "A",
		PickupDate:           "2026-01-10",
		EventDate:            "2026-01-11",
		ReturnDate:           "2026-01-12",
		Name:                 "Jo Bloggs",
		Email:                "jo@club.example",
		EventName:            "Night Relay",
		Comment:              "gate code 4711",
		Status:               model.StatusBooked,
		ReturnedLostPunches:  []string{},
		PickupMissingPunches: []string{"3", "7"},
	}
}

func TestBooking_RoundTrip(t *testing.T) {
	t.Parallel()
	in := testBooking()
	in.Status = model.StatusReturned
	in.ReturnMissingPunches = []string{"3", "7", "9"}
	in.CompetitorsEntered = intPtr(20)
	in.InvoiceSentAt = "2026-02-01T10:00:00Z"

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out model.Booking
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestValidateDateOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                string
		pickup, event, ret  string
		wantErr             bool
	}{
		{name: "ordered", pickup: "2026-01-10", event: "2026-01-11", ret: "2026-01-12"},
		{name: "all equal", pickup: "2026-01-10", event: "2026-01-10", ret: "2026-01-10"},
		{name: "pickup after event", pickup: "2026-01-12", event: "2026-01-11", ret: "2026-01-13", wantErr: true},
		{name: "event after return", pickup: "2026-01-10", event: "2026-01-13", ret: "2026-01-12", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := model.ValidateDateOrder(tt.pickup, tt.event, tt.ret)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBooking_ValidateCore(t *testing.T) {
	t.Parallel()
	b := testBooking()
	require.NoError(t, b.ValidateCore())

	b.EventName = ""
	require.ErrorIs(t, b.ValidateCore(), errs.ErrValidation)
}

func TestMergeBooking(t *testing.T) {
	t.Parallel()

	t.Run("absent fields preserved", func(t *testing.T) {
		t.Parallel()
		merged, err := model.MergeBooking(testBooking(), []byte(`{"status":"pickedup","actualPickupDate":"2026-01-10"}`))
		require.NoError(t, err)
		require.Equal(t, model.StatusPickedUp, merged.Status)
		require.Equal(t, "2026-01-10", merged.ActualPickupDate)
		require.Equal(t, "Night Relay", merged.EventName)
		require.Equal(t, []string{"3", "7"}, merged.PickupMissingPunches)
	})

	t.Run("id immutable", func(t *testing.T) {
		t.Parallel()
		merged, err := model.MergeBooking(testBooking(), []byte(`{"id":42}`))
		require.NoError(t, err)
		require.Equal(t, int64(1700000000000), merged.ID)
	})

	t.Run("legacy comment fields stripped", func(t *testing.T) {
		t.Parallel()
		existing := testBooking()
		patch := []byte(`{"bookingComment":"a","pickupComment":"b","returnComment":"c"}`)
		merged, err := model.MergeBooking(existing, patch)
		require.NoError(t, err)
		require.Equal(t, existing.Comment, merged.Comment)

		data, err := json.Marshal(merged)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		for _, k := range []string{"bookingComment", "pickupComment", "returnComment"} {
			require.NotContains(t, m, k)
		}
	})

	t.Run("comment prefers patch over prior", func(t *testing.T) {
		t.Parallel()
		merged, err := model.MergeBooking(testBooking(), []byte(`{"comment":"new note"}`))
		require.NoError(t, err)
		require.Equal(t, "new note", merged.Comment)

		merged, err = model.MergeBooking(testBooking(), []byte(`{"status":"returned"}`))
		require.NoError(t, err)
		require.Equal(t, "gate code 4711", merged.Comment)

		merged, err = model.MergeBooking(testBooking(), []byte(`{"comment":null}`))
		require.NoError(t, err)
		require.Equal(t, "gate code 4711", merged.Comment)

		empty := testBooking()
		empty.Comment = ""
		merged, err = model.MergeBooking(empty, []byte(`{}`))
		require.NoError(t, err)
		require.Equal(t, "", merged.Comment)
	})

	t.Run("non-object patch rejected", func(t *testing.T) {
		t.Parallel()
		_, err := model.MergeBooking(testBooking(), []byte(`[1,2]`))
		require.True(t, errors.Is(err, errs.ErrValidation))
	})
}

func TestFormatDisplayDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "2026-01-09", want: "09/01/2026"},
		{in: "2026-1-9", want: "09/01/2026"},
		{in: "2026-11-25T14:30:00Z", want: "25/11/2026"},
		{in: "", want: ""},
		{in: "next tuesday", want: ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, model.FormatDisplayDate(tt.in), "input %q", tt.in)
	}
}
