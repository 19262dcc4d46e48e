package sequence

import (
	"errors"
	"testing"
)

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to conducted", StatusPending, StatusConducted, true},
		{"pending to holiday", StatusPending, StatusHoliday, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"holiday to conducted", StatusHoliday, StatusConducted, true},
		{"holiday to cancelled", StatusHoliday, StatusCancelled, true},
		{"holiday back to pending", StatusHoliday, StatusPending, false},
		{"conducted is terminal", StatusConducted, StatusHoliday, false},
		{"conducted to cancelled", StatusConducted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"cancelled to conducted", StatusCancelled, StatusConducted, false},
		{"self transition", StatusPending, StatusPending, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := TransitionAllowed(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("TransitionAllowed(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusConducted.Done() || !StatusCancelled.Done() {
		t.Fatalf("conducted and cancelled must count as done")
	}
	if StatusHoliday.Done() {
		t.Fatalf("holiday is completion-exempt and must not count as done")
	}
	if StatusPending.Done() {
		t.Fatalf("pending must not count as done")
	}
	if StatusHoliday.Terminal() || StatusPending.Terminal() {
		t.Fatalf("holiday and pending are not terminal")
	}
	if Status("no-show").Valid() {
		t.Fatalf("unknown status must not validate")
	}
}

func TestCancellationReasonValidation(t *testing.T) {
	for _, reason := range CancellationReasons {
		if !reason.Valid() {
			t.Fatalf("enumerated reason %q did not validate", reason)
		}
	}
	for _, bad := range []CancellationReason{"", "rain", "SCHOOL_SHUTDOWN", "other"} {
		if bad.Valid() {
			t.Fatalf("reason %q should be rejected", bad)
		}
	}
}

func TestTransitionRequestValidation(t *testing.T) {
	attendance := uint(42)

	tests := []struct {
		name   string
		req    TransitionRequest
		expErr error
	}{
		{
			name: "conducted without attendance",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusConducted,
			},
			expErr: ErrAttendanceRequired,
		},
		{
			name: "conducted with attendance",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusConducted,
				AttendanceID: &attendance,
			},
		},
		{
			name: "cancelled without reason",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusCancelled,
			},
			expErr: ErrInvalidCancellationReason,
		},
		{
			name: "cancelled with unknown reason",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusCancelled,
				Reason: "weather",
			},
			expErr: ErrInvalidCancellationReason,
		},
		{
			name: "cancelled with enumerated reason",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusCancelled,
				Reason: ReasonExamPeriod,
			},
		},
		{
			name: "holiday needs no payload",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: StatusHoliday,
			},
		},
		{
			name: "out of conducted is rejected",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusConducted, To: StatusHoliday,
			},
			expErr: ErrInvalidTransition,
		},
		{
			name: "unknown target status",
			req: TransitionRequest{
				ClassID: 1, DayNumber: 5,
				From: StatusPending, To: Status("rescheduled"),
			},
			expErr: ErrInvalidTransition,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.validate()
			if tc.expErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("expected %v, got %v", tc.expErr, err)
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransitionError, got %T", err)
			}
			if te.ClassID != tc.req.ClassID || te.DayNumber != tc.req.DayNumber {
				t.Fatalf("error lost class/day detail: %+v", te)
			}
		})
	}
}
