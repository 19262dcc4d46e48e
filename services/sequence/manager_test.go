package sequence

import (
	"encoding/json"
	"errors"
	"testing"

	"clas_go/models"

	"gorm.io/gorm"
)

func TestResolveMiss(t *testing.T) {
	attendance := uint(7)
	req := TransitionRequest{
		ClassID: 4, DayNumber: 12,
		From: StatusPending, To: StatusConducted,
		Version: 1, AttendanceID: &attendance,
	}

	tests := []struct {
		name      string
		current   models.SessionRecord
		readErr   error
		expErr    error
		expActual Status
	}{
		{
			name:    "record missing entirely",
			readErr: gorm.ErrRecordNotFound,
			expErr:  ErrSequenceUninitialized,
		},
		{
			name:      "status changed since read",
			current:   models.SessionRecord{ClassID: 4, DayNumber: 12, Status: string(StatusCancelled), Version: 2},
			expErr:    ErrConcurrentModification,
			expActual: StatusCancelled,
		},
		{
			name:      "same status but newer version",
			current:   models.SessionRecord{ClassID: 4, DayNumber: 12, Status: string(StatusPending), Version: 3},
			expErr:    ErrConcurrentModification,
			expActual: StatusPending,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := resolveMiss(req, tc.current, tc.readErr)
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("expected %v, got %v", tc.expErr, err)
			}

			if tc.expErr != ErrConcurrentModification {
				return
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("expected TransitionError, got %T", err)
			}
			if te.ClassID != 4 || te.DayNumber != 12 {
				t.Fatalf("wrong target: class %d day %d", te.ClassID, te.DayNumber)
			}
			if te.Expected != StatusPending || te.Actual != tc.expActual {
				t.Fatalf("expected %q/%q, got %q/%q", StatusPending, tc.expActual, te.Expected, te.Actual)
			}
		})
	}
}

func TestResolveMissPropagatesReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	err := resolveMiss(TransitionRequest{ClassID: 1, DayNumber: 1}, models.SessionRecord{}, readErr)
	if !errors.Is(err, readErr) {
		t.Fatalf("read error must pass through, got %v", err)
	}
}

func TestRacingTransitionsOneWinner(t *testing.T) {
	// Two writers read the same pending record at version 1. The first update
	// matches the stored state and wins; the second re-reads the bumped record
	// and must come away with ConcurrentModification.
	stored := models.SessionRecord{ClassID: 9, DayNumber: 30, Status: string(StatusPending), Version: 1}

	first := TransitionRequest{
		ClassID: 9, DayNumber: 30,
		From: StatusPending, To: StatusHoliday, Version: 1,
	}
	second := TransitionRequest{
		ClassID: 9, DayNumber: 30,
		From: StatusPending, To: StatusCancelled, Version: 1,
		Reason: ReasonExamPeriod,
	}
	if err := first.validate(); err != nil {
		t.Fatalf("first request must be valid: %v", err)
	}
	if err := second.validate(); err != nil {
		t.Fatalf("second request must be valid: %v", err)
	}

	// First writer's CAS matched: apply its effect.
	stored.Status = string(first.To)
	stored.Version++

	// Second writer's CAS now matches nothing; it re-reads and loses.
	err := resolveMiss(second, stored, nil)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("loser must observe concurrent modification, got %v", err)
	}
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if te.Expected != StatusPending || te.Actual != StatusHoliday {
		t.Fatalf("loser should see expected %q actual %q, got %q/%q",
			StatusPending, StatusHoliday, te.Expected, te.Actual)
	}
}

func TestTransitionAuditEntry(t *testing.T) {
	attendance := uint(55)
	req := TransitionRequest{
		ClassID: 3, DayNumber: 17,
		From: StatusPending, To: StatusConducted,
		AttendanceID: &attendance, ActorID: 8,
	}
	rec := &models.SessionRecord{
		BaseModel: models.BaseModel{ID: 301},
		ClassID:   3, DayNumber: 17,
		Status: string(StatusConducted), Version: 2,
	}

	entry := transitionAudit(req, rec)

	if entry.Action != "TRANSITION" || entry.Resource != "session_records" {
		t.Fatalf("wrong action/resource: %s %s", entry.Action, entry.Resource)
	}
	if entry.UserID != 8 || entry.ResourceID != 301 {
		t.Fatalf("wrong actor/resource id: %d %d", entry.UserID, entry.ResourceID)
	}
	if entry.ClassID == nil || *entry.ClassID != 3 || entry.DayNumber == nil || *entry.DayNumber != 17 {
		t.Fatalf("class/day not carried onto the entry")
	}
	if entry.FromStatus != string(StatusPending) || entry.ToStatus != string(StatusConducted) {
		t.Fatalf("wrong statuses: %s -> %s", entry.FromStatus, entry.ToStatus)
	}

	var details map[string]interface{}
	if err := json.Unmarshal(entry.Details, &details); err != nil {
		t.Fatalf("details must be valid JSON: %v", err)
	}
	if details["version"].(float64) != 2 {
		t.Fatalf("details must record the post-transition version, got %v", details["version"])
	}
}
