package sequence

import (
	"errors"
	"testing"

	"clas_go/models"
)

func TestInspectCompleteSet(t *testing.T) {
	records := buildRecords(DefaultLength, nil)

	report := inspect(1, records, DefaultLength)
	if report.Checked != DefaultLength {
		t.Fatalf("expected %d checked, got %d", DefaultLength, report.Checked)
	}
	if len(report.GapsFound) != 0 || len(report.Duplicates) != 0 || len(report.OutOfRange) != 0 {
		t.Fatalf("complete set reported findings: %+v", report)
	}
	if report.Corrupted {
		t.Fatalf("complete set flagged corrupted")
	}
	if err := report.Err(); err != nil {
		t.Fatalf("unexpected corruption error: %v", err)
	}
}

func TestInspectFindsGap(t *testing.T) {
	records := buildRecords(DefaultLength, nil)
	// Drop day 75.
	var holed []models.SessionRecord
	for _, rec := range records {
		if rec.DayNumber == 75 {
			continue
		}
		holed = append(holed, rec)
	}

	report := inspect(1, holed, DefaultLength)
	if len(report.GapsFound) != 1 || report.GapsFound[0] != 75 {
		t.Fatalf("expected gap at 75, got %v", report.GapsFound)
	}
	if report.Corrupted {
		t.Fatalf("a gap alone is repairable, not corruption")
	}
}

func TestInspectFindsDuplicates(t *testing.T) {
	records := buildRecords(DefaultLength, nil)
	records = append(records, models.SessionRecord{ClassID: 1, DayNumber: 10, Status: string(StatusPending)})

	report := inspect(1, records, DefaultLength)
	if len(report.Duplicates) != 1 {
		t.Fatalf("expected one duplicate finding, got %v", report.Duplicates)
	}
	if report.Duplicates[0].DayNumber != 10 || report.Duplicates[0].Count != 2 {
		t.Fatalf("unexpected duplicate finding: %+v", report.Duplicates[0])
	}
	if !report.Corrupted {
		t.Fatalf("duplicates must flag the set corrupted")
	}

	err := report.Err()
	if !errors.Is(err, ErrSequenceCorruption) {
		t.Fatalf("expected ErrSequenceCorruption, got %v", err)
	}
	var ce *CorruptionError
	if !errors.As(err, &ce) || len(ce.Duplicates) != 1 || ce.Duplicates[0] != 10 {
		t.Fatalf("corruption error lost detail: %v", err)
	}
}

func TestInspectFindsOutOfRange(t *testing.T) {
	records := buildRecords(DefaultLength, nil)
	records = append(records,
		models.SessionRecord{ClassID: 1, DayNumber: 0, Status: string(StatusPending)},
		models.SessionRecord{ClassID: 1, DayNumber: 151, Status: string(StatusPending)},
	)

	report := inspect(1, records, DefaultLength)
	if len(report.OutOfRange) != 2 {
		t.Fatalf("expected two out-of-range findings, got %v", report.OutOfRange)
	}
	if !report.Corrupted {
		t.Fatalf("out-of-range days must flag the set corrupted")
	}
	// The full 1..150 range is still covered; no gaps from the strays.
	if len(report.GapsFound) != 0 {
		t.Fatalf("unexpected gaps: %v", report.GapsFound)
	}
}

func TestInspectEmptySet(t *testing.T) {
	report := inspect(9, nil, DefaultLength)
	if len(report.GapsFound) != DefaultLength {
		t.Fatalf("empty set should report every day as a gap, got %d", len(report.GapsFound))
	}
	if report.Corrupted {
		t.Fatalf("an ungenerated class is not corrupt")
	}
}
