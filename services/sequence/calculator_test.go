package sequence

import (
	"errors"
	"testing"

	"clas_go/models"
)

// buildRecords creates a full sequence of records with the given status
// overrides; every other day is pending.
func buildRecords(length int, overrides map[int]Status) []models.SessionRecord {
	records := make([]models.SessionRecord, 0, length)
	for day := 1; day <= length; day++ {
		status := StatusPending
		if s, ok := overrides[day]; ok {
			status = s
		}
		records = append(records, models.SessionRecord{
			ClassID:   1,
			DayNumber: day,
			Status:    string(status),
			Version:   1,
		})
	}
	return records
}

func TestCurrentSession(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[int]Status
		expDay    int
	}{
		{
			name:      "fresh sequence starts at day 1",
			overrides: nil,
			expDay:    1,
		},
		{
			name: "conducted days advance the pointer",
			overrides: map[int]Status{
				1: StatusConducted, 2: StatusConducted, 3: StatusConducted,
			},
			expDay: 4,
		},
		{
			name: "cancelled days advance the pointer",
			overrides: map[int]Status{
				1: StatusConducted, 2: StatusCancelled,
			},
			expDay: 3,
		},
		{
			name: "holiday day stays current",
			overrides: map[int]Status{
				1: StatusHoliday,
			},
			expDay: 1,
		},
		{
			name: "holiday behind conducted days stays current",
			overrides: map[int]Status{
				1: StatusConducted, 2: StatusHoliday, 3: StatusConducted,
			},
			expDay: 2,
		},
		{
			name: "lowest pending wins over later holidays",
			overrides: map[int]Status{
				1: StatusConducted, 5: StatusHoliday,
			},
			expDay: 2,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			records := buildRecords(DefaultLength, tc.overrides)
			current, err := CurrentSession(1, records)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if current.DayNumber != tc.expDay {
				t.Fatalf("expected day %d, got %d", tc.expDay, current.DayNumber)
			}
		})
	}
}

func TestCurrentSessionUninitialized(t *testing.T) {
	_, err := CurrentSession(7, nil)
	if !errors.Is(err, ErrSequenceUninitialized) {
		t.Fatalf("expected ErrSequenceUninitialized, got %v", err)
	}
	var uninit *UninitializedError
	if !errors.As(err, &uninit) || uninit.ClassID != 7 {
		t.Fatalf("expected UninitializedError for class 7, got %v", err)
	}
}

func TestCurrentSessionAllComplete(t *testing.T) {
	overrides := map[int]Status{}
	for day := 1; day <= DefaultLength; day++ {
		if day%3 == 0 {
			overrides[day] = StatusCancelled
		} else {
			overrides[day] = StatusConducted
		}
	}
	records := buildRecords(DefaultLength, overrides)

	_, err := CurrentSession(1, records)
	if !errors.Is(err, ErrAllSessionsComplete) {
		t.Fatalf("expected ErrAllSessionsComplete, got %v", err)
	}
}

func TestCurrentSessionAdvancesMonotonically(t *testing.T) {
	overrides := map[int]Status{}
	records := buildRecords(DefaultLength, overrides)

	last := 0
	for i := 0; i < DefaultLength; i++ {
		current, err := CurrentSession(1, records)
		if err != nil {
			if errors.Is(err, ErrAllSessionsComplete) {
				break
			}
			t.Fatalf("unexpected error at step %d: %v", i, err)
		}
		if current.DayNumber <= last {
			t.Fatalf("current day did not advance: %d after %d", current.DayNumber, last)
		}
		last = current.DayNumber

		// Alternate conducted/cancelled to close out the day.
		next := StatusConducted
		if i%2 == 1 {
			next = StatusCancelled
		}
		records[current.DayNumber-1].Status = string(next)
	}
	if last != DefaultLength {
		t.Fatalf("expected to finish at day %d, stopped at %d", DefaultLength, last)
	}
}

func TestBuildState(t *testing.T) {
	records := buildRecords(DefaultLength, map[int]Status{
		1: StatusConducted,
		2: StatusHoliday,
		3: StatusCancelled,
	})

	st := BuildState(1, records)
	if st.CurrentDay != 2 {
		t.Fatalf("expected current day 2, got %d", st.CurrentDay)
	}
	if len(st.Conducted) != 1 || st.Conducted[0] != 1 {
		t.Fatalf("unexpected conducted set: %v", st.Conducted)
	}
	if len(st.Holiday) != 1 || st.Holiday[0] != 2 {
		t.Fatalf("unexpected holiday set: %v", st.Holiday)
	}
	if len(st.Cancelled) != 1 || st.Cancelled[0] != 3 {
		t.Fatalf("unexpected cancelled set: %v", st.Cancelled)
	}
	if st.Remaining != DefaultLength-2 {
		t.Fatalf("expected %d remaining, got %d", DefaultLength-2, st.Remaining)
	}
	if st.Complete {
		t.Fatalf("sequence should not be complete")
	}
}
