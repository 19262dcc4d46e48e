package sequence

import (
	"encoding/json"
	"testing"

	"clas_go/config"
	"clas_go/models"
)

func TestLength(t *testing.T) {
	saved := config.AppConfig
	defer func() { config.AppConfig = saved }()

	config.AppConfig = nil
	if got := Length(); got != DefaultLength {
		t.Fatalf("expected default %d without config, got %d", DefaultLength, got)
	}

	config.AppConfig = &config.Config{SequenceLength: 90}
	if got := Length(); got != 90 {
		t.Fatalf("expected configured length 90, got %d", got)
	}

	config.AppConfig = &config.Config{}
	if got := Length(); got != DefaultLength {
		t.Fatalf("zero configured length must fall back to %d, got %d", DefaultLength, got)
	}
}

func TestGenerationAuditEntry(t *testing.T) {
	templateID := uint(6)
	result := &GenerationResult{ClassID: 14, Created: 150, TemplateID: &templateID}

	entry := generationAudit(42, result)

	if entry.Action != "GENERATE" || entry.Resource != "session_records" {
		t.Fatalf("wrong action/resource: %s %s", entry.Action, entry.Resource)
	}
	if entry.UserID != 42 {
		t.Fatalf("wrong actor: %d", entry.UserID)
	}
	if entry.ClassID == nil || *entry.ClassID != 14 {
		t.Fatalf("class id not carried onto the entry")
	}

	var details GenerationResult
	if err := json.Unmarshal(entry.Details, &details); err != nil {
		t.Fatalf("details must be valid JSON: %v", err)
	}
	if details.Created != 150 || details.TemplateID == nil || *details.TemplateID != 6 {
		t.Fatalf("details must record the run outcome, got %+v", details)
	}
}

func TestMissingDays(t *testing.T) {
	tests := []struct {
		name    string
		present []int
		length  int
		exp     []int
	}{
		{
			name:    "empty set misses everything",
			present: nil,
			length:  5,
			exp:     []int{1, 2, 3, 4, 5},
		},
		{
			name:    "complete set misses nothing",
			present: []int{1, 2, 3, 4, 5},
			length:  5,
			exp:     nil,
		},
		{
			name:    "single gap in the middle",
			present: []int{1, 2, 4, 5},
			length:  5,
			exp:     []int{3},
		},
		{
			name:    "only day one present",
			present: []int{1},
			length:  5,
			exp:     []int{2, 3, 4, 5},
		},
		{
			name:    "out of range days do not cover anything",
			present: []int{0, 6, 200},
			length:  5,
			exp:     []int{1, 2, 3, 4, 5},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := missingDays(tc.present, tc.length)
			if len(got) != len(tc.exp) {
				t.Fatalf("expected %v, got %v", tc.exp, got)
			}
			for i := range got {
				if got[i] != tc.exp[i] {
					t.Fatalf("expected %v, got %v", tc.exp, got)
				}
			}
		})
	}
}

func TestMissingDaysIdempotent(t *testing.T) {
	// Filling the gaps once leaves nothing to fill on a second pass.
	present := []int{1, 3, 7}
	first := missingDays(present, 10)
	combined := append(append([]int{}, present...), first...)
	if second := missingDays(combined, 10); len(second) != 0 {
		t.Fatalf("second fill pass should be empty, got %v", second)
	}
}

func TestDuplicateDays(t *testing.T) {
	records := []models.SessionRecord{
		{ClassID: 1, DayNumber: 1},
		{ClassID: 1, DayNumber: 2},
		{ClassID: 1, DayNumber: 2},
		{ClassID: 1, DayNumber: 9},
		{ClassID: 1, DayNumber: 9},
		{ClassID: 1, DayNumber: 9},
	}

	dup := duplicateDays(records)
	if len(dup) != 2 || dup[0] != 2 || dup[1] != 9 {
		t.Fatalf("expected duplicates [2 9], got %v", dup)
	}

	if dup := duplicateDays(records[:2]); len(dup) != 0 {
		t.Fatalf("expected no duplicates, got %v", dup)
	}
}

func TestPlanRecords(t *testing.T) {
	templateID := uint(3)
	class := models.Class{
		BaseModel:  models.BaseModel{ID: 11},
		Language:   "hindi",
		TemplateID: &templateID,
	}
	items := map[int]models.SequenceTemplateItem{
		2: {BaseModel: models.BaseModel{ID: 21}, TemplateID: templateID, DayNumber: 2, ContentRef: "unit-1/day-2"},
	}

	batch := planRecords(class, []int{2, 3}, items)
	if len(batch) != 2 {
		t.Fatalf("expected 2 planned records, got %d", len(batch))
	}

	for _, rec := range batch {
		if rec.ClassID != 11 {
			t.Fatalf("wrong class id: %d", rec.ClassID)
		}
		if rec.Status != string(StatusPending) {
			t.Fatalf("planned record must be pending, got %q", rec.Status)
		}
		if rec.Language != "hindi" {
			t.Fatalf("language not carried over: %q", rec.Language)
		}
		if rec.Version != 1 {
			t.Fatalf("new records start at version 1, got %d", rec.Version)
		}
	}

	if batch[0].TemplateItemID == nil || *batch[0].TemplateItemID != 21 {
		t.Fatalf("day 2 should link to template item 21")
	}
	if batch[0].ContentRef != "unit-1/day-2" {
		t.Fatalf("day 2 content ref not applied: %q", batch[0].ContentRef)
	}
	if batch[1].TemplateItemID != nil {
		t.Fatalf("day 3 has no template item and should stay unlinked")
	}
}

func TestGapFillPlanLeavesExistingUntouched(t *testing.T) {
	// A class with only day 1 present (already conducted): the plan covers
	// days 2..150 and never includes day 1.
	existing := []models.SessionRecord{
		{ClassID: 5, DayNumber: 1, Status: string(StatusConducted)},
	}

	missing := missingDays(dayNumbers(existing), DefaultLength)
	if len(missing) != DefaultLength-1 {
		t.Fatalf("expected %d missing days, got %d", DefaultLength-1, len(missing))
	}
	for _, day := range missing {
		if day == 1 {
			t.Fatalf("day 1 must not be regenerated")
		}
	}

	batch := planRecords(models.Class{BaseModel: models.BaseModel{ID: 5}}, missing, nil)
	days := map[int]bool{1: true}
	for _, rec := range batch {
		if days[rec.DayNumber] {
			t.Fatalf("duplicate day %d in plan", rec.DayNumber)
		}
		days[rec.DayNumber] = true
	}
	for day := 1; day <= DefaultLength; day++ {
		if !days[day] {
			t.Fatalf("day %d missing after fill", day)
		}
	}
}
