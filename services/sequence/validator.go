package sequence

import (
	"encoding/json"
	"time"

	"clas_go/database"
	"clas_go/models"

	"gorm.io/gorm"
)

// Validator audits a class's record set against the completeness invariant:
// exactly one record per day 1..length, no duplicates, no gaps. Gaps are
// repairable (the generator fills them); duplicates and out-of-range days are
// reported for manual resolution. The validator never deletes data.
type Validator struct {
	db     *gorm.DB
	gen    *Generator
	length int
}

// NewValidator creates a validator bound to the application database.
func NewValidator() *Validator {
	return &Validator{db: database.DB, gen: NewGenerator(), length: Length()}
}

// DuplicateFinding reports one day number carried by multiple records.
type DuplicateFinding struct {
	DayNumber int `json:"day_number"`
	Count     int `json:"count"`
}

// IntegrityReport is the structured outcome of one audit run.
type IntegrityReport struct {
	ClassID      uint               `json:"class_id"`
	Checked      int                `json:"checked"`
	GapsFound    []int              `json:"gaps_found"`
	GapsRepaired int                `json:"gaps_repaired"`
	Duplicates   []DuplicateFinding `json:"duplicates"`
	OutOfRange   []int              `json:"out_of_range"`
	Corrupted    bool               `json:"corrupted"`
	CheckedAt    time.Time          `json:"checked_at"`
}

// Err converts corruption findings into a CorruptionError, or nil when the
// record set is structurally sound (gaps alone are repairable, not corrupt).
func (r *IntegrityReport) Err() error {
	if !r.Corrupted {
		return nil
	}
	dup := make([]int, 0, len(r.Duplicates))
	for _, f := range r.Duplicates {
		dup = append(dup, f.DayNumber)
	}
	return &CorruptionError{ClassID: r.ClassID, Duplicates: dup, OutOfRange: r.OutOfRange}
}

// Audit inspects one class's records and, when repair is requested and the set
// is otherwise sound, fills gaps through the generator's idempotent path.
func (v *Validator) Audit(classID uint, actorID uint, repair bool) (*IntegrityReport, error) {
	var records []models.SessionRecord
	if err := v.db.Where("class_id = ?", classID).Find(&records).Error; err != nil {
		return nil, err
	}

	report := inspect(classID, records, v.length)

	if repair && len(report.GapsFound) > 0 && !report.Corrupted {
		result, err := v.gen.Generate(classID, actorID)
		if err != nil {
			return report, err
		}
		report.GapsRepaired = result.Created
	}

	details, _ := json.Marshal(report)
	entry := models.AuditLog{
		UserID:   actorID,
		Action:   "INTEGRITY_AUDIT",
		Resource: "session_records",
		ClassID:  &report.ClassID,
		Details:  details,
	}
	if err := v.db.Create(&entry).Error; err != nil {
		return report, err
	}

	return report, nil
}

// ClassIDs returns the ids of all active classes, for scheduled audits.
func (v *Validator) ClassIDs() ([]uint, error) {
	var ids []uint
	err := v.db.Model(&models.Class{}).
		Where("status = ?", "active").
		Pluck("id", &ids).Error
	return ids, err
}

// inspect computes the integrity findings for a record set without touching
// storage.
func inspect(classID uint, records []models.SessionRecord, length int) *IntegrityReport {
	report := &IntegrityReport{
		ClassID:    classID,
		Checked:    len(records),
		GapsFound:  []int{},
		Duplicates: []DuplicateFinding{},
		OutOfRange: []int{},
		CheckedAt:  time.Now(),
	}

	counts := map[int]int{}
	for _, rec := range records {
		if rec.DayNumber < 1 || rec.DayNumber > length {
			report.OutOfRange = append(report.OutOfRange, rec.DayNumber)
			continue
		}
		counts[rec.DayNumber]++
	}

	for day := 1; day <= length; day++ {
		switch {
		case counts[day] == 0:
			report.GapsFound = append(report.GapsFound, day)
		case counts[day] > 1:
			report.Duplicates = append(report.Duplicates, DuplicateFinding{DayNumber: day, Count: counts[day]})
		}
	}

	report.Corrupted = len(report.Duplicates) > 0 || len(report.OutOfRange) > 0
	return report
}
