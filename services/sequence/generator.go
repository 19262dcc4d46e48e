package sequence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"clas_go/config"
	"clas_go/database"
	"clas_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLength is the number of curriculum days a full sequence covers.
const DefaultLength = 150

// Generator bulk-creates a class's session records. Generation is idempotent:
// a second run fills only the missing day numbers and never touches existing
// rows. The whole operation runs under an exclusive lock on the class's
// record set, because it reasons about the full 1..N range.
type Generator struct {
	db     *gorm.DB
	length int
}

// Length returns the configured sequence length, falling back to
// DefaultLength. Generation, validation, and template import all bound day
// numbers by this value.
func Length() int {
	if config.AppConfig != nil && config.AppConfig.SequenceLength > 0 {
		return config.AppConfig.SequenceLength
	}
	return DefaultLength
}

// NewGenerator creates a generator bound to the application database.
func NewGenerator() *Generator {
	return &Generator{db: database.DB, length: Length()}
}

// GenerationResult reports what one generation run did.
type GenerationResult struct {
	ClassID    uint  `json:"class_id"`
	Created    int   `json:"created"`
	Existing   int   `json:"existing"`
	TemplateID *uint `json:"template_id,omitempty"`
}

// Generate ensures the class has exactly one pending record per missing day in
// 1..length, applying the class's active template content where available.
// Duplicate rows for any day abort the run with GenerationConflictError so the
// damage gets explicit integrity review instead of silent repair.
func (g *Generator) Generate(classID uint, actorID uint) (*GenerationResult, error) {
	result := &GenerationResult{ClassID: classID}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.First(&class, classID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("class %d not found", classID)
			}
			return err
		}
		result.TemplateID = class.TemplateID

		// Exclusive access to this class's record set for the whole run.
		var records []models.SessionRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("class_id = ?", classID).
			Find(&records).Error; err != nil {
			return err
		}

		if dup := duplicateDays(records); len(dup) > 0 {
			return &GenerationConflictError{ClassID: classID, Days: dup}
		}

		result.Existing = len(records)
		missing := missingDays(dayNumbers(records), g.length)
		if len(missing) == 0 {
			return g.writeAudit(tx, actorID, result)
		}

		items := map[int]models.SequenceTemplateItem{}
		if class.TemplateID != nil {
			var templateItems []models.SequenceTemplateItem
			if err := tx.Where("template_id = ?", *class.TemplateID).
				Find(&templateItems).Error; err != nil {
				return err
			}
			for _, item := range templateItems {
				items[item.DayNumber] = item
			}
		}

		batch := planRecords(class, missing, items)
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		result.Created = len(batch)

		return g.writeAudit(tx, actorID, result)
	})
	if err != nil {
		return nil, err
	}

	InvalidateCurrent(classID)
	return result, nil
}

// generationAudit builds the one audit entry recorded for a generation run.
// It is written inside the generation transaction; no other layer audits
// generation.
func generationAudit(actorID uint, result *GenerationResult) models.AuditLog {
	details, _ := json.Marshal(result)
	return models.AuditLog{
		UserID:   actorID,
		Action:   "GENERATE",
		Resource: "session_records",
		ClassID:  &result.ClassID,
		Details:  details,
	}
}

func (g *Generator) writeAudit(tx *gorm.DB, actorID uint, result *GenerationResult) error {
	entry := generationAudit(actorID, result)
	return tx.Create(&entry).Error
}

// dayNumbers extracts the day numbers present in a record set.
func dayNumbers(records []models.SessionRecord) []int {
	days := make([]int, 0, len(records))
	for _, rec := range records {
		days = append(days, rec.DayNumber)
	}
	return days
}

// duplicateDays returns day numbers that appear on two or more records.
func duplicateDays(records []models.SessionRecord) []int {
	counts := map[int]int{}
	for _, rec := range records {
		counts[rec.DayNumber]++
	}
	var dup []int
	for day, n := range counts {
		if n > 1 {
			dup = append(dup, day)
		}
	}
	sort.Ints(dup)
	return dup
}

// missingDays returns the days of 1..length absent from present.
func missingDays(present []int, length int) []int {
	seen := map[int]bool{}
	for _, day := range present {
		seen[day] = true
	}
	var missing []int
	for day := 1; day <= length; day++ {
		if !seen[day] {
			missing = append(missing, day)
		}
	}
	return missing
}

// planRecords builds pending records for the missing days, attaching template
// content where the template defines it.
func planRecords(class models.Class, missing []int, items map[int]models.SequenceTemplateItem) []models.SessionRecord {
	batch := make([]models.SessionRecord, 0, len(missing))
	for _, day := range missing {
		rec := models.SessionRecord{
			ClassID:   class.ID,
			DayNumber: day,
			Status:    string(StatusPending),
			Language:  class.Language,
			Version:   1,
		}
		if item, ok := items[day]; ok {
			itemID := item.ID
			rec.TemplateItemID = &itemID
			rec.ContentRef = item.ContentRef
		}
		batch = append(batch, rec)
	}
	return batch
}
