package sequence

import (
	"encoding/json"
	"errors"
	"time"

	"clas_go/database"
	"clas_go/models"

	"gorm.io/gorm"
)

// Manager validates and applies status transitions for single session records.
// Writes are guarded by an optimistic version stamp: when two requests race on
// the same record, exactly one succeeds and the loser observes
// ConcurrentModification and must retry against fresh state.
type Manager struct {
	db *gorm.DB
}

// NewManager creates a manager bound to the application database.
func NewManager() *Manager {
	return &Manager{db: database.DB}
}

// TransitionRequest describes one attempted status change.
type TransitionRequest struct {
	ClassID      uint
	DayNumber    int
	From         Status // status the caller observed when deciding to transition
	To           Status
	Version      uint // version the caller observed; 0 skips the version check
	Reason       CancellationReason
	AttendanceID *uint
	ActorID      uint
}

// validate checks the request against the transition table and the
// per-target preconditions, without touching storage.
func (req *TransitionRequest) validate() error {
	if !req.From.Valid() || !req.To.Valid() {
		return &TransitionError{
			ClassID: req.ClassID, DayNumber: req.DayNumber,
			From: req.From, To: req.To, Err: ErrInvalidTransition,
		}
	}
	if !TransitionAllowed(req.From, req.To) {
		return &TransitionError{
			ClassID: req.ClassID, DayNumber: req.DayNumber,
			From: req.From, To: req.To, Err: ErrInvalidTransition,
		}
	}
	switch req.To {
	case StatusConducted:
		if req.AttendanceID == nil {
			return &TransitionError{
				ClassID: req.ClassID, DayNumber: req.DayNumber,
				From: req.From, To: req.To, Err: ErrAttendanceRequired,
			}
		}
	case StatusCancelled:
		if !req.Reason.Valid() {
			return &TransitionError{
				ClassID: req.ClassID, DayNumber: req.DayNumber,
				From: req.From, To: req.To, Err: ErrInvalidCancellationReason,
			}
		}
	}
	return nil
}

// Transition applies a single validated status change. The record's status is
// unchanged on any error. At most one of two racing transitions succeeds.
func (m *Manager) Transition(req TransitionRequest) (*models.SessionRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var updated models.SessionRecord
	err := m.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":            string(req.To),
			"version":           gorm.Expr("version + 1"),
			"status_changed_at": now,
			"status_changed_by": req.ActorID,
		}
		if req.To == StatusCancelled {
			updates["cancellation_reason"] = string(req.Reason)
		} else {
			updates["cancellation_reason"] = ""
		}
		if req.AttendanceID != nil {
			updates["attendance_id"] = *req.AttendanceID
		}

		// Compare-and-swap on (class, day, observed status, observed version).
		q := tx.Model(&models.SessionRecord{}).
			Where("class_id = ? AND day_number = ? AND status = ?",
				req.ClassID, req.DayNumber, string(req.From))
		if req.Version > 0 {
			q = q.Where("version = ?", req.Version)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Re-read to distinguish a stale read from a missing record.
			var current models.SessionRecord
			readErr := tx.Where("class_id = ? AND day_number = ?", req.ClassID, req.DayNumber).
				First(&current).Error
			return resolveMiss(req, current, readErr)
		}

		if err := tx.Where("class_id = ? AND day_number = ?", req.ClassID, req.DayNumber).
			First(&updated).Error; err != nil {
			return err
		}

		return m.writeAudit(tx, req, &updated)
	})
	if err != nil {
		return nil, err
	}

	InvalidateCurrent(req.ClassID)
	return &updated, nil
}

// resolveMiss classifies a compare-and-swap that matched no rows, using the
// re-read state: either the record never existed, or it changed after the
// caller read it. Of two racing writers, exactly the loser takes this path.
func resolveMiss(req TransitionRequest, current models.SessionRecord, readErr error) error {
	if errors.Is(readErr, gorm.ErrRecordNotFound) {
		return &UninitializedError{ClassID: req.ClassID}
	}
	if readErr != nil {
		return readErr
	}
	return &TransitionError{
		ClassID: req.ClassID, DayNumber: req.DayNumber,
		From: req.From, To: req.To,
		Expected: req.From, Actual: Status(current.Status),
		Err: ErrConcurrentModification,
	}
}

// transitionAudit builds the one audit entry recorded for a transition. It is
// written inside the same transaction as the status change; no other layer
// audits transitions.
func transitionAudit(req TransitionRequest, rec *models.SessionRecord) models.AuditLog {
	details, _ := json.Marshal(map[string]interface{}{
		"version":       rec.Version,
		"attendance_id": req.AttendanceID,
	})
	day := req.DayNumber
	return models.AuditLog{
		UserID:     req.ActorID,
		Action:     "TRANSITION",
		Resource:   "session_records",
		ResourceID: rec.ID,
		ClassID:    &req.ClassID,
		DayNumber:  &day,
		FromStatus: string(req.From),
		ToStatus:   string(req.To),
		Reason:     string(req.Reason),
		Details:    details,
	}
}

func (m *Manager) writeAudit(tx *gorm.DB, req TransitionRequest, rec *models.SessionRecord) error {
	entry := transitionAudit(req, rec)
	return tx.Create(&entry).Error
}
