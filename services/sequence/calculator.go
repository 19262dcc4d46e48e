package sequence

import (
	"clas_go/models"
)

// CurrentSession computes "today's session" for a class: the record with the
// lowest day number whose status is neither conducted nor cancelled. A holiday
// day stays current until it is explicitly re-marked, so facilitators revisit
// it instead of skipping forward. Lowest day number always wins; there is no
// secondary ordering criterion.
//
// Returns UninitializedError when the class has no records at all, and
// CompleteError when every day is conducted or cancelled.
func CurrentSession(classID uint, records []models.SessionRecord) (*models.SessionRecord, error) {
	if len(records) == 0 {
		return nil, &UninitializedError{ClassID: classID}
	}

	var current *models.SessionRecord
	for i := range records {
		rec := &records[i]
		if Status(rec.Status).Done() {
			continue
		}
		if current == nil || rec.DayNumber < current.DayNumber {
			current = rec
		}
	}

	if current == nil {
		return nil, &CompleteError{ClassID: classID}
	}
	return current, nil
}

// State is the derived (never persisted) view of a class's progress.
type State struct {
	ClassID    uint  `json:"class_id"`
	Conducted  []int `json:"conducted"`
	Holiday    []int `json:"holiday"`
	Cancelled  []int `json:"cancelled"`
	Pending    []int `json:"pending"`
	CurrentDay int   `json:"current_day"` // 0 when complete or uninitialized
	Remaining  int   `json:"remaining"`
	Complete   bool  `json:"complete"`
}

// BuildState folds a class's records into a State summary.
func BuildState(classID uint, records []models.SessionRecord) State {
	st := State{
		ClassID:   classID,
		Conducted: []int{},
		Holiday:   []int{},
		Cancelled: []int{},
		Pending:   []int{},
	}

	for _, rec := range records {
		switch Status(rec.Status) {
		case StatusConducted:
			st.Conducted = append(st.Conducted, rec.DayNumber)
		case StatusHoliday:
			st.Holiday = append(st.Holiday, rec.DayNumber)
		case StatusCancelled:
			st.Cancelled = append(st.Cancelled, rec.DayNumber)
		default:
			st.Pending = append(st.Pending, rec.DayNumber)
		}
	}

	st.Remaining = len(st.Pending) + len(st.Holiday)
	if current, err := CurrentSession(classID, records); err == nil {
		st.CurrentDay = current.DayNumber
	} else if len(records) > 0 {
		st.Complete = true
	}
	return st
}
