package sequence

// Status is the lifecycle state of a single session record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConducted Status = "conducted"
	StatusHoliday   Status = "holiday"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConducted, StatusHoliday, StatusCancelled:
		return true
	}
	return false
}

// Done reports whether s counts as finished for sequence progress.
// Holiday is completion-exempt: a holiday day remains eligible to be the
// current session until it is explicitly conducted or cancelled.
func (s Status) Done() bool {
	return s == StatusConducted || s == StatusCancelled
}

// Terminal reports whether no further transitions may leave s.
func (s Status) Terminal() bool {
	return s == StatusConducted || s == StatusCancelled
}

// CancellationReason is the fixed set of reasons accepted for cancellations.
type CancellationReason string

const (
	ReasonSchoolShutdown CancellationReason = "school_shutdown"
	ReasonSyllabusChange CancellationReason = "syllabus_change"
	ReasonExamPeriod     CancellationReason = "exam_period"
	ReasonDuplicate      CancellationReason = "duplicate"
	ReasonEmergency      CancellationReason = "emergency"
)

// CancellationReasons lists all accepted reasons, for validation and API docs.
var CancellationReasons = []CancellationReason{
	ReasonSchoolShutdown,
	ReasonSyllabusChange,
	ReasonExamPeriod,
	ReasonDuplicate,
	ReasonEmergency,
}

// Valid reports whether r is one of the enumerated cancellation reasons.
func (r CancellationReason) Valid() bool {
	for _, known := range CancellationReasons {
		if r == known {
			return true
		}
	}
	return false
}

// transition is a single allowed edge in the session status state machine.
type transition struct {
	From Status
	To   Status
}

// Every transition must be validated against this table; conducted and
// cancelled have no outgoing edges. Administrative overrides bypass the
// core on purpose and are audited separately.
var transitionTable = []transition{
	{From: StatusPending, To: StatusConducted},
	{From: StatusPending, To: StatusHoliday},
	{From: StatusPending, To: StatusCancelled},
	{From: StatusHoliday, To: StatusConducted},
	{From: StatusHoliday, To: StatusCancelled},
}

// TransitionAllowed reports whether from -> to is an edge in the table.
func TransitionAllowed(from, to Status) bool {
	for _, tr := range transitionTable {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}
