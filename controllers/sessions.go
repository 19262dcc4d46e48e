package controllers

import (
	"errors"
	"strconv"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"
	"clas_go/services/notifications"
	"clas_go/services/sequence"
	"clas_go/services/websocket"
	"clas_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SessionController struct {
	wsHub *websocket.Hub
}

func NewSessionController(wsHub *websocket.Hub) *SessionController {
	return &SessionController{wsHub: wsHub}
}

// sequenceErrorResponse maps sequence core errors onto HTTP responses.
// Precondition failures are 400, stale or conflicting writes are 409, and a
// missing sequence is 404 with a hint to generate first.
func sequenceErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, sequence.ErrSequenceUninitialized):
		var ue *sequence.UninitializedError
		resp := fiber.Map{
			"error": "Sequence not generated for this class",
			"code":  "sequence_uninitialized",
		}
		if errors.As(err, &ue) {
			resp["class_id"] = ue.ClassID
		}
		return c.Status(fiber.StatusNotFound).JSON(resp)

	case errors.Is(err, sequence.ErrConcurrentModification):
		resp := fiber.Map{
			"error": "Record changed since it was read, re-read and retry",
			"code":  "concurrent_modification",
		}
		var te *sequence.TransitionError
		if errors.As(err, &te) {
			resp["class_id"] = te.ClassID
			resp["day_number"] = te.DayNumber
			resp["expected_status"] = te.Expected
			resp["actual_status"] = te.Actual
		}
		return c.Status(fiber.StatusConflict).JSON(resp)

	case errors.Is(err, sequence.ErrGenerationConflict):
		resp := fiber.Map{
			"error": "Duplicate session records found, run an integrity audit",
			"code":  "generation_conflict",
		}
		var ge *sequence.GenerationConflictError
		if errors.As(err, &ge) {
			resp["class_id"] = ge.ClassID
			resp["days"] = ge.Days
		}
		return c.Status(fiber.StatusConflict).JSON(resp)

	case errors.Is(err, sequence.ErrSequenceCorruption):
		resp := fiber.Map{
			"error": "Sequence records are corrupted and need manual review",
			"code":  "sequence_corruption",
		}
		var ce *sequence.CorruptionError
		if errors.As(err, &ce) {
			resp["class_id"] = ce.ClassID
			resp["duplicates"] = ce.Duplicates
			resp["out_of_range"] = ce.OutOfRange
		}
		return c.Status(fiber.StatusConflict).JSON(resp)

	case errors.Is(err, sequence.ErrAttendanceRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "An attendance record is required before marking a session conducted",
			"code":  "attendance_required",
		})

	case errors.Is(err, sequence.ErrInvalidCancellationReason):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Cancellation requires one of the enumerated reasons",
			"code":    "invalid_cancellation_reason",
			"reasons": sequence.CancellationReasons,
		})

	case errors.Is(err, sequence.ErrInvalidTransition):
		resp := fiber.Map{
			"error": "Status transition not allowed",
			"code":  "invalid_transition",
		}
		var te *sequence.TransitionError
		if errors.As(err, &te) {
			resp["from"] = te.From
			resp["to"] = te.To
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)

	default:
		logrus.WithError(err).Error("sequence operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sequence operation failed",
		})
	}
}

// GetSessions lists a class's session records in day order
func (sc *SessionController) GetSessions(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	query := database.DB.Where("class_id = ?", classID)

	if status := c.Query("status"); status != "" {
		if !sequence.Status(status).Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status filter",
			})
		}
		query = query.Where("status = ?", status)
	}
	if from := c.Query("from_day"); from != "" {
		query = query.Where("day_number >= ?", from)
	}
	if to := c.Query("to_day"); to != "" {
		query = query.Where("day_number <= ?", to)
	}

	var records []models.SessionRecord
	if err := query.Order("day_number asc").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch session records",
		})
	}
	if len(records) == 0 && c.Query("status") == "" && c.Query("from_day") == "" && c.Query("to_day") == "" {
		return sequenceErrorResponse(c, &sequence.UninitializedError{ClassID: classID})
	}

	return c.JSON(fiber.Map{
		"sessions": utils.ToSessionRecordDTOs(records),
		"total":    len(records),
	})
}

// GetSession returns one session record by class and day number
func (sc *SessionController) GetSession(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil || day < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid day number",
		})
	}

	var record models.SessionRecord
	if err := database.DB.Preload("TemplateItem").Preload("Attendance").
		Where("class_id = ? AND day_number = ?", classID, day).
		First(&record).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session record not found",
		})
	}

	return c.JSON(fiber.Map{
		"session": utils.ToSessionRecordDTO(record),
	})
}

// TransitionBody is the transition endpoint's request body.
type TransitionBody struct {
	From               string `json:"from" validate:"required"`
	To                 string `json:"to" validate:"required"`
	Version            uint   `json:"version"`
	CancellationReason string `json:"cancellation_reason"`
	AttendanceID       *uint  `json:"attendance_id"`
}

// TransitionSession applies a status change to one session record. The body
// carries the status and version the caller observed; a stale observation is
// rejected with 409 and fresh state so the client can retry.
func (sc *SessionController) TransitionSession(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil || day < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid day number",
		})
	}

	var body TransitionBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var actorID uint
	if user, err := middleware.GetCurrentUser(c); err == nil {
		actorID = user.ID
	}

	req := sequence.TransitionRequest{
		ClassID:      classID,
		DayNumber:    day,
		From:         sequence.Status(body.From),
		To:           sequence.Status(body.To),
		Version:      body.Version,
		Reason:       sequence.CancellationReason(body.CancellationReason),
		AttendanceID: body.AttendanceID,
		ActorID:      actorID,
	}

	// The manager writes the transition's audit entry inside its transaction.
	updated, err := sequence.NewManager().Transition(req)
	if err != nil {
		return sequenceErrorResponse(c, err)
	}

	// Resolve the next current session; completion is a terminal signal, not
	// an error, and triggers facilitator/supervisor notification.
	complete := false
	currentDay := 0
	if current, err := sequence.LoadCurrentSession(classID); err == nil {
		currentDay = current.DayNumber
	} else if errors.Is(err, sequence.ErrAllSessionsComplete) {
		complete = true
		sc.notifyComplete(classID)
	}

	if sc.wsHub != nil {
		sc.wsHub.BroadcastSessionEvent(websocket.SessionEvent{
			Type:       "session_transition",
			ClassID:    classID,
			DayNumber:  day,
			FromStatus: body.From,
			ToStatus:   body.To,
			Reason:     body.CancellationReason,
			CurrentDay: currentDay,
			Complete:   complete,
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Session updated",
		"session":  utils.ToSessionRecordDTO(*updated),
		"complete": complete,
	})
}

func (sc *SessionController) notifyComplete(classID uint) {
	var class models.Class
	if err := database.DB.First(&class, classID).Error; err != nil {
		logrus.WithError(err).WithField("class_id", classID).Warn("completion notification: class lookup failed")
		return
	}
	if err := notifications.NewService().NotifySequenceComplete(class); err != nil {
		logrus.WithError(err).WithField("class_id", classID).Warn("completion notification failed")
	}
}
