package controllers

import (
	"errors"
	"strconv"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"
	"clas_go/services/sequence"
	"clas_go/services/websocket"
	"clas_go/utils"

	"github.com/gofiber/fiber/v2"
)

type ClassController struct {
	wsHub *websocket.Hub
}

func NewClassController(wsHub *websocket.Hub) *ClassController {
	return &ClassController{wsHub: wsHub}
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// GetClasses returns all classes, filterable by school, facilitator, and status
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	var classes []models.Class

	query := database.DB.Model(&models.Class{}).Preload("School").Preload("Facilitator")

	if schoolID := c.Query("school_id"); schoolID != "" {
		query = query.Where("school_id = ?", schoolID)
	}
	if facilitatorID := c.Query("facilitator_id"); facilitatorID != "" {
		query = query.Where("facilitator_id = ?", facilitatorID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if language := c.Query("language"); language != "" {
		query = query.Where("language = ?", language)
	}

	if err := query.Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	return c.JSON(fiber.Map{
		"classes": classes,
		"total":   len(classes),
	})
}

// GetClass returns a specific class by ID
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.Preload("School").Preload("Facilitator").Preload("Template").
		First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	return c.JSON(fiber.Map{
		"class": class,
	})
}

// CreateClass creates a new class
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	var class models.Class
	if err := c.BodyParser(&class); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if class.Name == "" || class.SchoolID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and school_id are required",
		})
	}

	var school models.School
	if err := database.DB.First(&school, class.SchoolID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "School not found",
		})
	}

	if class.TemplateID != nil {
		var template models.SequenceTemplate
		if err := database.DB.First(&template, *class.TemplateID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Template not found",
			})
		}
	}

	if class.Status == "" {
		class.Status = "active"
	}

	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create class",
		})
	}

	middleware.LogAudit(c, "CREATE", "classes", class.ID, class)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

// UpdateClass updates an existing class. Changing the template never alters
// already-generated records.
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	var updateData models.Class
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := database.DB.Model(&class).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	middleware.LogAudit(c, "UPDATE", "classes", class.ID, updateData)

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   class,
	})
}

// DeleteClass soft-deletes a class
func (cc *ClassController) DeleteClass(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	if err := database.DB.Delete(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete class",
		})
	}

	middleware.LogAudit(c, "DELETE", "classes", class.ID, class)

	return c.JSON(fiber.Map{
		"message": "Class deleted successfully",
	})
}

// GenerateSequence bulk-creates the class's session records. Safe to call
// again: a rerun only fills days that are missing.
func (cc *ClassController) GenerateSequence(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	var actorID uint
	if user, err := middleware.GetCurrentUser(c); err == nil {
		actorID = user.ID
	}

	// The generator writes the run's audit entry inside its transaction.
	result, err := sequence.NewGenerator().Generate(id, actorID)
	if err != nil {
		return sequenceErrorResponse(c, err)
	}

	if cc.wsHub != nil && result.Created > 0 {
		cc.wsHub.BroadcastSessionEvent(websocket.SessionEvent{
			Type:    "sequence_generated",
			ClassID: id,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sequence generated",
		"result":  result,
	})
}

// GetCurrentSession resolves the session the class should run next.
func (cc *ClassController) GetCurrentSession(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	current, err := sequence.LoadCurrentSession(id)
	if err != nil {
		if errors.Is(err, sequence.ErrAllSessionsComplete) {
			return c.JSON(fiber.Map{
				"complete": true,
				"message":  "All sessions are complete",
			})
		}
		return sequenceErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"complete": false,
		"session":  utils.ToSessionRecordDTO(*current),
	})
}

// GetSequenceState returns the full per-day breakdown of a class's sequence.
func (cc *ClassController) GetSequenceState(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var records []models.SessionRecord
	if err := database.DB.Where("class_id = ?", id).
		Order("day_number asc").
		Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch session records",
		})
	}
	if len(records) == 0 {
		return sequenceErrorResponse(c, &sequence.UninitializedError{ClassID: id})
	}

	state := sequence.BuildState(id, records)

	return c.JSON(fiber.Map{
		"state": state,
	})
}

// RunIntegrityAudit checks the class's record set and repairs gaps unless
// repair is disabled via ?repair=false. Duplicates and out-of-range days are
// only reported.
func (cc *ClassController) RunIntegrityAudit(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	repair := c.Query("repair", "true") != "false"

	var actorID uint
	if user, err := middleware.GetCurrentUser(c); err == nil {
		actorID = user.ID
	}

	report, err := sequence.NewValidator().Audit(id, actorID, repair)
	if err != nil {
		return sequenceErrorResponse(c, err)
	}

	if cc.wsHub != nil && (report.GapsRepaired > 0 || report.Corrupted) {
		cc.wsHub.BroadcastSessionEvent(websocket.SessionEvent{
			Type:    "integrity_report",
			ClassID: id,
		})
	}

	status := fiber.StatusOK
	if report.Corrupted {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"report": report,
	})
}
