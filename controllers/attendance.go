package controllers

import (
	"strconv"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"
	"clas_go/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AttendanceController records attendance for curriculum days. A session can
// only be marked conducted once an attendance record exists for it.
type AttendanceController struct{}

// CreateAttendance records attendance for one class day. Accepts either JSON
// or multipart form data; a multipart "evidence" file is uploaded to S3 and
// linked on the record.
func (ac *AttendanceController) CreateAttendance(c *fiber.Ctx) error {
	var record models.AttendanceRecord

	if form, err := c.MultipartForm(); err == nil && form != nil {
		get := func(key string) string {
			if vals, ok := form.Value[key]; ok && len(vals) > 0 {
				return vals[0]
			}
			return ""
		}
		classID, err := strconv.ParseUint(get("class_id"), 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class_id"})
		}
		day, err := strconv.Atoi(get("day_number"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid day_number"})
		}
		record.ClassID = uint(classID)
		record.DayNumber = day
		record.PresentCount, _ = strconv.Atoi(get("present_count"))
		record.AbsentCount, _ = strconv.Atoi(get("absent_count"))
	} else if err := c.BodyParser(&record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if record.ClassID == 0 || record.DayNumber < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "class_id and day_number are required",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, record.ClassID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	record.RecordedBy = user.ID

	// Optional evidence photo
	if fileHeader, err := c.FormFile("evidence"); err == nil {
		svc, err := storage.NewStorageService()
		if err != nil {
			logrus.WithError(err).Warn("storage unavailable, attendance saved without evidence")
		} else {
			url, err := svc.UploadFile(fileHeader, "attendance", user.ID)
			if err != nil {
				logrus.WithError(err).Warn("evidence upload failed, attendance saved without evidence")
			} else {
				record.EvidenceURL = url
			}
		}
	}

	if err := database.DB.Create(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create attendance record",
		})
	}

	middleware.LogSequenceAudit(c, "ATTENDANCE", record.ClassID, record.DayNumber, "", "", "", fiber.Map{
		"attendance_id": record.ID,
		"present":       record.PresentCount,
		"absent":        record.AbsentCount,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Attendance recorded",
		"attendance": record,
	})
}

// GetAttendance lists attendance records for a class, optionally for one day
func (ac *AttendanceController) GetAttendance(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	query := database.DB.Where("class_id = ?", classID)
	if day := c.Query("day_number"); day != "" {
		query = query.Where("day_number = ?", day)
	}

	var records []models.AttendanceRecord
	if err := query.Order("day_number asc").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attendance records",
		})
	}

	return c.JSON(fiber.Map{
		"attendance": records,
		"total":      len(records),
	})
}
