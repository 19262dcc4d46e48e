package controllers

import (
	"strconv"
	"time"

	"clas_go/database"
	"clas_go/models"
	"clas_go/services"
	"clas_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type LogController struct{}

// GetLogs retrieves paginated audit logs with filters
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	offset := (page - 1) * limit

	query := database.DB.Model(&models.AuditLog{}).Preload("User")

	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if day := c.Query("day_number"); day != "" {
		query = query.Where("day_number = ?", day)
	}

	// Date range filters
	if startDate := c.Query("start_date"); startDate != "" {
		if parsedDate, err := time.Parse("2006-01-02", startDate); err == nil {
			query = query.Where("created_at >= ?", parsedDate)
		}
	}
	if endDate := c.Query("end_date"); endDate != "" {
		if parsedDate, err := time.Parse("2006-01-02", endDate); err == nil {
			query = query.Where("created_at <= ?", parsedDate.Add(24*time.Hour))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logrus.WithError(err).Error("Failed to count audit logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve logs count",
		})
	}

	var entries []models.AuditLog
	if err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		logrus.WithError(err).Error("Failed to fetch audit logs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve logs",
		})
	}

	logs := make([]utils.AuditLogDTO, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, utils.ToAuditLogDTO(e))
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetLog returns a single audit log entry
func (lc *LogController) GetLog(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid log ID",
		})
	}

	var entry models.AuditLog
	if err := database.DB.Preload("User").First(&entry, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Log entry not found",
		})
	}

	return c.JSON(fiber.Map{
		"log": utils.ToAuditLogDTO(entry),
	})
}

// GetClassHistory returns the sequence audit trail for one class, newest first
func (lc *LogController) GetClassHistory(c *fiber.Ctx) error {
	classID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var entries []models.AuditLog
	if err := database.DB.Preload("User").
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Limit(500).
		Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve class history",
		})
	}

	history := make([]utils.AuditLogDTO, 0, len(entries))
	for _, e := range entries {
		history = append(history, utils.ToAuditLogDTO(e))
	}

	return c.JSON(fiber.Map{
		"history": history,
		"total":   len(history),
	})
}

// FlushCachedLogs forces the Redis audit queue into the database
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	svc := services.NewAuditArchiveService()
	if err := svc.FlushCachedEntriesToDatabase(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Cached audit entries flushed to database",
	})
}

// GetArchives lists archived audit batches
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	svc := services.NewAuditArchiveService()
	archives, err := svc.GetArchives()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"archives": archives,
		"total":    len(archives),
	})
}

// DownloadArchive streams one archived batch from S3
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid archive ID",
		})
	}

	svc := services.NewAuditArchiveService()
	reader, filename, err := svc.DownloadArchive(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendStream(reader)
}
