package controllers

import (
	"strconv"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"

	"github.com/gofiber/fiber/v2"
)

type SchoolController struct{}

// GetSchools returns all schools
func (sc *SchoolController) GetSchools(c *fiber.Ctx) error {
	var schools []models.School

	query := database.DB.Model(&models.School{})

	// Filter by active status if specified
	if active := c.Query("active"); active != "" {
		if active == "true" {
			query = query.Where("active = ?", true)
		} else if active == "false" {
			query = query.Where("active = ?", false)
		}
	}

	// Filter by region if specified
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	if err := query.Find(&schools).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schools",
		})
	}

	return c.JSON(fiber.Map{
		"schools": schools,
		"total":   len(schools),
	})
}

// GetSchool returns a specific school by ID
func (sc *SchoolController) GetSchool(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid school ID",
		})
	}

	var school models.School
	if err := database.DB.First(&school, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "School not found",
		})
	}

	return c.JSON(fiber.Map{
		"school": school,
	})
}

// CreateSchool creates a new school
func (sc *SchoolController) CreateSchool(c *fiber.Ctx) error {
	var school models.School
	if err := c.BodyParser(&school); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Validate required fields
	if school.Name == "" || school.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and Code are required",
		})
	}

	// Check if code already exists
	var existingSchool models.School
	if err := database.DB.Where("code = ?", school.Code).First(&existingSchool).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "School code already exists",
		})
	}

	school.Active = true

	if err := database.DB.Create(&school).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create school",
		})
	}

	middleware.LogAudit(c, "CREATE", "schools", school.ID, school)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "School created successfully",
		"school":  school,
	})
}

// UpdateSchool updates an existing school
func (sc *SchoolController) UpdateSchool(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid school ID",
		})
	}

	var school models.School
	if err := database.DB.First(&school, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "School not found",
		})
	}

	var updateData models.School
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Check if code already exists (if changing)
	if updateData.Code != "" && updateData.Code != school.Code {
		var existingSchool models.School
		if err := database.DB.Where("code = ? AND id != ?", updateData.Code, school.ID).First(&existingSchool).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "School code already exists",
			})
		}
	}

	if err := database.DB.Model(&school).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update school",
		})
	}

	middleware.LogAudit(c, "UPDATE", "schools", school.ID, updateData)

	return c.JSON(fiber.Map{
		"message": "School updated successfully",
		"school":  school,
	})
}

// DeleteSchool deletes a school
func (sc *SchoolController) DeleteSchool(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid school ID",
		})
	}

	var school models.School
	if err := database.DB.First(&school, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "School not found",
		})
	}

	// Check if school has associated classes
	var classCount int64
	database.DB.Model(&models.Class{}).Where("school_id = ?", school.ID).Count(&classCount)
	if classCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot delete school with associated classes",
		})
	}

	if err := database.DB.Delete(&school).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete school",
		})
	}

	middleware.LogAudit(c, "DELETE", "schools", school.ID, school)

	return c.JSON(fiber.Map{
		"message": "School deleted successfully",
	})
}
