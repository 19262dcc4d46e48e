package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clas_go/database"
	"clas_go/middleware"
	"clas_go/models"
	"clas_go/services/sequence"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateController manages sequence templates and their day items.
// Template edits never retroactively change session records already generated
// from them.
type TemplateController struct{}

// GetTemplates returns all templates
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	var templates []models.SequenceTemplate

	query := database.DB.Model(&models.SequenceTemplate{})
	if language := c.Query("language"); language != "" {
		query = query.Where("language = ?", language)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	if err := query.Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch templates",
		})
	}

	return c.JSON(fiber.Map{
		"templates": templates,
		"total":     len(templates),
	})
}

// GetTemplate returns a template with its day items in day order
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var template models.SequenceTemplate
	if err := database.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("day_number asc")
	}).First(&template, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	return c.JSON(fiber.Map{
		"template": template,
	})
}

// CreateTemplate creates a new template
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var template models.SequenceTemplate
	if err := c.BodyParser(&template); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if template.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	var existing models.SequenceTemplate
	if err := database.DB.Where("name = ?", template.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Template name already exists",
		})
	}

	template.Active = true

	if err := database.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create template",
		})
	}

	middleware.LogAudit(c, "CREATE", "templates", template.ID, template)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Template created successfully",
		"template": template,
	})
}

// UpdateTemplate updates template metadata
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var template models.SequenceTemplate
	if err := database.DB.First(&template, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	var updateData models.SequenceTemplate
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := database.DB.Model(&template).Updates(updateData).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	middleware.LogAudit(c, "UPDATE", "templates", template.ID, updateData)

	return c.JSON(fiber.Map{
		"message":  "Template updated successfully",
		"template": template,
	})
}

// DeleteTemplate soft-deletes a template that no class references
func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var template models.SequenceTemplate
	if err := database.DB.First(&template, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	var classCount int64
	database.DB.Model(&models.Class{}).Where("template_id = ?", template.ID).Count(&classCount)
	if classCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot delete a template referenced by classes",
		})
	}

	if err := database.DB.Delete(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete template",
		})
	}

	middleware.LogAudit(c, "DELETE", "templates", template.ID, template)

	return c.JSON(fiber.Map{
		"message": "Template deleted successfully",
	})
}

// ImportItems loads template day items from an uploaded CSV or XLSX file.
// Expected columns: DayNumber, ContentRef, Title (header row required).
// Existing day numbers are overwritten; days outside 1..150 are rejected.
func (tc *TemplateController) ImportItems(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var template models.SequenceTemplate
	if err := database.DB.First(&template, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer file.Close()

	filename := strings.ToLower(fileHeader.Filename)
	var rows [][]string
	var parseErr error

	if strings.HasSuffix(filename, ".csv") {
		rows, parseErr = readCSV(file)
	} else if strings.HasSuffix(filename, ".xlsx") || strings.HasSuffix(filename, ".xls") {
		// Save to OS temp folder for excelize to open
		tmpDir, _ := os.MkdirTemp("", "clasxls-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		rows, parseErr = readXLSX(tmp)
		_ = os.Remove(tmp)
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": parseErr.Error()})
	}
	if len(rows) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file has no data rows"})
	}

	col := buildHeaderIndex(rows[0])
	for _, required := range []string{"DayNumber", "ContentRef"} {
		if _, ok := col[required]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("missing column: %s", required)})
		}
	}

	created := 0
	updated := 0
	var errorsList []string

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		seen := map[int]bool{}
		for i := 1; i < len(rows); i++ {
			r := rows[i]
			get := func(key string) string {
				if idx, ok := col[key]; ok && idx < len(r) {
					return strings.TrimSpace(r[idx])
				}
				return ""
			}

			day, err := strconv.Atoi(get("DayNumber"))
			if err != nil || day < 1 || day > sequence.Length() {
				errorsList = append(errorsList, fmt.Sprintf("row %d: invalid day number %q", i+1, get("DayNumber")))
				continue
			}
			if seen[day] {
				errorsList = append(errorsList, fmt.Sprintf("row %d: duplicate day %d in file", i+1, day))
				continue
			}
			seen[day] = true

			contentRef := get("ContentRef")
			if contentRef == "" {
				errorsList = append(errorsList, fmt.Sprintf("row %d: empty content ref", i+1))
				continue
			}

			item := models.SequenceTemplateItem{
				TemplateID: template.ID,
				DayNumber:  day,
				ContentRef: contentRef,
				Title:      get("Title"),
			}

			// Upsert on (template, day)
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "template_id"}, {Name: "day_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"content_ref", "title"}),
			}).Create(&item)
			if res.Error != nil {
				return res.Error
			}
			// MySQL reports 1 affected row for an insert, 2 for an update
			if res.RowsAffected == 1 {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.LogAudit(c, "IMPORT", "templates", template.ID, fiber.Map{
		"created": created,
		"updated": updated,
		"errors":  len(errorsList),
	})

	return c.JSON(fiber.Map{
		"message": "Template items imported",
		"created": created,
		"updated": updated,
		"errors":  errorsList,
	})
}

// ExportItems streams the template's day items as an XLSX workbook
func (tc *TemplateController) ExportItems(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var template models.SequenceTemplate
	if err := database.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("day_number asc")
	}).First(&template, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Items"
	f.SetSheetName(f.GetSheetName(0), sheet)
	headers := []string{"DayNumber", "ContentRef", "Title"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, item := range template.Items {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row+2), item.DayNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row+2), item.ContentRef)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row+2), item.Title)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build workbook",
		})
	}

	filename := fmt.Sprintf("template_%d_items.xlsx", template.ID)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// Use first sheet
	sht := f.GetSheetName(0)
	if sht == "" {
		sht = "Sheet1"
	}
	data, err := f.GetRows(sht)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func buildHeaderIndex(header []string) map[string]int {
	m := map[string]int{}
	for i, h := range header {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
