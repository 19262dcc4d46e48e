package seeders

import (
	"fmt"
	"log"
	"time"

	"clas_go/database"
	"clas_go/models"
	"clas_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedSchools()
	SeedUsers()
	SeedTemplates()
	SeedClasses()

	log.Println("Database seeding completed successfully!")
}

// SeedSchools seeds the schools table
func SeedSchools() {
	var count int64
	database.DB.Model(&models.School{}).Count(&count)
	if count > 0 {
		log.Println("Schools already seeded, skipping...")
		return
	}

	schools := []models.School{
		{
			BaseModel: models.BaseModel{ID: 1, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Name:      "Riverside Primary School",
			Code:      "RIVERSIDE",
			Address:   "14 Riverside Road, Eastern Region",
			Phone:     "020-445566",
			Region:    "eastern",
			Active:    true,
		},
		{
			BaseModel: models.BaseModel{ID: 2, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Name:      "Hillcrest Community School",
			Code:      "HILLCREST",
			Address:   "3 Hillcrest Lane, Northern Region",
			Phone:     "020-778899",
			Region:    "northern",
			Active:    true,
		},
	}

	for _, school := range schools {
		if err := database.DB.Create(&school).Error; err != nil {
			log.Printf("Error seeding school %s: %v", school.Code, err)
		}
	}

	log.Println("Schools seeded successfully")
}

// SeedUsers seeds the users table
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	// Hash the default password
	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			BaseModel: models.BaseModel{ID: 1, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Username:  "admin",
			Password:  hashedPassword,
			Email:     "admin@clas.local",
			Phone:     "0812345678",
			Role:      "admin",
			SchoolID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 2, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Username:  "supervisor_east",
			Password:  hashedPassword,
			Email:     "supervisor.east@clas.local",
			Phone:     "0812345679",
			Role:      "supervisor",
			SchoolID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 3, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Username:  "facilitator_riverside",
			Password:  hashedPassword,
			Email:     "f.riverside@clas.local",
			Phone:     "0891234567",
			Role:      "facilitator",
			SchoolID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 4, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			Username:  "facilitator_hillcrest",
			Password:  hashedPassword,
			Email:     "f.hillcrest@clas.local",
			Phone:     "0891234568",
			Role:      "facilitator",
			SchoolID:  2,
			Status:    "active",
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedTemplates seeds one full curriculum template covering every day
func SeedTemplates() {
	var count int64
	database.DB.Model(&models.SequenceTemplate{}).Count(&count)
	if count > 0 {
		log.Println("Templates already seeded, skipping...")
		return
	}

	template := models.SequenceTemplate{
		BaseModel:   models.BaseModel{ID: 1, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
		Name:        "English Foundation 150",
		Language:    "english",
		Description: "Standard 150-day English foundation curriculum",
		Active:      true,
	}
	if err := database.DB.Create(&template).Error; err != nil {
		log.Printf("Error seeding template %s: %v", template.Name, err)
		return
	}

	items := make([]models.SequenceTemplateItem, 0, 150)
	for day := 1; day <= 150; day++ {
		items = append(items, models.SequenceTemplateItem{
			TemplateID: template.ID,
			DayNumber:  day,
			ContentRef: fmt.Sprintf("eng-found/day-%03d", day),
			Title:      fmt.Sprintf("English Foundation Day %d", day),
		})
	}
	if err := database.DB.CreateInBatches(items, 50).Error; err != nil {
		log.Printf("Error seeding template items: %v", err)
	}

	log.Println("Templates seeded successfully")
}

// SeedClasses seeds the classes table
func SeedClasses() {
	var count int64
	database.DB.Model(&models.Class{}).Count(&count)
	if count > 0 {
		log.Println("Classes already seeded, skipping...")
		return
	}

	facilitatorRiverside := uint(3)
	facilitatorHillcrest := uint(4)
	templateID := uint(1)

	classes := []models.Class{
		{
			BaseModel:     models.BaseModel{ID: 1, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			SchoolID:      1,
			Name:          "Riverside Grade 4 English",
			Code:          "RIV-G4-ENG",
			Language:      "english",
			GradeLevel:    "4",
			FacilitatorID: &facilitatorRiverside,
			TemplateID:    &templateID,
			Status:        "active",
		},
		{
			BaseModel:     models.BaseModel{ID: 2, CreatedAt: time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)},
			SchoolID:      2,
			Name:          "Hillcrest Grade 5 English",
			Code:          "HIL-G5-ENG",
			Language:      "english",
			GradeLevel:    "5",
			FacilitatorID: &facilitatorHillcrest,
			TemplateID:    &templateID,
			Status:        "active",
		},
	}

	for _, class := range classes {
		if err := database.DB.Create(&class).Error; err != nil {
			log.Printf("Error seeding class %s: %v", class.Code, err)
		}
	}

	log.Println("Classes seeded successfully")
}
