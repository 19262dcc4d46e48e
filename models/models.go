package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// School model
type School struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Code    string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Region  string `json:"region" gorm:"size:100"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Users   []User  `json:"users,omitempty" gorm:"foreignKey:SchoolID"`
	Classes []Class `json:"classes,omitempty" gorm:"foreignKey:SchoolID"`
}

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'facilitator';type:enum('admin','supervisor','facilitator')"` // admin, supervisor, facilitator
	SchoolID uint   `json:"school_id" gorm:"not null"`
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended
	Avatar   string `json:"avatar" gorm:"size:500"`

	// Relationships
	School School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

// Class model. Each class owns one 150-day session sequence.
type Class struct {
	BaseModel
	SchoolID      uint   `json:"school_id" gorm:"not null"`
	Name          string `json:"name" gorm:"size:255;not null"`
	Code          string `json:"code" gorm:"size:100;uniqueIndex"`
	Language      string `json:"language" gorm:"size:50;not null;default:'english'"`
	GradeLevel    string `json:"grade_level" gorm:"size:50"`
	FacilitatorID *uint  `json:"facilitator_id"`
	TemplateID    *uint  `json:"template_id"`                                                                      // active template at generation time
	Status        string `json:"status" gorm:"size:50;default:'active';type:enum('active','inactive','archived')"` // active, inactive, archived

	// Relationships
	School      School            `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
	Facilitator *User             `json:"facilitator,omitempty" gorm:"foreignKey:FacilitatorID"`
	Template    *SequenceTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

// SequenceTemplate holds an ordered set of day -> content associations used by
// bulk generation. Template edits never retroactively alter existing records.
type SequenceTemplate struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Language    string `json:"language" gorm:"size:50;not null;default:'english'"`
	Description string `json:"description" gorm:"type:text"`
	Active      bool   `json:"active" gorm:"default:true"`

	// Relationships
	Items []SequenceTemplateItem `json:"items,omitempty" gorm:"foreignKey:TemplateID"`
}

// SequenceTemplateItem maps one day number to a curriculum content reference.
type SequenceTemplateItem struct {
	BaseModel
	TemplateID uint   `json:"template_id" gorm:"not null;uniqueIndex:idx_template_day,priority:1"`
	DayNumber  int    `json:"day_number" gorm:"not null;uniqueIndex:idx_template_day,priority:2"`
	ContentRef string `json:"content_ref" gorm:"size:500;not null"`
	Title      string `json:"title" gorm:"size:255"`

	// Relationships
	Template SequenceTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

// SessionRecord is one scheduled curriculum day for one class. Day numbers run
// 1..150 and are unique per class. Version is bumped on every status change and
// guards transitions against stale reads.
type SessionRecord struct {
	BaseModel
	ClassID            uint       `json:"class_id" gorm:"not null;uniqueIndex:idx_class_day,priority:1"`
	DayNumber          int        `json:"day_number" gorm:"not null;uniqueIndex:idx_class_day,priority:2"`
	Status             string     `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','conducted','holiday','cancelled')"` // pending, conducted, holiday, cancelled
	Language           string     `json:"language" gorm:"size:50"`
	TemplateItemID     *uint      `json:"template_item_id"`
	ContentRef         string     `json:"content_ref" gorm:"size:500"`
	CancellationReason string     `json:"cancellation_reason" gorm:"size:50"` // set iff status=cancelled
	AttendanceID       *uint      `json:"attendance_id"`                      // required before conducted
	Version            uint       `json:"version" gorm:"not null;default:1"`
	StatusChangedAt    *time.Time `json:"status_changed_at"`
	StatusChangedBy    *uint      `json:"status_changed_by"`

	// Relationships
	Class        Class                 `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	TemplateItem *SequenceTemplateItem `json:"template_item,omitempty" gorm:"foreignKey:TemplateItemID"`
	Attendance   *AttendanceRecord     `json:"attendance,omitempty" gorm:"foreignKey:AttendanceID"`
}

// AttendanceRecord is supplied by the attendance subsystem. The sequence core
// only checks presence of a reference, never its content.
type AttendanceRecord struct {
	BaseModel
	ClassID      uint   `json:"class_id" gorm:"not null"`
	DayNumber    int    `json:"day_number" gorm:"not null"`
	PresentCount int    `json:"present_count"`
	AbsentCount  int    `json:"absent_count"`
	RecordedBy   uint   `json:"recorded_by"`
	EvidenceURL  string `json:"evidence_url" gorm:"size:500"`

	// Relationships
	Class Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// AuditLog records every generation event, status transition, and integrity
// repair. Sequence fields are populated for session-level entries.
type AuditLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	ClassID    *uint  `json:"class_id"`
	DayNumber  *int   `json:"day_number"`
	FromStatus string `json:"from_status" gorm:"size:50"`
	ToStatus   string `json:"to_status" gorm:"size:50"`
	Reason     string `json:"reason" gorm:"size:100"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Data    JSON       `json:"data" gorm:"type:json"`
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AuditArchive tracks audit log batches archived to S3
type AuditArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
