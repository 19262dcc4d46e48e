package utils

import (
	"time"

	"clas_go/models"
)

// Compact representations used across APIs
type UserShort struct {
	ID       uint   `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

type ClassShort struct {
	ID       uint   `json:"id"`
	Name     string `json:"name,omitempty"`
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
}

type SessionRecordDTO struct {
	ID                 uint       `json:"id"`
	ClassID            uint       `json:"class_id"`
	DayNumber          int        `json:"day_number"`
	Status             string     `json:"status"`
	Language           string     `json:"language,omitempty"`
	ContentRef         string     `json:"content_ref,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	AttendanceID       *uint      `json:"attendance_id,omitempty"`
	Version            uint       `json:"version"`
	StatusChangedAt    *time.Time `json:"status_changed_at,omitempty"`
	StatusChangedBy    *uint      `json:"status_changed_by,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToSessionRecordDTO maps a models.SessionRecord to the compact DTO.
func ToSessionRecordDTO(r models.SessionRecord) SessionRecordDTO {
	return SessionRecordDTO{
		ID:                 r.ID,
		ClassID:            r.ClassID,
		DayNumber:          r.DayNumber,
		Status:             r.Status,
		Language:           r.Language,
		ContentRef:         r.ContentRef,
		CancellationReason: r.CancellationReason,
		AttendanceID:       r.AttendanceID,
		Version:            r.Version,
		StatusChangedAt:    r.StatusChangedAt,
		StatusChangedBy:    r.StatusChangedBy,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ToSessionRecordDTOs maps a slice of records preserving order.
func ToSessionRecordDTOs(records []models.SessionRecord) []SessionRecordDTO {
	out := make([]SessionRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToSessionRecordDTO(r))
	}
	return out
}

type NotificationDTO struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    uint       `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	User      UserShort  `json:"user"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// Assumptions: caller has preloaded User when possible.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		User:      UserShort{ID: n.User.ID, Username: n.User.Username, Role: n.User.Role},
	}
}

type AuditLogDTO struct {
	ID         uint        `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UserID     uint        `json:"user_id"`
	Action     string      `json:"action"`
	Resource   string      `json:"resource"`
	ResourceID uint        `json:"resource_id,omitempty"`
	ClassID    *uint       `json:"class_id,omitempty"`
	DayNumber  *int        `json:"day_number,omitempty"`
	FromStatus string      `json:"from_status,omitempty"`
	ToStatus   string      `json:"to_status,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Details    models.JSON `json:"details,omitempty"`
	IPAddress  string      `json:"ip_address,omitempty"`
}

// ToAuditLogDTO maps a models.AuditLog to the compact DTO.
func ToAuditLogDTO(l models.AuditLog) AuditLogDTO {
	return AuditLogDTO{
		ID:         l.ID,
		CreatedAt:  l.CreatedAt,
		UserID:     l.UserID,
		Action:     l.Action,
		Resource:   l.Resource,
		ResourceID: l.ResourceID,
		ClassID:    l.ClassID,
		DayNumber:  l.DayNumber,
		FromStatus: l.FromStatus,
		ToStatus:   l.ToStatus,
		Reason:     l.Reason,
		Details:    l.Details,
		IPAddress:  l.IPAddress,
	}
}
