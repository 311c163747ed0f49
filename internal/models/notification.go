package models

import "github.com/google/uuid"

// Notification is an in-app message. A nil recipient targets all admins.
type Notification struct {
	BaseModel
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	IsRead      bool       `json:"is_read"`
}
