package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseSource is one uploaded course document. Text content arrives
// already extracted by the upload pipeline; binary originals (scans,
// photos) keep their bucket key and MIME type so they can be forwarded
// to the generation model inline.
type CourseSource struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name           string         `gorm:"not null;column:name" json:"name"`
	Category       string         `gorm:"column:category" json:"category"`
	Content        string         `gorm:"column:content;type:text" json:"content"`
	AttachmentKey  string         `gorm:"column:attachment_key" json:"attachment_key,omitempty"`
	AttachmentMIME string         `gorm:"column:attachment_mime" json:"attachment_mime,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseSource) TableName() string { return "course_source" }

func (s *CourseSource) HasAttachment() bool {
	return s.AttachmentKey != ""
}
