package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Feature names one of the study tools. Each (user, feature) pair owns
// its sessions; exactly one of them is active in the UI at a time.
type Feature string

const (
	FeatureChat      Feature = "chat"
	FeatureQuiz      Feature = "quiz"
	FeatureFlashcard Feature = "flashcard"
	FeatureChecklist Feature = "checklist"
	FeatureMindMap   Feature = "mindmap"
	FeatureMnemonic  Feature = "mnemonic"
)

func (f Feature) Valid() bool {
	switch f {
	case FeatureChat, FeatureQuiz, FeatureFlashcard, FeatureChecklist, FeatureMindMap, FeatureMnemonic:
		return true
	}
	return false
}

// StudySession is one persisted unit of progress in a feature: one chat
// thread, one quiz attempt, one checklist, one deck, one mind map. The
// feature-specific state lives in the Payload JSON column and is replaced
// wholesale on every write (last write wins, no merge).
type StudySession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_session_user_feature" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Feature   Feature        `gorm:"not null;index:idx_session_user_feature;column:feature" json:"feature"`
	Title     string         `gorm:"column:title" json:"title"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Progress  int            `gorm:"column:progress;not null;default:0" json:"progress"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"last_updated"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudySession) TableName() string { return "study_session" }
