package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is the unit client SDKs authenticate as, via its public key. The public
// key is generated once at creation and never reused across apps.
type App struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	PublicKey string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"public_key"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (App) TableName() string {
	return "apps"
}

func (a *App) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	return nil
}

func (a *App) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}
