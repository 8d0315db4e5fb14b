package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription mirrors the billing provider's subscription state. Rows are
// created and mutated exclusively by the billing reconciler; application code
// must never hand-edit the billing period fields.
type Subscription struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID                uuid.UUID          `gorm:"type:uuid;not null;index" json:"org_id"`
	StripeSubscriptionID string             `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	PeriodStart          time.Time          `gorm:"not null" json:"period_start"`
	PeriodEnd            time.Time          `gorm:"not null" json:"period_end"`
	IsDeleted            bool               `gorm:"not null;default:false;index" json:"is_deleted"`
	Items                []SubscriptionItem `gorm:"foreignKey:SubscriptionID" json:"items"`
	CreatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	return nil
}

func (s *Subscription) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}

// HasMeteredItem reports whether any item bills exact usage. A metered
// subscription never gets a local quota check.
func (s *Subscription) HasMeteredItem() bool {
	for _, item := range s.Items {
		if item.Metered {
			return true
		}
	}
	return false
}

// MeteredItem returns the first metered item, if any. Overage reports are
// keyed on its provider item id.
func (s *Subscription) MeteredItem() *SubscriptionItem {
	for i := range s.Items {
		if s.Items[i].Metered {
			return &s.Items[i]
		}
	}
	return nil
}

// BaseItem returns the first unmetered item, if any. Its product carries the
// included-request allowance.
func (s *Subscription) BaseItem() *SubscriptionItem {
	for i := range s.Items {
		if !s.Items[i].Metered {
			return &s.Items[i]
		}
	}
	return nil
}

type SubscriptionItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index" json:"subscription_id"`
	StripeItemID   string    `gorm:"type:varchar(255);not null" json:"-"`
	ProductID      string    `gorm:"type:varchar(255);not null" json:"product_id"`
	Metered        bool      `gorm:"not null;default:false" json:"metered"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SubscriptionItem) TableName() string {
	return "subscription_items"
}

func (i *SubscriptionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	return nil
}
