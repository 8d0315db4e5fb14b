package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenClass string

const (
	TokenClassOrg TokenClass = "org"
	TokenClassApp TokenClass = "app"
)

// AdminToken is an operator credential scoped to either an organization or a
// single app. Tokens are immutable once created except for the revoked flag;
// they are never hard-deleted so the audit trail survives revocation.
type AdminToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	OwnerType TokenClass `gorm:"type:varchar(10);not null;index" json:"owner_type"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Role      string     `gorm:"type:varchar(50)" json:"role"`
	Label     string     `gorm:"type:varchar(255)" json:"label"`
	ExpiresAt *time.Time `gorm:"default:null" json:"expires_at"`
	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AdminToken) TableName() string {
	return "admin_tokens"
}

func (t *AdminToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return nil
}

// EncodeToken prefixes the raw token material with its class so the class can
// be recovered without a lookup.
func EncodeToken(raw string, class TokenClass) string {
	return string(class) + "_" + raw
}

// DecodeToken splits an encoded token into its class and raw material. The
// encoded form must be exactly "<class>_<raw>" with a known class and a
// non-empty remainder.
func DecodeToken(encoded string) (TokenClass, string, bool) {
	parts := strings.SplitN(encoded, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}

	class := TokenClass(parts[0])
	if class != TokenClassOrg && class != TokenClassApp {
		return "", "", false
	}

	return class, parts[1], true
}
