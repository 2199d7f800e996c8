package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. TENANT_ADMIN is the provisioning role handed out on signup;
// SUPER_ADMIN unlocks the back office.
const (
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleSuperAdmin  = "SUPER_ADMIN"
)

// User represents a platform login tied to a tenant
type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Name           *string   `json:"name,omitempty" gorm:"type:varchar(100)"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`
	Role           string    `json:"role" gorm:"type:varchar(30);not null;default:'TENANT_ADMIN'"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`

	EmailVerified   bool       `json:"email_verified" gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLogin       *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
