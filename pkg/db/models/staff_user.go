package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// StaffUser is a back-office account. Customers never authenticate; staff do.
type StaffUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	FullName     string          `gorm:"column:full_name;type:text;not null"`
	PasswordHash string          `gorm:"column:password_hash;type:text;not null"`
	Role         enums.StaffRole `gorm:"column:role;type:staff_role;not null"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
