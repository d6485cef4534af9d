package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

// StaffTokenPayload captures the data available when minting a staff JWT.
type StaffTokenPayload struct {
	StaffID uuid.UUID
	Email   string
	Role    enums.StaffRole
	JTI     string
}

// StaffTokenClaims is the typed JWT issued to back-office staff.
type StaffTokenClaims struct {
	StaffID uuid.UUID       `json:"staff_id"`
	Email   string          `json:"email"`
	Role    enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
