package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "kiosa-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseStaffToken(t *testing.T) {
	cfg := testJWTConfig()
	staffID := uuid.New()

	token, err := MintStaffToken(cfg, time.Now(), StaffTokenPayload{
		StaffID: staffID,
		Email:   "ops@kiosa.shop",
		Role:    enums.StaffRoleAdmin,
	})
	require.NoError(t, err)

	claims, err := ParseStaffToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, staffID, claims.StaffID)
	assert.Equal(t, "ops@kiosa.shop", claims.Email)
	assert.Equal(t, enums.StaffRoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseStaffTokenWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintStaffToken(cfg, time.Now(), StaffTokenPayload{
		StaffID: uuid.New(),
		Role:    enums.StaffRoleSupport,
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseStaffToken(other, token)
	require.Error(t, err)
}

func TestParseStaffTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintStaffToken(cfg, time.Now().Add(-2*time.Hour), StaffTokenPayload{
		StaffID: uuid.New(),
		Role:    enums.StaffRoleAdmin,
	})
	require.NoError(t, err)

	_, err = ParseStaffToken(cfg, token)
	require.Error(t, err)
}

func TestMintStaffTokenValidation(t *testing.T) {
	cfg := testJWTConfig()

	_, err := MintStaffToken(cfg, time.Now(), StaffTokenPayload{Role: enums.StaffRoleAdmin})
	require.Error(t, err, "nil staff id must fail")

	_, err = MintStaffToken(cfg, time.Now(), StaffTokenPayload{StaffID: uuid.New(), Role: enums.StaffRole("ghost")})
	require.Error(t, err, "unknown role must fail")
}
