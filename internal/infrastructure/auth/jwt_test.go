package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "hospfin-test",
	})
}

func TestJWTService_GenerateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(GenerateTokenInput{
		HospitalID: "hosp-001",
		UserID:     userID,
		Username:   "budi",
		Role:       identity.RoleFinance,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	t.Run("validates a freshly issued token", func(t *testing.T) {
		token, err := svc.GenerateToken(GenerateTokenInput{
			HospitalID: "hosp-001",
			UserID:     userID,
			Username:   "budi",
			Role:       identity.RoleAdmin,
		})
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "hosp-001", claims.HospitalID)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "hospfin-test", claims.Issuer)
		assert.NotEmpty(t, claims.ID, "token must carry a JTI for revocation")
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-also-long-enough",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "hospfin-test",
		})
		token, err := other.GenerateToken(GenerateTokenInput{
			HospitalID: "hosp-001",
			UserID:     userID,
			Role:       identity.RoleViewer,
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-that-is-long-enough",
			AccessTokenExpiration: -1 * time.Minute,
			Issuer:                "hospfin-test",
		})
		token, err := expired.GenerateToken(GenerateTokenInput{
			HospitalID: "hosp-001",
			UserID:     userID,
			Role:       identity.RoleViewer,
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		token, err := svc.GenerateToken(GenerateTokenInput{
			HospitalID: "hosp-001",
			UserID:     userID,
			Role:       identity.Role("superuser"),
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrUnknownRole)
	})
}

func TestClaims_Actor(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(GenerateTokenInput{
		HospitalID: "hosp-001",
		UserID:     userID,
		Username:   "sari",
		Role:       identity.RoleFinance,
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, identity.RoleFinance, actor.Role)
	assert.Equal(t, "hosp-001", actor.HospitalID)
	assert.True(t, actor.HasCapability(identity.CapApproveReports))
	assert.False(t, actor.HasCapability(identity.CapManageSettings))
}
