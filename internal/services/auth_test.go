package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/requestdata"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type stubTokenRepo struct{}

func (stubTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*types.UserToken) ([]*types.UserToken, error) {
	return tokens, nil
}

func (stubTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	return nil, nil
}

func (stubTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
	return nil, nil
}

func (stubTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
	return nil, nil
}

func (stubTokenRepo) FullDeleteByTokens(ctx context.Context, tx *gorm.DB, tokens []*types.UserToken) error {
	return nil
}

func newAuthFixture(t *testing.T, secret string) AuthService {
	t.Helper()
	return NewAuthService(nil, testLogger(t), nil, stubTokenRepo{}, secret, time.Hour, 24*time.Hour)
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSetContextFromTokenAcceptsHS256(t *testing.T) {
	const secret = "test-secret"
	auth := newAuthFixture(t, secret)
	userID := uuid.New()

	tokenString := signToken(t, jwt.SigningMethodHS256, secret, userID.String(), time.Hour)
	ctx, err := auth.SetContextFromToken(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID {
		t.Fatalf("expected request data for user %s, got %+v", userID, rd)
	}
}

// Only HS256 tokens are issued, so a token signed with any other method must
// be rejected at parse time even when the HMAC key would verify it.
func TestSetContextFromTokenRejectsOtherSigningMethods(t *testing.T) {
	const secret = "test-secret"
	auth := newAuthFixture(t, secret)
	userID := uuid.New()

	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		tokenString := signToken(t, method, secret, userID.String(), time.Hour)
		if _, err := auth.SetContextFromToken(context.Background(), tokenString); err == nil {
			t.Fatalf("expected %s token to be rejected", method.Alg())
		}
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	const secret = "test-secret"
	auth := newAuthFixture(t, secret)

	tokenString := signToken(t, jwt.SigningMethodHS256, secret, uuid.NewString(), -time.Minute)
	if _, err := auth.SetContextFromToken(context.Background(), tokenString); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
