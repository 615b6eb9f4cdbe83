package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"gigster_auth/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestDB opens a private in-memory sqlite database with the schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := NewDB("sqlite", dsn, testLogger)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db, "sqlite"))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, NewGormUserRepository().Create(context.Background(), db, user))
	return user
}

func newChallenge(userID uuid.UUID, kind model.ChallengeKind, otp string, expiresAt time.Time) *model.Challenge {
	return &model.Challenge{
		Token:     uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		OTP:       otp,
		ExpiresAt: expiresAt,
	}
}

func newActivation(t *testing.T, email, otp string, expiresAt time.Time) *model.PendingActivation {
	t.Helper()
	p, err := model.NewPendingActivation(model.RegistrationPayload{
		Username:     "user-" + otp,
		Email:        email,
		PasswordHash: "hash",
	}, otp, uuid.NewString(), expiresAt)
	require.NoError(t, err)
	return p
}
