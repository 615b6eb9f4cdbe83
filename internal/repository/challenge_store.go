//go:generate mockery --name ChallengeStore --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigster_auth/internal/middleware"
	"gigster_auth/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChallengeStore keeps pending activations and OTP challenges. Reads do not
// check expiry; callers compare ExpiresAt against their own clock.
type ChallengeStore interface {
	// SavePendingActivation inserts or replaces the activation for p.Email.
	SavePendingActivation(ctx context.Context, p *model.PendingActivation) error
	FindPendingActivationByToken(ctx context.Context, token string) (*model.PendingActivation, error)
	FindPendingActivationByEmail(ctx context.Context, email string) (*model.PendingActivation, error)
	DeletePendingActivation(ctx context.Context, token string) error

	// SaveChallenge inserts or replaces the challenge for (c.UserID, c.Kind).
	SaveChallenge(ctx context.Context, c *model.Challenge) error
	FindChallengeByToken(ctx context.Context, token string, kind model.ChallengeKind) (*model.Challenge, error)
	DeleteChallenge(ctx context.Context, token string) error

	// DeleteExpired removes records whose expiry is before now and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormChallengeStore struct {
	db *gorm.DB
}

func NewGormChallengeStore(db *gorm.DB) ChallengeStore {
	return &gormChallengeStore{db: db}
}

func (s *gormChallengeStore) SavePendingActivation(ctx context.Context, p *model.PendingActivation) error {
	logger := middleware.GetLogger(ctx)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "payload", "otp", "expires_at", "created_at"}),
		}).
		Create(p).Error
	if err != nil {
		logger.Error("Failed to save pending activation", "error", err, "email", p.Email)
		return fmt.Errorf("gormChallengeStore.SavePendingActivation: %w", err)
	}
	return nil
}

func (s *gormChallengeStore) FindPendingActivationByToken(ctx context.Context, token string) (*model.PendingActivation, error) {
	return s.findPendingActivation(ctx, "FindPendingActivationByToken", "token = ?", token)
}

func (s *gormChallengeStore) FindPendingActivationByEmail(ctx context.Context, email string) (*model.PendingActivation, error) {
	return s.findPendingActivation(ctx, "FindPendingActivationByEmail", "email = ?", email)
}

func (s *gormChallengeStore) findPendingActivation(ctx context.Context, op, query, arg string) (*model.PendingActivation, error) {
	logger := middleware.GetLogger(ctx)
	var p model.PendingActivation
	if err := s.db.WithContext(ctx).Where(query, arg).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Failed to find pending activation", "error", err, "op", op)
		return nil, fmt.Errorf("gormChallengeStore.%s: %w", op, err)
	}
	return &p, nil
}

func (s *gormChallengeStore) DeletePendingActivation(ctx context.Context, token string) error {
	logger := middleware.GetLogger(ctx)
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.PendingActivation{}).Error; err != nil {
		logger.Error("Failed to delete pending activation", "error", err)
		return fmt.Errorf("gormChallengeStore.DeletePendingActivation: %w", err)
	}
	return nil
}

func (s *gormChallengeStore) SaveChallenge(ctx context.Context, c *model.Challenge) error {
	logger := middleware.GetLogger(ctx)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "otp", "expires_at", "updated_at"}),
		}).
		Create(c).Error
	if err != nil {
		logger.Error("Failed to save challenge", "error", err, "user_id", c.UserID, "kind", c.Kind)
		return fmt.Errorf("gormChallengeStore.SaveChallenge: %w", err)
	}
	return nil
}

func (s *gormChallengeStore) FindChallengeByToken(ctx context.Context, token string, kind model.ChallengeKind) (*model.Challenge, error) {
	logger := middleware.GetLogger(ctx)
	var c model.Challenge
	err := s.db.WithContext(ctx).
		Where("token = ? AND kind = ?", token, kind).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Failed to find challenge", "error", err, "kind", kind)
		return nil, fmt.Errorf("gormChallengeStore.FindChallengeByToken: %w", err)
	}
	return &c, nil
}

func (s *gormChallengeStore) DeleteChallenge(ctx context.Context, token string) error {
	logger := middleware.GetLogger(ctx)
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Challenge{}).Error; err != nil {
		logger.Error("Failed to delete challenge", "error", err)
		return fmt.Errorf("gormChallengeStore.DeleteChallenge: %w", err)
	}
	return nil
}

func (s *gormChallengeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", now).Delete(&model.PendingActivation{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("expires_at < ?", now).Delete(&model.Challenge{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("gormChallengeStore.DeleteExpired: %w", err)
	}
	return total, nil
}
