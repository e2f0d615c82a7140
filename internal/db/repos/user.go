package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// ErrUserNotFound is returned when a user lookup misses
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for user quota rows
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository handles database operations for user entities
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Create creates a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by their ID
// Returns ErrUserNotFound if the user doesn't exist
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(models.UserIDField+" = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetOrCreate returns the user row, inserting an empty free-tier row on first sight.
// User identities are owned by the upstream auth system.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.User{ID: userID}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return r.GetByID(ctx, userID)
}

// Update saves the subscription and credit fields of an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ConsumeCredit uses one purchased credit if any is left
func (r *UserRepository) ConsumeCredit(ctx context.Context, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Where(models.UserUsedCreditsField + " < " + models.UserPurchasedCreditsField).
		Update(models.UserUsedCreditsField, gorm.Expr(models.UserUsedCreditsField+" + 1"))
	return result.RowsAffected == 1, result.Error
}

// ConsumeFreeTrial uses one free trial while below limit
func (r *UserRepository) ConsumeFreeTrial(ctx context.Context, userID string, limit int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Where(models.UserFreeTrialsUsedField+" < ?", limit).
		Update(models.UserFreeTrialsUsedField, gorm.Expr(models.UserFreeTrialsUsedField+" + 1"))
	return result.RowsAffected == 1, result.Error
}

// ConsumePlanUnit uses one unit of the subscription period while below allowance
func (r *UserRepository) ConsumePlanUnit(ctx context.Context, userID string, allowance int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Where(models.UserPeriodUsageField+" < ?", allowance).
		Update(models.UserPeriodUsageField, gorm.Expr(models.UserPeriodUsageField+" + 1"))
	return result.RowsAffected == 1, result.Error
}

// IncrementPeriodUsage records one plan unit without a guard
func (r *UserRepository) IncrementPeriodUsage(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Update(models.UserPeriodUsageField, gorm.Expr(models.UserPeriodUsageField+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// IncrementFreeTrials records one free trial without a guard
func (r *UserRepository) IncrementFreeTrials(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Update(models.UserFreeTrialsUsedField, gorm.Expr(models.UserFreeTrialsUsedField+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

// ResetPeriod starts a new subscription period
func (r *UserRepository) ResetPeriod(ctx context.Context, userID string, startedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where(models.UserIDField+" = ?", userID).
		Updates(map[string]interface{}{
			models.UserPeriodUsageField:     0,
			models.UserPeriodStartedAtField: startedAt,
		}).Error
}
