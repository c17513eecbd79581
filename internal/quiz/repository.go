package quiz

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveResult appends a result. Results are never updated.
func (r *Repository) SaveResult(ctx context.Context, result *models.QuizResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		log.Printf("Error creating quiz result %s: %v", result.ID, err)
		return fmt.Errorf("create quiz result: %v: %w", err, apperrors.ErrPersistence)
	}
	log.Printf("Created quiz result %s for user %s", result.ID, result.UserID)
	return nil
}

func (r *Repository) ListResultsByUser(ctx context.Context, userID string) ([]models.QuizResult, error) {
	var results []models.QuizResult
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %v: %w", err, apperrors.ErrPersistence)
	}
	return results, nil
}
