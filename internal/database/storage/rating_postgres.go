package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// pqForeignKeyViolation код ошибки postgres при нарушении внешнего ключа
const pqForeignKeyViolation = "23503"

type RatingStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRatingStorage(db *sqlx.DB, logger *slog.Logger) *RatingStorage {
	return &RatingStorage{db: db, logger: logger}
}

// UpsertRating одна оценка на пару (user_id, isbn), повторная оценка перезаписывает score
func (s *RatingStorage) UpsertRating(ctx context.Context, rating *domain.Rating) error {
	err := s.db.GetContext(ctx, &rating.ID, `
	INSERT INTO ratings (user_id, isbn, score)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, isbn) DO UPDATE SET score = EXCLUDED.score
	RETURNING id`, rating.UserID, rating.ISBN, rating.Score)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			s.logger.Warn("rating references missing row", "isbn", rating.ISBN, "user_id", rating.UserID, "constraint", pqErr.Constraint)
			return domain.NewNotFound("Book or user")
		}
		s.logger.Error("failed to upsert rating", "isbn", rating.ISBN, "user_id", rating.UserID, "error", err)
		return fmt.Errorf("ошибка при сохранении оценки: %w", err)
	}

	s.logger.Info("rating saved", "rating_id", rating.ID, "isbn", rating.ISBN, "user_id", rating.UserID, "score", rating.Score)
	return nil
}

func (s *RatingStorage) ListScores(ctx context.Context, isbn string) ([]int, error) {
	var scores []int
	if err := s.db.SelectContext(ctx, &scores, `SELECT score FROM ratings WHERE isbn = $1`, isbn); err != nil {
		s.logger.Error("failed to list scores", "isbn", isbn, "error", err)
		return nil, fmt.Errorf("ошибка при получении оценок: %w", err)
	}
	return scores, nil
}
