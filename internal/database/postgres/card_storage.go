package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// GormCardStorage реализует ports.CardStorage. CVV хранится как есть,
// маскирование выполняется в usecase
type GormCardStorage struct {
	db *gorm.DB
}

func NewGormCardStorage(db *gorm.DB) *GormCardStorage {
	return &GormCardStorage{db: db}
}

func (s *GormCardStorage) CreateCard(ctx context.Context, card *domain.CreditCard) error {
	if err := s.db.WithContext(ctx).Create(card).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.NewNotFound("User")
		}
		return fmt.Errorf("ошибка при сохранении карты с GORM: %w", err)
	}
	return nil
}

func (s *GormCardStorage) GetCard(ctx context.Context, id int64) (*domain.CreditCard, error) {
	var card domain.CreditCard
	if err := s.db.WithContext(ctx).First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении карты с GORM: %w", err)
	}
	return &card, nil
}

func (s *GormCardStorage) UpdateCard(ctx context.Context, card *domain.CreditCard) error {
	if err := s.db.WithContext(ctx).Save(card).Error; err != nil {
		return fmt.Errorf("ошибка при обновлении карты с GORM: %w", err)
	}
	return nil
}

func (s *GormCardStorage) ListCards(ctx context.Context, userID int64) ([]domain.CreditCard, error) {
	var cards []domain.CreditCard
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении карт с GORM: %w", err)
	}
	return cards, nil
}
