package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// GormUserStorage реализует ports.UserStorage с использованием GORM
type GormUserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormUserStorage создает новый экземпляр GormUserStorage
func NewGormUserStorage(db *gorm.DB, logger *slog.Logger) *GormUserStorage {
	return &GormUserStorage{db: db, logger: logger}
}

// CreateUser сохраняет пользователя, дубликат email возвращает domain.ErrEmailTaken
func (s *GormUserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		s.logger.Error("failed to create user", "error", result.Error)
		return fmt.Errorf("ошибка при создании пользователя с GORM: %w", result.Error)
	}
	return nil
}

func (s *GormUserStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя по ID с GORM: %w", result.Error)
	}
	return &user, nil
}

// GetUserByEmail ищет пользователя без учета регистра email
func (s *GormUserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя по email с GORM: %w", result.Error)
	}
	return &user, nil
}

func (s *GormUserStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		s.logger.Error("failed to update user", "user_id", user.ID, "error", result.Error)
		return fmt.Errorf("ошибка при обновлении пользователя с GORM: %w", result.Error)
	}
	return nil
}

// DeleteUser удаляет пользователя, адреса, карты, оценки и аренды удаляются каскадом
func (s *GormUserStorage) DeleteUser(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.User{}, id)
	if result.Error != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", result.Error)
		return fmt.Errorf("ошибка при удалении пользователя с GORM: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFound("User")
	}
	return nil
}

func (s *GormUserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей с GORM: %w", err)
	}
	return users, nil
}
