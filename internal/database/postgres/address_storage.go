package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// GormAddressStorage реализует ports.AddressStorage
type GormAddressStorage struct {
	db *gorm.DB
}

func NewGormAddressStorage(db *gorm.DB) *GormAddressStorage {
	return &GormAddressStorage{db: db}
}

func (s *GormAddressStorage) CreateAddress(ctx context.Context, address *domain.Address) error {
	if err := s.db.WithContext(ctx).Create(address).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.NewNotFound("User")
		}
		return fmt.Errorf("ошибка при сохранении адреса с GORM: %w", err)
	}
	return nil
}

func (s *GormAddressStorage) GetAddress(ctx context.Context, id int64) (*domain.Address, error) {
	var address domain.Address
	if err := s.db.WithContext(ctx).First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении адреса с GORM: %w", err)
	}
	return &address, nil
}

func (s *GormAddressStorage) UpdateAddress(ctx context.Context, address *domain.Address) error {
	if err := s.db.WithContext(ctx).Save(address).Error; err != nil {
		return fmt.Errorf("ошибка при обновлении адреса с GORM: %w", err)
	}
	return nil
}

func (s *GormAddressStorage) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	var addresses []domain.Address
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении адресов с GORM: %w", err)
	}
	return addresses, nil
}
