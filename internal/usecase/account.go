package usecase

import (
	"context"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// RegisterInput данные регистрации
type RegisterInput struct {
	Name        string `json:"name" validate:"required,notblank,min=2,max=50"`
	Surname     string `json:"surname" validate:"required,notblank,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

// LoginInput данные входа
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult ответ на успешный вход
type LoginResult struct {
	UserID  int64  `json:"userId"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// UpdateProfileInput частичное обновление профиля, пустые поля не меняются
type UpdateProfileInput struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=50"`
	Surname  string `json:"surname" validate:"omitempty,min=2,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,password"`
}

// ChangePasswordInput смена пароля
type ChangePasswordInput struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,password"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

// AddressInput поля адреса, все обязательные
type AddressInput struct {
	AddressName string `json:"addressName" validate:"required,notblank"`
	Country     string `json:"country" validate:"required,notblank"`
	City        string `json:"city" validate:"required,notblank"`
	District    string `json:"district" validate:"required,notblank"`
	PostalCode  string `json:"postalCode" validate:"required,notblank"`
	AddressLine string `json:"addressLine" validate:"required,notblank"`
}

// CardInput поля платежной карты
type CardInput struct {
	CardName        string `json:"cardName" validate:"required,notblank"`
	CardNumber      string `json:"cardNumber" validate:"required,numeric,min=12,max=19"`
	CardHolderName  string `json:"cardHolderName" validate:"required,notblank"`
	ExpirationMonth int    `json:"expirationMonth" validate:"min=1,max=12"`
	ExpirationYear  int    `json:"expirationYear" validate:"min=2000,max=2100"`
	CVV             string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// AccountUseCase определяет бизнес-логику учетных записей, адресов и карт
type AccountUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error

	AddAddress(ctx context.Context, userID int64, in AddressInput) (*domain.Address, error)
	UpdateAddress(ctx context.Context, addressID int64, in AddressInput) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error)

	// методы карт возвращают карты с замаскированным CVV
	AddCard(ctx context.Context, userID int64, in CardInput) (*domain.CreditCard, error)
	UpdateCard(ctx context.Context, cardID int64, in CardInput) (*domain.CreditCard, error)
	ListCards(ctx context.Context, userID int64) ([]domain.CreditCard, error)
}
