package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/BookWave/internal/auth"
	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/domain"
)

const (
	minRegistrationAge = 12
	maxRegistrationAge = 100
)

// TokenIssuer выпускает токен доступа после входа
type TokenIssuer interface {
	Issue(userID int64, isAdmin bool) (string, error)
}

// accountUseCase implements AccountUseCase
type accountUseCase struct {
	users     ports.UserStorage
	addresses ports.AddressStorage
	cards     ports.CardStorage
	tokens    TokenIssuer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccountUseCase создает новый экземпляр AccountUseCase
func NewAccountUseCase(
	users ports.UserStorage,
	addresses ports.AddressStorage,
	cards ports.CardStorage,
	tokens TokenIssuer,
	logger *slog.Logger,
) AccountUseCase {
	return &accountUseCase{
		users:     users,
		addresses: addresses,
		cards:     cards,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

// Register создает пользователя с bcrypt-хэшем пароля
func (uc *accountUseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	birth, err := time.Parse(time.DateOnly, in.DateOfBirth)
	if err != nil {
		return nil, domain.NewValidationError("Invalid date format. Use yyyy-MM-dd")
	}
	if err := validateBirthDate(birth, uc.now()); err != nil {
		return nil, err
	}

	existing, err := uc.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при проверке email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        in.Email,
		PasswordHash: hash,
		DateOfBirth:  birth,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при создании пользователя: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func validateBirthDate(birth, now time.Time) error {
	if birth.After(now) {
		return domain.NewValidationError("Date of birth cannot be in the future")
	}
	age := domain.Age(birth, now)
	if age < minRegistrationAge {
		return domain.NewValidationError(fmt.Sprintf("You must be at least %d years old to register", minRegistrationAge))
	}
	if age > maxRegistrationAge {
		return domain.NewValidationError("Invalid date of birth")
	}
	return nil
}

// Login проверяет пароль и выпускает токен
func (uc *accountUseCase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.users.GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при поиске пользователя: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при выпуске токена: %w", err)
	}

	return &LoginResult{
		UserID:  user.ID,
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Token:   token,
		Message: "Login successful",
	}, nil
}

// UpdateProfile меняет только заполненные поля
func (uc *accountUseCase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*domain.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Surname != "" {
		user.Surname = in.Surname
	}
	if in.Email != "" && in.Email != user.Email {
		if err := uc.ensureEmailFree(ctx, in.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = in.Email
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := uc.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении пользователя %d: %w", userID, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего
func (uc *accountUseCase) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	user, err := uc.requireUser(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, in.CurrentPassword) {
		return domain.NewValidationError("Current password is incorrect")
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return domain.NewValidationError("New passwords do not match")
	}
	if err := validateStruct(in); err != nil {
		return err
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := uc.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("usecase: ошибка при смене пароля пользователя %d: %w", userID, err)
	}

	uc.logger.Info("password changed", "user_id", userID)
	return nil
}

func (uc *accountUseCase) AddAddress(ctx context.Context, userID int64, in AddressInput) (*domain.Address, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	address := &domain.Address{UserID: userID}
	applyAddress(address, in)

	if err := uc.addresses.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при сохранении адреса: %w", err)
	}
	return address, nil
}

func (uc *accountUseCase) UpdateAddress(ctx context.Context, addressID int64, in AddressInput) (*domain.Address, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	address, err := uc.addresses.GetAddress(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении адреса %d: %w", addressID, err)
	}
	if address == nil {
		return nil, domain.NewNotFound("Address")
	}

	applyAddress(address, in)
	if err := uc.addresses.UpdateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении адреса %d: %w", addressID, err)
	}
	return address, nil
}

func (uc *accountUseCase) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	addresses, err := uc.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении адресов пользователя %d: %w", userID, err)
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}
	return addresses, nil
}

func (uc *accountUseCase) AddCard(ctx context.Context, userID int64, in CardInput) (*domain.CreditCard, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	card := &domain.CreditCard{UserID: userID}
	applyCard(card, in)

	if err := uc.cards.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при сохранении карты: %w", err)
	}
	masked := card.Masked()
	return &masked, nil
}

func (uc *accountUseCase) UpdateCard(ctx context.Context, cardID int64, in CardInput) (*domain.CreditCard, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	card, err := uc.cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении карты %d: %w", cardID, err)
	}
	if card == nil {
		return nil, domain.NewNotFound("Credit card")
	}

	applyCard(card, in)
	if err := uc.cards.UpdateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении карты %d: %w", cardID, err)
	}
	masked := card.Masked()
	return &masked, nil
}

func (uc *accountUseCase) ListCards(ctx context.Context, userID int64) ([]domain.CreditCard, error) {
	cards, err := uc.cards.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении карт пользователя %d: %w", userID, err)
	}

	out := make([]domain.CreditCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Masked())
	}
	return out, nil
}

func (uc *accountUseCase) requireUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewNotFound("User")
	}
	return user, nil
}

func (uc *accountUseCase) ensureEmailFree(ctx context.Context, email string, ownerID int64) error {
	other, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при проверке email: %w", err)
	}
	if other != nil && other.ID != ownerID {
		return domain.ErrEmailTaken
	}
	return nil
}

func applyAddress(a *domain.Address, in AddressInput) {
	a.AddressName = in.AddressName
	a.Country = in.Country
	a.City = in.City
	a.District = in.District
	a.PostalCode = in.PostalCode
	a.AddressLine = in.AddressLine
}

func applyCard(c *domain.CreditCard, in CardInput) {
	c.CardName = in.CardName
	c.CardNumber = in.CardNumber
	c.CardHolderName = in.CardHolderName
	c.ExpirationMonth = in.ExpirationMonth
	c.ExpirationYear = in.ExpirationYear
	c.CVV = in.CVV
}
