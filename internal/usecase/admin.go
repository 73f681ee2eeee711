package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

// AdminUpdateUserInput поля, которые администратор может менять у пользователя
type AdminUpdateUserInput struct {
	Name    string `json:"name" validate:"required,notblank,min=2,max=50"`
	Surname string `json:"surname" validate:"required,notblank,min=2,max=50"`
	Email   string `json:"email" validate:"required,email"`
	IsAdmin bool   `json:"isAdmin"`
}

// UpdateBookInput все поля книги, включая флаг доступности
type UpdateBookInput struct {
	Title          string `json:"bookTitle" validate:"required,notblank"`
	Author         string `json:"bookAuthor" validate:"required,notblank"`
	Year           int    `json:"yearOfPublication" validate:"min=0,max=2100"`
	Publisher      string `json:"publisher"`
	ImageURLSmall  string `json:"imageUrlSmall" validate:"omitempty,url"`
	ImageURLMedium string `json:"imageUrlMedium" validate:"omitempty,url"`
	ImageURLLarge  string `json:"imageUrlLarge" validate:"omitempty,url"`
	IsAvailable    bool   `json:"isAvailable"`
}

// AdminBookPage страница списка книг в админке
type AdminBookPage struct {
	Books       []domain.Book `json:"books"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// AdminUseCase определяет операции администратора
type AdminUseCase interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	// GetUserRentals возвращает все аренды пользователя со статусом Active/Overdue
	GetUserRentals(ctx context.Context, userID int64) ([]domain.UserBook, error)
	UpdateUser(ctx context.Context, userID int64, in AdminUpdateUserInput) (*domain.User, error)
	// DeleteUser запрещено при наличии аренды, которая заканчивается сегодня или позже
	DeleteUser(ctx context.Context, userID int64) error

	ListBooks(ctx context.Context, term string, page int) (*AdminBookPage, error)
	// UpdateBook при смене большой обложки ставит задачу на ее зеркалирование
	UpdateBook(ctx context.Context, isbn string, in UpdateBookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, isbn string) error
}

type adminUseCase struct {
	users        ports.UserStorage
	books        ports.BookStorage
	reservations ports.ReservationStorage
	publisher    ports.CoverMirrorPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewAdminUseCase создает новый экземпляр AdminUseCase.
// publisher может быть nil, тогда обложки не зеркалируются
func NewAdminUseCase(
	users ports.UserStorage,
	books ports.BookStorage,
	reservations ports.ReservationStorage,
	publisher ports.CoverMirrorPublisher,
	logger *slog.Logger,
) AdminUseCase {
	return &adminUseCase{
		users:        users,
		books:        books,
		reservations: reservations,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

func (uc *adminUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := uc.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователей: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (uc *adminUseCase) GetUserRentals(ctx context.Context, userID int64) ([]domain.UserBook, error) {
	if _, err := uc.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	books, err := uc.reservations.ListUserBooks(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении аренд пользователя %d: %w", userID, err)
	}
	return decorateUserBooks(books, uc.now()), nil
}

func (uc *adminUseCase) UpdateUser(ctx context.Context, userID int64, in AdminUpdateUserInput) (*domain.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(in.Email, user.Email) {
		other, err := uc.users.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, domain.ErrEmailTaken
		}
	}

	user.Name = in.Name
	user.Surname = in.Surname
	user.Email = in.Email
	user.IsAdmin = in.IsAdmin

	if err := uc.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении пользователя %d: %w", userID, err)
	}

	uc.logger.Info("user updated by admin", "user_id", userID, "is_admin", user.IsAdmin)
	return user, nil
}

func (uc *adminUseCase) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := uc.requireUser(ctx, userID); err != nil {
		return err
	}

	active, err := uc.reservations.HasActiveForUser(ctx, userID, domain.Truncate(uc.now()))
	if err != nil {
		return fmt.Errorf("usecase: ошибка при проверке аренд пользователя %d: %w", userID, err)
	}
	if active {
		return fmt.Errorf("cannot delete user with active reservations: %w", domain.ErrHasActiveRentals)
	}

	if err := uc.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении пользователя %d: %w", userID, err)
	}

	uc.logger.Info("user deleted by admin", "user_id", userID)
	return nil
}

func (uc *adminUseCase) ListBooks(ctx context.Context, term string, page int) (*AdminBookPage, error) {
	if page <= 0 {
		page = 1
	}

	books, total, err := uc.books.ListBooks(ctx, strings.TrimSpace(term), page, AdminPageSize)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении списка книг: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}

	return &AdminBookPage{
		Books:       books,
		TotalPages:  int(math.Ceil(float64(total) / float64(AdminPageSize))),
		CurrentPage: page,
	}, nil
}

func (uc *adminUseCase) UpdateBook(ctx context.Context, isbn string, in UpdateBookInput) (*domain.Book, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	book, err := uc.books.GetBook(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении книги %s: %w", isbn, err)
	}
	if book == nil {
		return nil, domain.NewNotFound("Book")
	}

	coverChanged := in.ImageURLLarge != "" && in.ImageURLLarge != book.ImageURLLarge

	book.Title = in.Title
	book.Author = in.Author
	book.Year = in.Year
	book.Publisher = in.Publisher
	book.ImageURLSmall = in.ImageURLSmall
	book.ImageURLMedium = in.ImageURLMedium
	book.ImageURLLarge = in.ImageURLLarge
	book.IsAvailable = in.IsAvailable

	if err := uc.books.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при обновлении книги %s: %w", isbn, err)
	}

	if coverChanged && uc.publisher != nil {
		payload := payloads.CoverMirrorPayload{
			RequestID: uuid.NewString(),
			ISBN:      isbn,
			SourceURL: in.ImageURLLarge,
		}
		// ошибка публикации только логируется
		if err := uc.publisher.PublishCoverMirrorRequest(ctx, payload); err != nil {
			uc.logger.Error("failed to publish cover mirror request", "isbn", isbn, "error", err)
		}
	}

	uc.logger.Info("book updated by admin", "isbn", isbn, "is_available", book.IsAvailable)
	return book, nil
}

func (uc *adminUseCase) DeleteBook(ctx context.Context, isbn string) error {
	book, err := uc.books.GetBook(ctx, isbn)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении книги %s: %w", isbn, err)
	}
	if book == nil {
		return domain.NewNotFound("Book")
	}

	active, err := uc.reservations.HasActiveForBook(ctx, isbn, uc.now())
	if err != nil {
		return fmt.Errorf("usecase: ошибка при проверке аренд книги %s: %w", isbn, err)
	}
	if active {
		return fmt.Errorf("cannot delete book with active reservations: %w", domain.ErrHasActiveRentals)
	}

	if err := uc.books.DeleteBook(ctx, isbn); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении книги %s: %w", isbn, err)
	}

	uc.logger.Info("book deleted by admin", "isbn", isbn)
	return nil
}

func (uc *adminUseCase) requireUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewNotFound("User")
	}
	return user, nil
}
