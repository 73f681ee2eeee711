package ports

import (
	"context"
	"time"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// BookStorage определяет методы для работы с каталогом книг
type BookStorage interface {
	// GetBook возвращает книгу по ISBN или nil, если ее нет
	GetBook(ctx context.Context, isbn string) (*domain.Book, error)
	// SearchBooks ищет книги с фильтрацией, сортировкой и пагинацией, возвращает страницу и общее количество
	SearchBooks(ctx context.Context, q domain.SearchQuery) ([]domain.BookWithRating, int, error)
	// ListBooks постраничный список для администратора (поиск по названию, автору и ISBN)
	ListBooks(ctx context.Context, term string, page, perPage int) ([]domain.Book, int, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	UpdateCoverURLs(ctx context.Context, isbn, small, medium, large string) error
	DeleteBook(ctx context.Context, isbn string) error
}

// RatingStorage определяет методы для работы с оценками
type RatingStorage interface {
	// UpsertRating создает оценку или обновляет существующую для пары (user, isbn)
	UpsertRating(ctx context.Context, rating *domain.Rating) error
	// ListScores возвращает все оценки книги
	ListScores(ctx context.Context, isbn string) ([]int, error)
}

// ReservationStorage определяет методы журнала аренды
type ReservationStorage interface {
	// CreateReservation атомарно проверяет доступность книги и пересечения,
	// сохраняет аренду и снимает флаг доступности
	CreateReservation(ctx context.Context, reservation *domain.Reservation) error
	// GetReservation возвращает аренду по ID или nil
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	// CloseReservation отмечает возврат и при необходимости возвращает книге доступность
	CloseReservation(ctx context.Context, id int64, returnedAt time.Time) error
	// ListUserBooks возвращает аренды пользователя вместе с книгой, адресом и картой
	ListUserBooks(ctx context.Context, userID int64, openOnly bool) ([]domain.UserBook, error)
	HasActiveForUser(ctx context.Context, userID int64, since time.Time) (bool, error)
	HasActiveForBook(ctx context.Context, isbn string, since time.Time) (bool, error)
}

// UserStorage определяет методы для работы с пользователями
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// AddressStorage определяет методы для работы с адресами
type AddressStorage interface {
	CreateAddress(ctx context.Context, address *domain.Address) error
	GetAddress(ctx context.Context, id int64) (*domain.Address, error)
	UpdateAddress(ctx context.Context, address *domain.Address) error
	ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error)
}

// CardStorage определяет методы для работы с платежными картами
type CardStorage interface {
	CreateCard(ctx context.Context, card *domain.CreditCard) error
	GetCard(ctx context.Context, id int64) (*domain.CreditCard, error)
	UpdateCard(ctx context.Context, card *domain.CreditCard) error
	ListCards(ctx context.Context, userID int64) ([]domain.CreditCard, error)
}
