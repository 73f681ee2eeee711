package usecase

import (
	"context"
	"io"
	"time"

	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

const (
	// SearchPageSize размер страницы поиска для пользователей
	SearchPageSize = 10
	// AdminPageSize размер страницы списка книг в админке
	AdminPageSize = 12
)

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO)
type FileStorage interface {
	// UploadFile загружает файл в хранилище и возвращает его публичный URL.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// CoverFetcher скачивает изображение обложки по внешнему URL
type CoverFetcher interface {
	FetchCover(ctx context.Context, sourceURL string) (io.ReadCloser, string, error)
}

// SearchInput параметры поиска, как они пришли из запроса
type SearchInput struct {
	Term          string
	SortOption    string
	AvailableOnly *bool
	Page          int
}

// RentInput запрос на аренду после разбора дат
type RentInput struct {
	ISBN      string    `json:"isbn" validate:"required"`
	UserID    int64     `json:"userId" validate:"required,min=1"`
	AddressID int64     `json:"addressId" validate:"required,min=1"`
	CardID    int64     `json:"cardId" validate:"required,min=1"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
}

// RateInput оценка книги пользователем
type RateInput struct {
	ISBN   string `json:"isbn" validate:"required"`
	UserID int64  `json:"userId" validate:"required,min=1"`
	Score  int    `json:"bookRating" validate:"min=1,max=10"`
}

// BookUseCase определяет бизнес-логику каталога и аренды
type BookUseCase interface {
	// SearchBooks ищет книги по подстроке в названии, авторе или издателе
	SearchBooks(ctx context.Context, in SearchInput) (*domain.SearchResult, error)

	// GetBook возвращает книгу со средней оценкой
	GetBook(ctx context.Context, isbn string) (*domain.BookWithRating, error)

	// RentBook проверяет даты, адрес, карту и доступность книги и оформляет аренду
	RentBook(ctx context.Context, in RentInput) (*domain.Reservation, error)

	// ReturnBook закрывает аренду и возвращает книге доступность
	ReturnBook(ctx context.Context, reservationID, userID int64) error

	// RateBook сохраняет оценку книги пользователем
	RateBook(ctx context.Context, in RateInput) error

	// GetUserBooks возвращает текущие аренды пользователя
	GetUserBooks(ctx context.Context, userID int64) ([]domain.UserBook, error)
}

// CoverUseCase зеркалирует обложки книг в собственное хранилище
type CoverUseCase interface {
	MirrorCover(ctx context.Context, payload payloads.CoverMirrorPayload) error
}
