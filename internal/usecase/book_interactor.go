package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/domain"
)

// bookUseCase implements BookUseCase
type bookUseCase struct {
	books        ports.BookStorage
	ratings      ports.RatingStorage
	reservations ports.ReservationStorage
	users        ports.UserStorage
	addresses    ports.AddressStorage
	cards        ports.CardStorage
	logger       *slog.Logger
	now          func() time.Time
}

// NewBookUseCase создает новый экземпляр BookUseCase
func NewBookUseCase(
	books ports.BookStorage,
	ratings ports.RatingStorage,
	reservations ports.ReservationStorage,
	users ports.UserStorage,
	addresses ports.AddressStorage,
	cards ports.CardStorage,
	logger *slog.Logger,
) BookUseCase {
	return &bookUseCase{
		books:        books,
		ratings:      ratings,
		reservations: reservations,
		users:        users,
		addresses:    addresses,
		cards:        cards,
		logger:       logger,
		now:          time.Now,
	}
}

// SearchBooks проверяет параметры и выполняет поиск одним запросом к бд,
// средняя оценка считается там же агрегатом
func (uc *bookUseCase) SearchBooks(ctx context.Context, in SearchInput) (*domain.SearchResult, error) {
	term := strings.TrimSpace(in.Term)
	if err := validateSearchTerm(term); err != nil {
		return nil, err
	}
	if err := validatePage(in.Page); err != nil {
		return nil, err
	}

	sort := domain.SortTitleAsc
	if in.SortOption != "" {
		sort = domain.SortOption(strings.ToLower(in.SortOption))
		if !sort.IsValid() {
			return nil, domain.NewValidationError("Invalid sort option")
		}
	}

	q := domain.SearchQuery{
		Term:          term,
		Sort:          sort,
		AvailableOnly: in.AvailableOnly != nil && *in.AvailableOnly,
		Page:          in.Page,
		PageSize:      SearchPageSize,
	}

	items, total, err := uc.books.SearchBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при поиске книг: %w", err)
	}
	if items == nil {
		items = []domain.BookWithRating{}
	}

	uc.logger.Debug("books search completed", "term", term, "sort", sort, "page", in.Page, "total", total)
	return &domain.SearchResult{
		Items:      items,
		TotalCount: total,
		Page:       in.Page,
		PageSize:   SearchPageSize,
	}, nil
}

// GetBook получает книгу и считает ее среднюю оценку
func (uc *bookUseCase) GetBook(ctx context.Context, isbn string) (*domain.BookWithRating, error) {
	book, err := uc.books.GetBook(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении книги %s: %w", isbn, err)
	}
	if book == nil {
		return nil, domain.NewNotFound("Book")
	}

	scores, err := uc.ratings.ListScores(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении оценок книги %s: %w", isbn, err)
	}

	return &domain.BookWithRating{Book: *book, AverageRating: domain.AverageRating(scores)}, nil
}

// RentBook оформляет аренду. Флаг доступности и пересечения окончательно
// проверяются хранилищем в одной транзакции вместе с записью
func (uc *bookUseCase) RentBook(ctx context.Context, in RentInput) (*domain.Reservation, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := domain.ValidateRentalWindow(in.StartDate, in.EndDate, uc.now()); err != nil {
		return nil, err
	}

	book, err := uc.books.GetBook(ctx, in.ISBN)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении книги %s: %w", in.ISBN, err)
	}
	if book == nil {
		return nil, domain.NewNotFound("Book")
	}
	if !book.IsAvailable {
		return nil, domain.ErrBookUnavailable
	}

	address, err := uc.addresses.GetAddress(ctx, in.AddressID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении адреса %d: %w", in.AddressID, err)
	}
	if address == nil {
		return nil, domain.NewNotFound("Address")
	}
	if address.UserID != in.UserID {
		return nil, domain.NewValidationError("Invalid address selected")
	}

	card, err := uc.cards.GetCard(ctx, in.CardID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении карты %d: %w", in.CardID, err)
	}
	if card == nil {
		return nil, domain.NewNotFound("Credit card")
	}
	if card.UserID != in.UserID {
		return nil, domain.NewValidationError("Invalid credit card selected")
	}

	reservation := &domain.Reservation{
		ISBN:      in.ISBN,
		UserID:    in.UserID,
		AddressID: in.AddressID,
		CardID:    in.CardID,
		StartDate: domain.Truncate(in.StartDate),
		EndDate:   domain.Truncate(in.EndDate),
	}

	if err := uc.reservations.CreateReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("usecase: аренда книги %s не оформлена: %w", in.ISBN, err)
	}

	uc.logger.Info("book rented",
		"reservation_id", reservation.ID,
		"isbn", in.ISBN,
		"user_id", in.UserID,
		"start_date", reservation.StartDate.Format(time.DateOnly),
		"end_date", reservation.EndDate.Format(time.DateOnly),
	)
	return reservation, nil
}

// ReturnBook закрывает аренду пользователя
func (uc *bookUseCase) ReturnBook(ctx context.Context, reservationID, userID int64) error {
	reservation, err := uc.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении аренды %d: %w", reservationID, err)
	}
	if reservation == nil {
		return domain.NewNotFound("Reservation")
	}
	if reservation.UserID != userID {
		return domain.ErrForbidden
	}
	if !reservation.IsOpen() {
		return domain.ErrAlreadyReturned
	}

	if err := uc.reservations.CloseReservation(ctx, reservationID, uc.now()); err != nil {
		return fmt.Errorf("usecase: ошибка при возврате аренды %d: %w", reservationID, err)
	}

	uc.logger.Info("book returned", "reservation_id", reservationID, "isbn", reservation.ISBN, "user_id", userID)
	return nil
}

// RateBook сохраняет или обновляет оценку
func (uc *bookUseCase) RateBook(ctx context.Context, in RateInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	book, err := uc.books.GetBook(ctx, in.ISBN)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении книги %s: %w", in.ISBN, err)
	}
	if book == nil {
		return domain.NewNotFound("Book")
	}

	user, err := uc.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", in.UserID, err)
	}
	if user == nil {
		return domain.NewNotFound("User")
	}

	rating := &domain.Rating{ISBN: in.ISBN, UserID: in.UserID, Score: in.Score}
	if err := uc.ratings.UpsertRating(ctx, rating); err != nil {
		return fmt.Errorf("usecase: ошибка при сохранении оценки: %w", err)
	}
	return nil
}

// GetUserBooks возвращает открытые аренды пользователя с замаскированным номером карты
func (uc *bookUseCase) GetUserBooks(ctx context.Context, userID int64) ([]domain.UserBook, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", userID, err)
	}
	if user == nil {
		return nil, domain.NewNotFound("User")
	}

	books, err := uc.reservations.ListUserBooks(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении книг пользователя %d: %w", userID, err)
	}
	return decorateUserBooks(books, uc.now()), nil
}

func decorateUserBooks(books []domain.UserBook, now time.Time) []domain.UserBook {
	out := make([]domain.UserBook, 0, len(books))
	for _, b := range books {
		b.CardNumber = domain.LastFour(b.CardNumber)
		b.Status, b.RemainingDays = domain.Reservation{EndDate: b.EndDate}.StatusAt(now)
		out = append(out, b)
	}
	return out
}
