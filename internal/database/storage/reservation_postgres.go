package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// ReservationStorage журнал аренды. Аренда и возврат выполняются в транзакции
// с блокировкой строки книги, поэтому параллельные запросы не создают двойных броней
type ReservationStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewReservationStorage(db *sqlx.DB, logger *slog.Logger) *ReservationStorage {
	return &ReservationStorage{db: db, logger: logger}
}

const reservationColumns = `id, isbn, user_id, address_id, card_id, start_date, end_date, created_at, returned_at`

// CreateReservation проверяет флаг и пересечения под блокировкой книги,
// вставляет аренду и снимает флаг доступности
func (s *ReservationStorage) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var available bool
	err = tx.GetContext(ctx, &available, `SELECT is_available FROM books WHERE isbn = $1 FOR UPDATE`, r.ISBN)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound("Book")
	}
	if err != nil {
		return fmt.Errorf("ошибка блокировки книги: %w", err)
	}
	if !available {
		return domain.ErrBookUnavailable
	}

	var open []domain.Reservation
	err = tx.SelectContext(ctx, &open, `
	SELECT `+reservationColumns+`
	FROM reservations
	WHERE isbn = $1 AND returned_at IS NULL`, r.ISBN)
	if err != nil {
		return fmt.Errorf("ошибка получения аренд книги: %w", err)
	}
	if conflict := domain.FindConflict(open, r.StartDate, r.EndDate); conflict != nil {
		s.logger.Info("reservation conflict",
			"isbn", r.ISBN,
			"conflicting_reservation_id", conflict.ID,
			"start_date", r.StartDate.Format(time.DateOnly),
			"end_date", r.EndDate.Format(time.DateOnly),
		)
		return domain.ErrReservationConflict
	}

	err = tx.QueryRowxContext(ctx, `
	INSERT INTO reservations (isbn, user_id, address_id, card_id, start_date, end_date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at`,
		r.ISBN, r.UserID, r.AddressID, r.CardID, r.StartDate, r.EndDate,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		s.logger.Error("failed to insert reservation", "isbn", r.ISBN, "user_id", r.UserID, "error", err)
		return fmt.Errorf("ошибка при сохранении аренды: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE books SET is_available = FALSE WHERE isbn = $1 AND is_available = TRUE`, r.ISBN)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении доступности книги: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return domain.ErrBookUnavailable
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	s.logger.Info("reservation created",
		"reservation_id", r.ID,
		"isbn", r.ISBN,
		"user_id", r.UserID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *ReservationStorage) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	var r domain.Reservation
	err := s.db.GetContext(ctx, &r, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get reservation", "reservation_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении аренды: %w", err)
	}
	return &r, nil
}

// CloseReservation отмечает возврат. Флаг доступности возвращается, если у книги
// не осталось открытых аренд, заканчивающихся в день возврата или позже
func (s *ReservationStorage) CloseReservation(ctx context.Context, id int64, returnedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var r domain.Reservation
	err = tx.GetContext(ctx, &r, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound("Reservation")
	}
	if err != nil {
		return fmt.Errorf("ошибка блокировки аренды: %w", err)
	}
	if !r.IsOpen() {
		return domain.ErrAlreadyReturned
	}

	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM books WHERE isbn = $1 FOR UPDATE`, r.ISBN); err != nil {
		return fmt.Errorf("ошибка блокировки книги: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reservations SET returned_at = $2 WHERE id = $1`, id, returnedAt); err != nil {
		return fmt.Errorf("ошибка при закрытии аренды: %w", err)
	}

	var stillOpen bool
	err = tx.GetContext(ctx, &stillOpen, `
	SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE isbn = $1 AND returned_at IS NULL AND end_date >= $2
	)`, r.ISBN, domain.Truncate(returnedAt).Format(time.DateOnly))
	if err != nil {
		return fmt.Errorf("ошибка проверки открытых аренд: %w", err)
	}
	if !stillOpen {
		if _, err := tx.ExecContext(ctx, `UPDATE books SET is_available = TRUE WHERE isbn = $1`, r.ISBN); err != nil {
			return fmt.Errorf("ошибка при обновлении доступности книги: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	s.logger.Info("reservation closed", "reservation_id", id, "isbn", r.ISBN, "book_available", !stillOpen)
	return nil
}

const userBooksQuery = `
SELECT
	r.id AS reservation_id,
	r.isbn,
	COALESCE(b.title, 'N/A') AS title,
	COALESCE(b.author, 'N/A') AS author,
	COALESCE(b.year, 0) AS year,
	COALESCE(b.publisher, 'N/A') AS publisher,
	COALESCE(b.image_url_small, '') AS image_url_small,
	COALESCE(b.image_url_medium, '') AS image_url_medium,
	COALESCE(b.image_url_large, '') AS image_url_large,
	r.start_date,
	r.end_date,
	r.returned_at,
	COALESCE(a.address_name, 'N/A') AS address_name,
	COALESCE(a.address_line, 'N/A') AS address_line,
	COALESCE(a.city, 'N/A') AS city,
	COALESCE(a.district, 'N/A') AS district,
	COALESCE(c.card_name, 'N/A') AS card_name,
	COALESCE(c.card_number, 'N/A') AS card_number,
	COALESCE(c.card_holder_name, 'N/A') AS card_holder_name
FROM reservations r
LEFT JOIN books b ON b.isbn = r.isbn
LEFT JOIN addresses a ON a.id = r.address_id
LEFT JOIN credit_cards c ON c.id = r.card_id
WHERE r.user_id = $1`

// ListUserBooks аренды пользователя с данными книги, адреса и карты.
// Отсутствующие значения заменяются на N/A
func (s *ReservationStorage) ListUserBooks(ctx context.Context, userID int64, openOnly bool) ([]domain.UserBook, error) {
	query := userBooksQuery
	if openOnly {
		query += ` AND r.returned_at IS NULL`
	}
	query += ` ORDER BY r.start_date DESC, r.id DESC`

	books := []domain.UserBook{}
	if err := s.db.SelectContext(ctx, &books, query, userID); err != nil {
		s.logger.Error("failed to list user books", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при получении аренд пользователя: %w", err)
	}
	return books, nil
}

// HasActiveForUser есть ли у пользователя невозвращенная аренда, заканчивающаяся не раньше since
func (s *ReservationStorage) HasActiveForUser(ctx context.Context, userID int64, since time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
	SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE user_id = $1 AND returned_at IS NULL AND end_date >= $2
	)`, userID, domain.Truncate(since).Format(time.DateOnly))
	if err != nil {
		return false, fmt.Errorf("ошибка проверки аренд пользователя: %w", err)
	}
	return exists, nil
}

func (s *ReservationStorage) HasActiveForBook(ctx context.Context, isbn string, since time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
	SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE isbn = $1 AND returned_at IS NULL AND end_date >= $2
	)`, isbn, domain.Truncate(since).Format(time.DateOnly))
	if err != nil {
		return false, fmt.Errorf("ошибка проверки аренд книги: %w", err)
	}
	return exists, nil
}
