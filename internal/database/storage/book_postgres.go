package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/GoArmGo/BookWave/internal/domain"
)

const dialectPostgres = "postgres"

var bookColumns = []interface{}{
	goqu.I("b.isbn"),
	goqu.I("b.title"),
	goqu.I("b.author"),
	goqu.I("b.year"),
	goqu.I("b.publisher"),
	goqu.I("b.image_url_small"),
	goqu.I("b.image_url_medium"),
	goqu.I("b.image_url_large"),
	goqu.I("b.is_available"),
}

// BookStorage каталог книг поверх sqlx, запросы собираются через goqu
type BookStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewBookStorage(db *sqlx.DB, logger *slog.Logger) *BookStorage {
	return &BookStorage{db: db, logger: logger}
}

// GetBook получает книгу по ISBN, nil если ее нет
func (s *BookStorage) GetBook(ctx context.Context, isbn string) (*domain.Book, error) {
	var book domain.Book
	err := s.db.GetContext(ctx, &book, `
	SELECT isbn, title, author, year, publisher, image_url_small, image_url_medium, image_url_large, is_available
	FROM books WHERE isbn = $1`, isbn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("book not found", "isbn", isbn)
			return nil, nil
		}
		s.logger.Error("failed to get book", "isbn", isbn, "error", err)
		return nil, fmt.Errorf("ошибка при получении книги: %w", err)
	}
	return &book, nil
}

// SearchBooks возвращает страницу книг со средней оценкой, посчитанной агрегатом в том же запросе
func (s *BookStorage) SearchBooks(ctx context.Context, q domain.SearchQuery) ([]domain.BookWithRating, int, error) {
	start := time.Now()

	countSQL, countArgs, err := buildSearchCountQuery(q)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса подсчета: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		s.logger.Error("failed to count search results", "term", q.Term, "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете результатов поиска: %w", err)
	}

	items := []domain.BookWithRating{}
	if total > q.Offset() {
		pageSQL, pageArgs, err := buildSearchQuery(q)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка построения запроса поиска: %w", err)
		}
		if err := s.db.SelectContext(ctx, &items, pageSQL, pageArgs...); err != nil {
			s.logger.Error("failed to search books", "term", q.Term, "sort", q.Sort, "page", q.Page, "error", err)
			return nil, 0, fmt.Errorf("ошибка при поиске книг: %w", err)
		}
	}

	s.logger.Info("books search completed",
		"term", q.Term,
		"sort", q.Sort,
		"available_only", q.AvailableOnly,
		"page", q.Page,
		"found", len(items),
		"total", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, total, nil
}

// escapeLike экранирует спецсимволы LIKE, чтобы искать подстроку буквально
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func searchFilter(q domain.SearchQuery) exp.Expression {
	pattern := escapeLike(q.Term)
	match := goqu.Or(
		goqu.I("b.title").Like(pattern),
		goqu.I("b.author").Like(pattern),
		goqu.I("b.publisher").Like(pattern),
	)
	if q.AvailableOnly {
		return goqu.And(match, goqu.I("b.is_available").IsTrue())
	}
	return match
}

func buildSearchCountQuery(q domain.SearchQuery) (string, []interface{}, error) {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		Select(goqu.COUNT(goqu.Star())).
		Where(searchFilter(q)).
		Prepared(true).
		ToSQL()
}

func buildSearchQuery(q domain.SearchQuery) (string, []interface{}, error) {
	avg := goqu.L("COALESCE(ROUND(AVG(r.score) / 2.0, 1), 0)").As("average_rating")

	columns := append(append([]interface{}{}, bookColumns...), avg)

	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("ratings").As("r"), goqu.On(goqu.I("r.isbn").Eq(goqu.I("b.isbn")))).
		Select(columns...).
		Where(searchFilter(q)).
		GroupBy(goqu.I("b.isbn")).
		Order(searchOrder(q.Sort)...).
		Limit(uint(q.PageSize)).
		Offset(uint(q.Offset())).
		Prepared(true).
		ToSQL()
}

// searchOrder всегда заканчивается ISBN, чтобы страницы были стабильными
func searchOrder(sort domain.SortOption) []exp.OrderedExpression {
	var primary exp.OrderedExpression
	switch sort {
	case domain.SortTitleDesc:
		primary = goqu.I("b.title").Desc()
	case domain.SortRatingAsc:
		primary = goqu.I("average_rating").Asc()
	case domain.SortRatingDesc:
		primary = goqu.I("average_rating").Desc()
	case domain.SortAvailabilityAsc:
		primary = goqu.I("b.is_available").Asc()
	case domain.SortAvailabilityDesc:
		primary = goqu.I("b.is_available").Desc()
	default:
		primary = goqu.I("b.title").Asc()
	}
	return []exp.OrderedExpression{primary, goqu.I("b.isbn").Asc()}
}

// ListBooks страница каталога для администратора, поиск без учета регистра по названию, автору и ISBN
func (s *BookStorage) ListBooks(ctx context.Context, term string, page, perPage int) ([]domain.Book, int, error) {
	start := time.Now()

	countSQL, countArgs, err := buildAdminCountQuery(term)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса подсчета: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		s.logger.Error("failed to count books", "term", term, "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете книг: %w", err)
	}

	pageSQL, pageArgs, err := buildAdminListQuery(term, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка построения запроса списка книг: %w", err)
	}
	books := []domain.Book{}
	if err := s.db.SelectContext(ctx, &books, pageSQL, pageArgs...); err != nil {
		s.logger.Error("failed to list books", "term", term, "page", page, "error", err)
		return nil, 0, fmt.Errorf("ошибка при получении списка книг: %w", err)
	}

	s.logger.Info("admin books listed",
		"term", term,
		"page", page,
		"found", len(books),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return books, total, nil
}

func adminFilter(term string) exp.Expression {
	if term == "" {
		return goqu.L("TRUE")
	}
	pattern := escapeLike(term)
	return goqu.Or(
		goqu.I("b.title").ILike(pattern),
		goqu.I("b.author").ILike(pattern),
		goqu.I("b.isbn").ILike(pattern),
	)
}

func buildAdminCountQuery(term string) (string, []interface{}, error) {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		Select(goqu.COUNT(goqu.Star())).
		Where(adminFilter(term)).
		Prepared(true).
		ToSQL()
}

func buildAdminListQuery(term string, page, perPage int) (string, []interface{}, error) {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		Select(bookColumns...).
		Where(adminFilter(term)).
		Order(goqu.I("b.title").Asc(), goqu.I("b.isbn").Asc()).
		Limit(uint(perPage)).
		Offset(uint((page - 1) * perPage)).
		Prepared(true).
		ToSQL()
}

func (s *BookStorage) UpdateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.NamedExecContext(ctx, `
	UPDATE books SET
		title = :title,
		author = :author,
		year = :year,
		publisher = :publisher,
		image_url_small = :image_url_small,
		image_url_medium = :image_url_medium,
		image_url_large = :image_url_large,
		is_available = :is_available
	WHERE isbn = :isbn`, book)
	if err != nil {
		s.logger.Error("failed to update book", "isbn", book.ISBN, "error", err)
		return fmt.Errorf("ошибка при обновлении книги: %w", err)
	}
	return expectOneRow(res, "Book")
}

func (s *BookStorage) UpdateCoverURLs(ctx context.Context, isbn, small, medium, large string) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE books SET image_url_small = $2, image_url_medium = $3, image_url_large = $4
	WHERE isbn = $1`, isbn, small, medium, large)
	if err != nil {
		s.logger.Error("failed to update cover urls", "isbn", isbn, "error", err)
		return fmt.Errorf("ошибка при обновлении обложек: %w", err)
	}
	return expectOneRow(res, "Book")
}

// DeleteBook удаляет книгу вместе с оценками и историей аренд (каскад в схеме)
func (s *BookStorage) DeleteBook(ctx context.Context, isbn string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE isbn = $1`, isbn)
	if err != nil {
		s.logger.Error("failed to delete book", "isbn", isbn, "error", err)
		return fmt.Errorf("ошибка при удалении книги: %w", err)
	}
	return expectOneRow(res, "Book")
}

func expectOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа измененных строк: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound(entity)
	}
	return nil
}
