package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoArmGo/BookWave/internal/auth"
	"github.com/GoArmGo/BookWave/internal/core/ports"
	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

const (
	BooksFile   = "books.csv"
	UsersFile   = "users.csv"
	RatingsFile = "ratings.csv"

	defaultBatchSize = 500
)

// Options параметры импорта
type Options struct {
	DataDir string
	// MirrorCovers ставит задачу зеркалирования для каждой импортированной книги с обложкой
	MirrorCovers bool
}

// Summary итог импорта по таблицам
type Summary struct {
	Books         int
	Users         int
	Ratings       int
	Skipped       int
	CoversQueued  int
	TablesSkipped []string
}

// Importer заполняет пустые таблицы из CSV файлов
type Importer struct {
	db        *gorm.DB
	publisher ports.CoverMirrorPublisher
	logger    *slog.Logger
	batchSize int
}

// New создает импортер. publisher может быть nil, если обложки не зеркалируются
func New(db *gorm.DB, publisher ports.CoverMirrorPublisher, logger *slog.Logger) *Importer {
	return &Importer{db: db, publisher: publisher, logger: logger, batchSize: defaultBatchSize}
}

// Run импортирует книги, пользователей и оценки. Таблица с данными не трогается,
// отсутствующий файл пропускается
func (im *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	books, err := im.importBooks(ctx, opts.DataDir, summary)
	if err != nil {
		return nil, err
	}
	if err := im.importUsers(ctx, opts.DataDir, summary); err != nil {
		return nil, err
	}
	if err := im.importRatings(ctx, opts.DataDir, summary); err != nil {
		return nil, err
	}

	if opts.MirrorCovers && len(books) > 0 {
		if im.publisher == nil {
			return nil, errors.New("importer: зеркалирование обложек запрошено без очереди")
		}
		summary.CoversQueued = im.queueCovers(ctx, books)
	}

	im.logger.Info("catalog import finished",
		"books", summary.Books,
		"users", summary.Users,
		"ratings", summary.Ratings,
		"skipped_rows", summary.Skipped,
		"covers_queued", summary.CoversQueued,
		"tables_skipped", summary.TablesSkipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// openIfNeeded открывает CSV, если таблица пуста и файл существует
func (im *Importer) openIfNeeded(ctx context.Context, model interface{}, dir, name string, summary *Summary) (io.ReadCloser, error) {
	var count int64
	if err := im.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("importer: ошибка подсчета строк для %s: %w", name, err)
	}
	if count > 0 {
		summary.TablesSkipped = append(summary.TablesSkipped, name)
		im.logger.Info("table already populated, skipping import", "file", name, "rows", count)
		return nil, nil
	}

	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		im.logger.Warn("seed file not found, skipping", "file", name, "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("importer: ошибка открытия %s: %w", name, err)
	}
	return f, nil
}

func (im *Importer) importBooks(ctx context.Context, dir string, summary *Summary) ([]domain.Book, error) {
	f, err := im.openIfNeeded(ctx, &domain.Book{}, dir, BooksFile, summary)
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()

	books, skipped, err := ParseBooks(f)
	if err != nil {
		return nil, fmt.Errorf("importer: %s: %w", BooksFile, err)
	}
	if len(books) > 0 {
		err = im.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(books, im.batchSize).Error
		if err != nil {
			return nil, fmt.Errorf("importer: ошибка вставки книг: %w", err)
		}
	}

	summary.Books = len(books)
	summary.Skipped += skipped
	im.logger.Info("books imported", "rows", len(books), "skipped", skipped)
	return books, nil
}

func (im *Importer) importUsers(ctx context.Context, dir string, summary *Summary) error {
	f, err := im.openIfNeeded(ctx, &domain.User{}, dir, UsersFile, summary)
	if err != nil || f == nil {
		return err
	}
	defer f.Close()

	records, skipped, err := ParseUsers(f)
	if err != nil {
		return fmt.Errorf("importer: %s: %w", UsersFile, err)
	}

	users, err := hashUsers(ctx, records)
	if err != nil {
		return err
	}

	if len(users) > 0 {
		err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.CreateInBatches(users, im.batchSize).Error; err != nil {
				return err
			}
			// ID пришли из файла, последовательность нужно сдвинуть за максимальный
			return tx.Exec(`SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))`).Error
		})
		if err != nil {
			return fmt.Errorf("importer: ошибка вставки пользователей: %w", err)
		}
	}

	summary.Users = len(users)
	summary.Skipped += skipped
	im.logger.Info("users imported", "rows", len(users), "skipped", skipped)
	return nil
}

// hashUsers хэширует пароли параллельно, bcrypt занимает заметное время на строку
func hashUsers(ctx context.Context, records []UserRecord) ([]domain.User, error) {
	users := make([]domain.User, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hash, err := auth.HashPassword(rec.Password)
			if err != nil {
				return fmt.Errorf("importer: пользователь %d: %w", rec.ID, err)
			}
			users[i] = domain.User{
				ID:           rec.ID,
				Name:         rec.Name,
				Surname:      rec.Surname,
				Email:        rec.Email,
				PasswordHash: hash,
				DateOfBirth:  rec.DateOfBirth,
				IsAdmin:      rec.IsAdmin,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return users, nil
}

func (im *Importer) importRatings(ctx context.Context, dir string, summary *Summary) error {
	f, err := im.openIfNeeded(ctx, &domain.Rating{}, dir, RatingsFile, summary)
	if err != nil || f == nil {
		return err
	}
	defer f.Close()

	ratings, skipped, err := ParseRatings(f)
	if err != nil {
		return fmt.Errorf("importer: %s: %w", RatingsFile, err)
	}

	known, dropped, err := im.filterKnown(ctx, ratings)
	if err != nil {
		return err
	}
	skipped += dropped

	if len(known) > 0 {
		err = im.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(known, im.batchSize).Error
		if err != nil {
			return fmt.Errorf("importer: ошибка вставки оценок: %w", err)
		}
	}

	summary.Ratings = len(known)
	summary.Skipped += skipped
	im.logger.Info("ratings imported", "rows", len(known), "skipped", skipped)
	return nil
}

// filterKnown убирает оценки для книг и пользователей, которых нет в бд
func (im *Importer) filterKnown(ctx context.Context, ratings []domain.Rating) ([]domain.Rating, int, error) {
	var isbns []string
	if err := im.db.WithContext(ctx).Model(&domain.Book{}).Pluck("isbn", &isbns).Error; err != nil {
		return nil, 0, fmt.Errorf("importer: ошибка получения ISBN: %w", err)
	}
	var userIDs []int64
	if err := im.db.WithContext(ctx).Model(&domain.User{}).Pluck("id", &userIDs).Error; err != nil {
		return nil, 0, fmt.Errorf("importer: ошибка получения пользователей: %w", err)
	}

	known, dropped := KeepKnown(ratings, isbns, userIDs)
	return known, dropped, nil
}

// KeepKnown оставляет оценки, ссылающиеся на существующие книги и пользователей
func KeepKnown(ratings []domain.Rating, isbns []string, userIDs []int64) ([]domain.Rating, int) {
	books := make(map[string]struct{}, len(isbns))
	for _, isbn := range isbns {
		books[isbn] = struct{}{}
	}
	users := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	out := ratings[:0:0]
	dropped := 0
	for _, r := range ratings {
		_, bookOK := books[r.ISBN]
		_, userOK := users[r.UserID]
		if !bookOK || !userOK {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}

func (im *Importer) queueCovers(ctx context.Context, books []domain.Book) int {
	queued := 0
	for _, b := range books {
		if b.ImageURLLarge == "" {
			continue
		}
		payload := payloads.CoverMirrorPayload{
			RequestID: uuid.NewString(),
			ISBN:      b.ISBN,
			SourceURL: b.ImageURLLarge,
		}
		if err := im.publisher.PublishCoverMirrorRequest(ctx, payload); err != nil {
			im.logger.Error("failed to queue cover mirror", "isbn", b.ISBN, "error", err)
			continue
		}
		queued++
	}
	return queued
}
