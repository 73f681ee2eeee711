package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/GoArmGo/BookWave/internal/domain"
)

// UserRecord строка users.csv, пароль еще не захэширован
type UserRecord struct {
	ID          int64
	Name        string
	Surname     string
	Email       string
	Password    string
	DateOfBirth time.Time
	IsAdmin     bool
}

// table результат чтения CSV: строки с доступом к колонкам по имени заголовка
type table struct {
	index map[string]int
	rows  [][]string
}

func (t table) get(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(r io.Reader, required ...string) (table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table{}, fmt.Errorf("пустой CSV файл")
	}
	if err != nil {
		return table{}, fmt.Errorf("ошибка чтения заголовка CSV: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		// BOM в начале файла из Excel
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return table{}, fmt.Errorf("в CSV нет колонки %s", col)
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("ошибка чтения строк CSV: %w", err)
	}
	return table{index: index, rows: rows}, nil
}

// ParseBooks читает books.csv. Строки без ISBN или названия и повторные ISBN пропускаются
func ParseBooks(r io.Reader) ([]domain.Book, int, error) {
	t, err := readTable(r, "ISBN", "BookTitle")
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool, len(t.rows))
	books := make([]domain.Book, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		isbn := t.get(row, "ISBN")
		title := t.get(row, "BookTitle")
		if isbn == "" || title == "" || seen[isbn] {
			skipped++
			continue
		}
		seen[isbn] = true

		year, _ := strconv.Atoi(t.get(row, "YearOfPublication"))
		books = append(books, domain.Book{
			ISBN:           isbn,
			Title:          title,
			Author:         t.get(row, "BookAuthor"),
			Year:           year,
			Publisher:      t.get(row, "Publisher"),
			ImageURLSmall:  t.get(row, "ImageUrlS"),
			ImageURLMedium: t.get(row, "ImageUrlM"),
			ImageURLLarge:  t.get(row, "ImageUrlL"),
			IsAvailable:    true,
		})
	}
	return books, skipped, nil
}

// ParseUsers читает users.csv. Строки с некорректным ID, email или датой рождения пропускаются
func ParseUsers(r io.Reader) ([]UserRecord, int, error) {
	t, err := readTable(r, "UserID", "Email", "Password")
	if err != nil {
		return nil, 0, err
	}

	seenIDs := make(map[int64]bool, len(t.rows))
	seenEmails := make(map[string]bool, len(t.rows))
	users := make([]UserRecord, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		id, err := strconv.ParseInt(t.get(row, "UserID"), 10, 64)
		email := strings.ToLower(t.get(row, "Email"))
		if err != nil || id <= 0 || email == "" || seenIDs[id] || seenEmails[email] {
			skipped++
			continue
		}

		birth, err := parseDate(t.get(row, "DateOfBirth"))
		if err != nil {
			skipped++
			continue
		}

		isAdmin, _ := strconv.ParseBool(t.get(row, "IsAdmin"))

		seenIDs[id] = true
		seenEmails[email] = true
		users = append(users, UserRecord{
			ID:          id,
			Name:        t.get(row, "Name"),
			Surname:     t.get(row, "Surname"),
			Email:       t.get(row, "Email"),
			Password:    t.get(row, "Password"),
			DateOfBirth: birth,
			IsAdmin:     isAdmin,
		})
	}
	return users, skipped, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339, "1/2/2006", "1/2/2006 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("некорректная дата %q", s)
}

// ParseRatings читает ratings.csv. Оценки вне 1..10 пропускаются,
// для повторной пары (user, isbn) остается последняя
func ParseRatings(r io.Reader) ([]domain.Rating, int, error) {
	t, err := readTable(r, "ISBN", "UserID", "BookRating")
	if err != nil {
		return nil, 0, err
	}

	type key struct {
		userID int64
		isbn   string
	}
	pos := make(map[key]int, len(t.rows))
	ratings := make([]domain.Rating, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		isbn := t.get(row, "ISBN")
		userID, err1 := strconv.ParseInt(t.get(row, "UserID"), 10, 64)
		score, err2 := strconv.Atoi(t.get(row, "BookRating"))
		if isbn == "" || err1 != nil || err2 != nil || score < domain.MinRatingScore || score > domain.MaxRatingScore {
			skipped++
			continue
		}

		k := key{userID: userID, isbn: isbn}
		if i, ok := pos[k]; ok {
			ratings[i].Score = score
			skipped++
			continue
		}
		pos[k] = len(ratings)
		ratings = append(ratings, domain.Rating{UserID: userID, ISBN: isbn, Score: score})
	}
	return ratings, skipped, nil
}
