package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BookWave/internal/database/postgres"
	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/logger"
)

// testDSNEnv строка подключения к отдельной тестовой бд, все таблицы в ней очищаются
const testDSNEnv = "BOOKWAVE_TEST_DATABASE_URL"

const testMigrationsPath = "file://../postgres/migrations"

func setupStorageTestEnvironment(t *testing.T) (context.Context, *sqlx.DB, func()) {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping PostgreSQL storage tests", testDSNEnv)
	}

	require.NoError(t, postgres.ApplyMigrations(testMigrationsPath, dsn, logger.Discard()))

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE reservations, ratings, credit_cards, addresses, users, books RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cleanup := func() {
		cancel()
		_ = db.Close()
	}
	return ctx, db, cleanup
}

type renter struct {
	userID, addressID, cardID int64
}

func givenRenter(t *testing.T, db *sqlx.DB, email string) renter {
	t.Helper()
	var r renter
	require.NoError(t, db.Get(&r.userID, `
	INSERT INTO users (name, surname, email, password_hash, date_of_birth)
	VALUES ('Test', 'User', $1, 'hash', '1990-01-01') RETURNING id`, email))
	require.NoError(t, db.Get(&r.addressID, `
	INSERT INTO addresses (user_id, address_name, country, city, district, postal_code, address_line)
	VALUES ($1, 'Home', 'UK', 'London', 'Camden', 'NW1', '1 Baker Street') RETURNING id`, r.userID))
	require.NoError(t, db.Get(&r.cardID, `
	INSERT INTO credit_cards (user_id, card_name, card_number, card_holder_name, expiration_month, expiration_year, cvv)
	VALUES ($1, 'Main', '4111111111111111', 'Test User', 12, 2030, '123') RETURNING id`, r.userID))
	return r
}

func givenBook(t *testing.T, db *sqlx.DB, isbn, title string, available bool) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO books (isbn, title, author, publisher, is_available) VALUES ($1, $2, 'Author', 'Publisher', $3)`,
		isbn, title, available)
	require.NoError(t, err)
}

func setAvailable(t *testing.T, db *sqlx.DB, isbn string, available bool) {
	t.Helper()
	_, err := db.Exec(`UPDATE books SET is_available = $2 WHERE isbn = $1`, isbn, available)
	require.NoError(t, err)
}

func isAvailable(t *testing.T, db *sqlx.DB, isbn string) bool {
	t.Helper()
	var available bool
	require.NoError(t, db.Get(&available, `SELECT is_available FROM books WHERE isbn = $1`, isbn))
	return available
}

func reservationFor(r renter, isbn, start, end string) *domain.Reservation {
	return &domain.Reservation{
		ISBN:      isbn,
		UserID:    r.userID,
		AddressID: r.addressID,
		CardID:    r.cardID,
		StartDate: mustDay(start),
		EndDate:   mustDay(end),
	}
}

func mustDay(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func Test_CreateReservation_ConcurrentRentsOnlyOneSucceeds(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	alice := givenRenter(t, db, "alice@example.com")
	bob := givenRenter(t, db, "bob@example.com")
	reservations := NewReservationStorage(db, logger.Discard())

	// act
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, r := range []renter{alice, bob} {
		wg.Add(1)
		go func(i int, r renter) {
			defer wg.Done()
			errs[i] = reservations.CreateReservation(ctx, reservationFor(r, "0195153448", "2024-01-01", "2024-01-10"))
		}(i, r)
	}
	wg.Wait()

	// assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrBookUnavailable)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent rent should win")

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM reservations WHERE isbn = $1`, "0195153448"))
	assert.Equal(t, 1, count)
	assert.False(t, isAvailable(t, db, "0195153448"))
}

func Test_CreateReservation_RejectsOverlap(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	alice := givenRenter(t, db, "alice@example.com")
	bob := givenRenter(t, db, "bob@example.com")
	reservations := NewReservationStorage(db, logger.Discard())

	require.NoError(t, reservations.CreateReservation(ctx, reservationFor(alice, "0195153448", "2024-01-01", "2024-01-10")))
	// флаг вернул администратор, остается проверка пересечений
	setAvailable(t, db, "0195153448", true)

	// act
	overlapErr := reservations.CreateReservation(ctx, reservationFor(bob, "0195153448", "2024-01-05", "2024-01-15"))

	// assert
	assert.ErrorIs(t, overlapErr, domain.ErrReservationConflict)
	assert.True(t, isAvailable(t, db, "0195153448"), "rejected rent must not touch the flag")

	later := reservationFor(bob, "0195153448", "2024-02-01", "2024-02-05")
	require.NoError(t, reservations.CreateReservation(ctx, later))
	assert.NotZero(t, later.ID)
	assert.False(t, isAvailable(t, db, "0195153448"))
}

func Test_CreateReservation_UnknownAndUnavailableBook(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0002005018", "Clara Callan", false)
	alice := givenRenter(t, db, "alice@example.com")
	reservations := NewReservationStorage(db, logger.Discard())

	// act & assert
	err := reservations.CreateReservation(ctx, reservationFor(alice, "0000000000", "2024-01-01", "2024-01-10"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = reservations.CreateReservation(ctx, reservationFor(alice, "0002005018", "2024-01-01", "2024-01-10"))
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)
}

func Test_CloseReservation_RestoresAvailability(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	alice := givenRenter(t, db, "alice@example.com")
	reservations := NewReservationStorage(db, logger.Discard())

	res := reservationFor(alice, "0195153448", "2024-01-01", "2024-01-10")
	require.NoError(t, reservations.CreateReservation(ctx, res))

	// act
	err := reservations.CloseReservation(ctx, res.ID, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC))

	// assert
	require.NoError(t, err)
	assert.True(t, isAvailable(t, db, "0195153448"))

	stored, err := reservations.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotNil(t, stored.ReturnedAt)

	assert.ErrorIs(t, reservations.CloseReservation(ctx, res.ID, time.Now()), domain.ErrAlreadyReturned)
	assert.ErrorIs(t, reservations.CloseReservation(ctx, 9999, time.Now()), domain.ErrNotFound)
}

func Test_CloseReservation_OtherOpenReservations(t *testing.T) {
	cases := []struct {
		name          string
		otherStart    string
		otherEnd      string
		wantAvailable bool
	}{
		{"overdue reservation does not block", "2023-12-01", "2023-12-10", true},
		{"reservation ending on return day blocks", "2024-01-01", "2024-01-08", false},
		{"future reservation blocks", "2024-02-01", "2024-02-05", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			ctx, db, cleanup := setupStorageTestEnvironment(t)
			defer cleanup()

			givenBook(t, db, "0195153448", "Classical Mythology", true)
			alice := givenRenter(t, db, "alice@example.com")
			bob := givenRenter(t, db, "bob@example.com")
			reservations := NewReservationStorage(db, logger.Discard())

			res := reservationFor(alice, "0195153448", "2024-01-05", "2024-01-10")
			require.NoError(t, reservations.CreateReservation(ctx, res))
			_, err := db.Exec(`
			INSERT INTO reservations (isbn, user_id, address_id, card_id, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
				"0195153448", bob.userID, bob.addressID, bob.cardID, tc.otherStart, tc.otherEnd)
			require.NoError(t, err)

			// act
			require.NoError(t, reservations.CloseReservation(ctx, res.ID, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)))

			// assert
			assert.Equal(t, tc.wantAvailable, isAvailable(t, db, "0195153448"))
		})
	}
}

func Test_ListUserBooks_JoinsBookAddressAndCard(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	givenBook(t, db, "0002005018", "Clara Callan", true)
	alice := givenRenter(t, db, "alice@example.com")
	reservations := NewReservationStorage(db, logger.Discard())

	first := reservationFor(alice, "0195153448", "2024-01-01", "2024-01-10")
	require.NoError(t, reservations.CreateReservation(ctx, first))
	second := reservationFor(alice, "0002005018", "2024-02-01", "2024-02-10")
	require.NoError(t, reservations.CreateReservation(ctx, second))
	require.NoError(t, reservations.CloseReservation(ctx, first.ID, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))

	// act
	open, err := reservations.ListUserBooks(ctx, alice.userID, true)
	require.NoError(t, err)
	all, err := reservations.ListUserBooks(ctx, alice.userID, false)
	require.NoError(t, err)

	// assert
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ReservationID)
	assert.Equal(t, "Clara Callan", open[0].BookTitle)
	assert.Equal(t, "Home", open[0].AddressName)
	assert.Equal(t, "4111111111111111", open[0].CardNumber)

	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ReservationID, "newest start date first")
	assert.NotNil(t, all[1].ReturnedAt)
}

func Test_HasActiveReservations(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	alice := givenRenter(t, db, "alice@example.com")
	reservations := NewReservationStorage(db, logger.Discard())
	require.NoError(t, reservations.CreateReservation(ctx, reservationFor(alice, "0195153448", "2024-01-01", "2024-01-10")))

	// act & assert
	active, err := reservations.HasActiveForUser(ctx, alice.userID, time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, active, "reservation ending today is active")

	active, err = reservations.HasActiveForBook(ctx, "0195153448", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, active)
}

func Test_UpsertRating_OverwritesScore(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "0195153448", "Classical Mythology", true)
	alice := givenRenter(t, db, "alice@example.com")
	ratings := NewRatingStorage(db, logger.Discard())

	first := &domain.Rating{UserID: alice.userID, ISBN: "0195153448", Score: 4}
	require.NoError(t, ratings.UpsertRating(ctx, first))

	// act
	second := &domain.Rating{UserID: alice.userID, ISBN: "0195153448", Score: 8}
	err := ratings.UpsertRating(ctx, second)

	// assert
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same row is updated")

	scores, err := ratings.ListScores(ctx, "0195153448")
	require.NoError(t, err)
	assert.Equal(t, []int{8}, scores)

	err = ratings.UpsertRating(ctx, &domain.Rating{UserID: alice.userID, ISBN: "0000000000", Score: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_SearchBooks_RatingDescAvailableOnly(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "1000000001", "Harry Potter and the Goblet of Fire", true)
	givenBook(t, db, "1000000002", "Harry Potter and the Chamber of Secrets", true)
	givenBook(t, db, "1000000003", "Harry Potter and the Prisoner of Azkaban", true)
	givenBook(t, db, "1000000004", "Harry Potter and the Half-Blood Prince", false)
	givenBook(t, db, "1000000005", "The Hobbit", true)

	alice := givenRenter(t, db, "alice@example.com")
	bob := givenRenter(t, db, "bob@example.com")
	ratings := NewRatingStorage(db, logger.Discard())
	for _, r := range []domain.Rating{
		{UserID: alice.userID, ISBN: "1000000001", Score: 10},
		{UserID: bob.userID, ISBN: "1000000001", Score: 8},
		{UserID: alice.userID, ISBN: "1000000002", Score: 6},
		{UserID: alice.userID, ISBN: "1000000004", Score: 10},
	} {
		require.NoError(t, ratings.UpsertRating(ctx, &r))
	}

	books := NewBookStorage(db, logger.Discard())
	query := domain.SearchQuery{
		Term:          "Potter",
		Sort:          domain.SortRatingDesc,
		AvailableOnly: true,
		Page:          1,
		PageSize:      2,
	}

	// act
	firstPage, total, err := books.SearchBooks(ctx, query)
	require.NoError(t, err)
	query.Page = 2
	secondPage, _, err := books.SearchBooks(ctx, query)
	require.NoError(t, err)
	query.Page = 3
	emptyPage, emptyTotal, err := books.SearchBooks(ctx, query)
	require.NoError(t, err)

	// assert
	assert.Equal(t, 3, total)
	require.Len(t, firstPage, 2)
	assert.Equal(t, "1000000001", firstPage[0].ISBN)
	assert.InDelta(t, 4.5, firstPage[0].AverageRating, 0.001)
	assert.Equal(t, "1000000002", firstPage[1].ISBN)
	assert.InDelta(t, 3.0, firstPage[1].AverageRating, 0.001)

	require.Len(t, secondPage, 1)
	assert.Equal(t, "1000000003", secondPage[0].ISBN)
	assert.Zero(t, secondPage[0].AverageRating)

	assert.Equal(t, 3, emptyTotal)
	assert.Empty(t, emptyPage)
}

func Test_ListBooks_AdminSearchAndUpdate(t *testing.T) {
	// setup
	ctx, db, cleanup := setupStorageTestEnvironment(t)
	defer cleanup()

	givenBook(t, db, "1000000001", "Harry Potter and the Goblet of Fire", true)
	givenBook(t, db, "1000000005", "The Hobbit", true)
	books := NewBookStorage(db, logger.Discard())

	// act
	found, total, err := books.ListBooks(ctx, "hobbit", 1, 12)
	require.NoError(t, err)

	// assert
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "1000000005", found[0].ISBN)

	hobbit := found[0]
	hobbit.IsAvailable = false
	require.NoError(t, books.UpdateBook(ctx, &hobbit))
	assert.False(t, isAvailable(t, db, "1000000005"))

	require.NoError(t, books.DeleteBook(ctx, "1000000005"))
	assert.ErrorIs(t, books.DeleteBook(ctx, "1000000005"), domain.ErrNotFound)
}
