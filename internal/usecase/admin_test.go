package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/logger"
)

func newAdminFixture(t *testing.T) (*bookFixture, *adminUseCase, *fakePublisher) {
	t.Helper()
	f := newBookFixture(t)
	pub := &fakePublisher{}
	uc := NewAdminUseCase(f.store, f.store, f.store, pub, logger.Discard()).(*adminUseCase)
	uc.now = func() time.Time { return fixedNow }
	return f, uc, pub
}

func Test_Admin_DeleteUser_WithActiveRental(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	ctx := context.Background()
	_, err := f.uc.RentBook(ctx, f.rentInput("0195153448", "2023-12-20", "2023-12-30"))
	require.NoError(t, err)

	err = admin.DeleteUser(ctx, f.user.ID)

	assert.ErrorIs(t, err, domain.ErrHasActiveRentals)
	assert.Contains(t, f.store.users, f.user.ID)
}

func Test_Admin_DeleteUser_AfterRentalEnded(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	ctx := context.Background()
	_, err := f.uc.RentBook(ctx, f.rentInput("0195153448", "2023-12-20", "2023-12-30"))
	require.NoError(t, err)

	admin.now = func() time.Time { return day("2024-01-02") }
	err = admin.DeleteUser(ctx, f.user.ID)

	require.NoError(t, err)
	assert.NotContains(t, f.store.users, f.user.ID)
}

func Test_Admin_DeleteBook_WithActiveRental(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	ctx := context.Background()
	_, err := f.uc.RentBook(ctx, f.rentInput("0195153448", "2023-12-20", "2023-12-30"))
	require.NoError(t, err)

	assert.ErrorIs(t, admin.DeleteBook(ctx, "0195153448"), domain.ErrHasActiveRentals)
	assert.NoError(t, admin.DeleteBook(ctx, "0002005018"))
	assert.ErrorIs(t, admin.DeleteBook(ctx, "0002005018"), domain.ErrNotFound)
}

func Test_Admin_UpdateBook_PublishesCoverJobWhenLargeImageChanges(t *testing.T) {
	f, admin, pub := newAdminFixture(t)
	ctx := context.Background()

	in := UpdateBookInput{
		Title:         "Classical Mythology",
		Author:        "Mark P. O. Morford",
		Year:          2002,
		Publisher:     "Oxford University Press",
		ImageURLLarge: "http://images.amazon.com/images/P/0195153448.01.LZZZZZZZ.jpg",
		IsAvailable:   false,
	}

	book, err := admin.UpdateBook(ctx, "0195153448", in)
	require.NoError(t, err)
	assert.False(t, book.IsAvailable)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "0195153448", pub.published[0].ISBN)
	assert.Equal(t, in.ImageURLLarge, pub.published[0].SourceURL)
	assert.NotEmpty(t, pub.published[0].RequestID)

	// та же обложка повторно не зеркалируется
	_, err = admin.UpdateBook(ctx, "0195153448", in)
	require.NoError(t, err)
	assert.Len(t, pub.published, 1)

	stored, _ := f.store.GetBook(ctx, "0195153448")
	assert.Equal(t, 2002, stored.Year)
}

func Test_Admin_UpdateBook_PublishFailureDoesNotFailUpdate(t *testing.T) {
	_, admin, pub := newAdminFixture(t)
	pub.err = errors.New("broker down")

	_, err := admin.UpdateBook(context.Background(), "0195153448", UpdateBookInput{
		Title:         "Classical Mythology",
		Author:        "Mark P. O. Morford",
		ImageURLLarge: "http://example.com/cover.jpg",
	})

	assert.NoError(t, err)
}

func Test_Admin_UpdateBook_Validation(t *testing.T) {
	_, admin, _ := newAdminFixture(t)

	_, err := admin.UpdateBook(context.Background(), "0195153448", UpdateBookInput{Title: " ", Author: "A", ImageURLSmall: "not a url"})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Messages, 2)
}

func Test_Admin_ListBooks_Pagination(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	for i := 0; i < 25; i++ {
		isbn := "X" + string(rune('A'+i))
		f.store.books[isbn] = &domain.Book{ISBN: isbn, Title: "Bulk " + isbn, IsAvailable: true}
	}

	page, err := admin.ListBooks(context.Background(), "", 0)

	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
}

func Test_Admin_UpdateUser_EmailTaken(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	ctx := context.Background()
	other := &domain.User{Name: "Bob", Surname: "Smith", Email: "bob@example.com"}
	require.NoError(t, f.store.CreateUser(ctx, other))

	_, err := admin.UpdateUser(ctx, f.user.ID, AdminUpdateUserInput{Name: "Ada", Surname: "King", Email: "BOB@example.com", IsAdmin: true})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	updated, err := admin.UpdateUser(ctx, f.user.ID, AdminUpdateUserInput{Name: "Ada", Surname: "King", Email: "ada@example.com", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, "King", updated.Surname)
}

func Test_Admin_GetUserRentals_IncludesReturned(t *testing.T) {
	f, admin, _ := newAdminFixture(t)
	ctx := context.Background()
	res, err := f.uc.RentBook(ctx, f.rentInput("0195153448", "2023-12-20", "2023-12-30"))
	require.NoError(t, err)
	require.NoError(t, f.uc.ReturnBook(ctx, res.ID, f.user.ID))

	rentals, err := admin.GetUserRentals(ctx, f.user.ID)

	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.NotNil(t, rentals[0].ReturnedAt)
}
