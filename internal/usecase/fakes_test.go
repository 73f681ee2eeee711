package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

type memStore struct {
	mu           sync.Mutex
	books        map[string]*domain.Book
	scores       map[string]map[int64]int
	users        map[int64]*domain.User
	addresses    map[int64]*domain.Address
	cards        map[int64]*domain.CreditCard
	reservations map[int64]*domain.Reservation
	nextID       int64
}

func newMemStore() *memStore {
	return &memStore{
		books:        map[string]*domain.Book{},
		scores:       map[string]map[int64]int{},
		users:        map[int64]*domain.User{},
		addresses:    map[int64]*domain.Address{},
		cards:        map[int64]*domain.CreditCard{},
		reservations: map[int64]*domain.Reservation{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// books

func (s *memStore) GetBook(_ context.Context, isbn string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[isbn]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) SearchBooks(_ context.Context, q domain.SearchQuery) ([]domain.BookWithRating, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookWithRating
	for _, b := range s.books {
		if q.AvailableOnly && !b.IsAvailable {
			continue
		}
		if strings.Contains(b.Title, q.Term) || strings.Contains(b.Author, q.Term) || strings.Contains(b.Publisher, q.Term) {
			out = append(out, domain.BookWithRating{Book: *b})
		}
	}
	return out, len(out), nil
}

func (s *memStore) ListBooks(_ context.Context, term string, page, perPage int) ([]domain.Book, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Book
	for _, b := range s.books {
		if term == "" || strings.Contains(b.Title, term) {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (s *memStore) UpdateBook(_ context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *book
	s.books[book.ISBN] = &cp
	return nil
}

func (s *memStore) UpdateCoverURLs(_ context.Context, isbn, small, medium, large string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[isbn]
	if !ok {
		return domain.NewNotFound("Book")
	}
	b.ImageURLSmall, b.ImageURLMedium, b.ImageURLLarge = small, medium, large
	return nil
}

func (s *memStore) DeleteBook(_ context.Context, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.books, isbn)
	return nil
}

// ratings

func (s *memStore) UpsertRating(_ context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scores[r.ISBN] == nil {
		s.scores[r.ISBN] = map[int64]int{}
	}
	s.scores[r.ISBN][r.UserID] = r.Score
	return nil
}

func (s *memStore) ListScores(_ context.Context, isbn string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, score := range s.scores[isbn] {
		out = append(out, score)
	}
	return out, nil
}

// reservations повторяют проверки транзакции postgres-хранилища

func (s *memStore) CreateReservation(_ context.Context, r *domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[r.ISBN]
	if !ok {
		return domain.NewNotFound("Book")
	}
	if !book.IsAvailable {
		return domain.ErrBookUnavailable
	}
	var existing []domain.Reservation
	for _, other := range s.reservations {
		if other.ISBN == r.ISBN {
			existing = append(existing, *other)
		}
	}
	if domain.FindConflict(existing, r.StartDate, r.EndDate) != nil {
		return domain.ErrReservationConflict
	}
	r.ID = s.id()
	cp := *r
	s.reservations[r.ID] = &cp
	book.IsAvailable = false
	return nil
}

func (s *memStore) GetReservation(_ context.Context, id int64) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) CloseReservation(_ context.Context, id int64, returnedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.NewNotFound("Reservation")
	}
	if !r.IsOpen() {
		return domain.ErrAlreadyReturned
	}
	r.ReturnedAt = &returnedAt
	today := domain.Truncate(returnedAt)
	for _, other := range s.reservations {
		if other.ISBN == r.ISBN && other.IsOpen() && !other.EndDate.Before(today) {
			return nil
		}
	}
	if b, ok := s.books[r.ISBN]; ok {
		b.IsAvailable = true
	}
	return nil
}

func (s *memStore) ListUserBooks(_ context.Context, userID int64, openOnly bool) ([]domain.UserBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserBook
	for _, r := range s.reservations {
		if r.UserID != userID || (openOnly && !r.IsOpen()) {
			continue
		}
		ub := domain.UserBook{ReservationID: r.ID, ISBN: r.ISBN, StartDate: r.StartDate, EndDate: r.EndDate, ReturnedAt: r.ReturnedAt}
		if b, ok := s.books[r.ISBN]; ok {
			ub.BookTitle = b.Title
		}
		if c, ok := s.cards[r.CardID]; ok {
			ub.CardNumber = c.CardNumber
		}
		out = append(out, ub)
	}
	return out, nil
}

func (s *memStore) HasActiveForUser(_ context.Context, userID int64, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.UserID == userID && r.IsOpen() && !r.EndDate.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) HasActiveForBook(_ context.Context, isbn string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ISBN == isbn && r.IsOpen() && !r.EndDate.Before(domain.Truncate(since)) {
			return true, nil
		}
	}
	return false, nil
}

// users

func (s *memStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrEmailTaken
		}
	}
	u.ID = s.id()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *memStore) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

// addresses

func (s *memStore) CreateAddress(_ context.Context, a *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	cp := *a
	s.addresses[a.ID] = &cp
	return nil
}

func (s *memStore) GetAddress(_ context.Context, id int64) (*domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.addresses[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) UpdateAddress(_ context.Context, a *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.addresses[a.ID] = &cp
	return nil
}

func (s *memStore) ListAddresses(_ context.Context, userID int64) ([]domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Address
	for _, a := range s.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// cards

func (s *memStore) CreateCard(_ context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

func (s *memStore) GetCard(_ context.Context, id int64) (*domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpdateCard(_ context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cards[c.ID] = &cp
	return nil
}

func (s *memStore) ListCards(_ context.Context, userID int64) ([]domain.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CreditCard
	for _, c := range s.cards {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// fakePublisher запоминает опубликованные задачи
type fakePublisher struct {
	published []payloads.CoverMirrorPayload
	err       error
}

func (p *fakePublisher) PublishCoverMirrorRequest(_ context.Context, payload payloads.CoverMirrorPayload) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, payload)
	return nil
}

type fakeFetcher struct {
	body        []byte
	contentType string
	err         error
}

func (f *fakeFetcher) FetchCover(context.Context, string) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	contentType := f.contentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return io.NopCloser(bytes.NewReader(f.body)), contentType, nil
}

type fakeFileStorage struct {
	uploaded map[string][]byte
	deleted  []string
	failOn   string
}

func (f *fakeFileStorage) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if key == f.failOn {
		return "", errors.New("s3: service unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[key] = data
	return "http://covers.local/bookwave/" + key, nil
}

func (f *fakeFileStorage) DeleteFile(_ context.Context, key string) error {
	if _, ok := f.uploaded[key]; !ok {
		return errors.New("no such key")
	}
	delete(f.uploaded, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64, isAdmin bool) (string, error) {
	if isAdmin {
		return "admin-token", nil
	}
	return "user-token", nil
}
