package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps зависимости HTTP-слоя
type RouterDeps struct {
	Books          *BookHandler
	Accounts       *AccountHandler
	Admin          *AdminHandler
	Tokens         TokenParser
	Health         func(ctx context.Context) error
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter собирает маршруты API
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.Use(RequestLogger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req.Context()); err != nil {
				deps.Logger.Error("health check failed", "error", err)
				respondWithError(w, http.StatusServiceUnavailable, "database unavailable", deps.Logger)
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, deps.Logger)
	})

	r.Route("/api/book", func(r chi.Router) {
		r.Get("/search/{page}", deps.Books.Search)
		r.Post("/rent", deps.Books.Rent)
		r.Post("/return/{reservationId}", deps.Books.Return)
		r.Post("/rate", deps.Books.Rate)
		r.Get("/user/{userId}/books", deps.Books.UserBooks)
		r.Get("/{isbn}", deps.Books.GetBook)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", deps.Accounts.Register)
		r.Post("/login", deps.Accounts.Login)
		r.Put("/update/{id}", deps.Accounts.UpdateProfile)
		r.Put("/change-password/{id}", deps.Accounts.ChangePassword)
	})

	r.Route("/api/address", func(r chi.Router) {
		r.Post("/add/{userId}", deps.Accounts.AddAddress)
		r.Put("/update/{addressId}", deps.Accounts.UpdateAddress)
		r.Get("/user/{userId}", deps.Accounts.ListAddresses)
	})

	r.Route("/api/creditcard", func(r chi.Router) {
		r.Post("/add/{userId}", deps.Accounts.AddCard)
		r.Put("/update/{cardId}", deps.Accounts.UpdateCard)
		r.Get("/user/{userId}", deps.Accounts.ListCards)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(RequireAdmin(deps.Tokens, deps.Logger))

		r.Get("/users", deps.Admin.ListUsers)
		r.Get("/users/{userId}/books", deps.Admin.UserRentals)
		r.Put("/users/{id}", deps.Admin.UpdateUser)
		r.Delete("/users/{id}", deps.Admin.DeleteUser)

		r.Get("/books", deps.Admin.ListBooks)
		r.Put("/books/{isbn}", deps.Admin.UpdateBook)
		r.Delete("/books/{isbn}", deps.Admin.DeleteBook)
	})

	return r
}
