package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/BookWave/internal/domain"
	"github.com/GoArmGo/BookWave/internal/usecase"
)

// BookHandler обработчик HTTP-запросов каталога и аренды.
type BookHandler struct {
	books  usecase.BookUseCase
	logger *slog.Logger
}

// NewBookHandler создаёт новый экземпляр BookHandler.
func NewBookHandler(books usecase.BookUseCase, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// Search GET /api/book/search/{page}?searchTerm=&sortOption=&isAvailable=
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page number", h.logger)
		return
	}

	q := r.URL.Query()
	in := usecase.SearchInput{
		Term:       q.Get("searchTerm"),
		SortOption: q.Get("sortOption"),
		Page:       page,
	}
	if raw := q.Get("isAvailable"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid isAvailable value", h.logger)
			return
		}
		in.AvailableOnly = &available
	}

	result, err := h.books.SearchBooks(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, result, h.logger)
}

// GetBook GET /api/book/{isbn}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetBook(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, book, h.logger)
}

type rentRequest struct {
	ISBN      string `json:"isbn"`
	UserID    int64  `json:"userId"`
	AddressID int64  `json:"addressId"`
	CardID    int64  `json:"cardId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Rent POST /api/book/rent
func (h *BookHandler) Rent(w http.ResponseWriter, r *http.Request) {
	var req rentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	reservation, err := h.books.RentBook(r.Context(), usecase.RentInput{
		ISBN:      req.ISBN,
		UserID:    req.UserID,
		AddressID: req.AddressID,
		CardID:    req.CardID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Book rented successfully",
		"reservation": reservation,
	}, h.logger)
}

type returnRequest struct {
	UserID int64 `json:"userId"`
}

// Return POST /api/book/return/{reservationId}
func (h *BookHandler) Return(w http.ResponseWriter, r *http.Request) {
	reservationID, err := pathID(r, "reservationId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var req returnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, domain.NewValidationError("userId is required"), h.logger)
		return
	}

	if err := h.books.ReturnBook(r.Context(), reservationID, req.UserID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithMessage(w, "Book returned successfully", h.logger)
}

// Rate POST /api/book/rate
func (h *BookHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var in usecase.RateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := h.books.RateBook(r.Context(), in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithMessage(w, "Rating saved successfully", h.logger)
}

// UserBooks GET /api/book/user/{userId}/books
func (h *BookHandler) UserBooks(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	books, err := h.books.GetUserBooks(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, books, h.logger)
}
