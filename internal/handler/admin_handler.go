package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/BookWave/internal/usecase"
)

// AdminHandler обработчики раздела /api/admin, доступны только администраторам
type AdminHandler struct {
	admin  usecase.AdminUseCase
	logger *slog.Logger
}

func NewAdminHandler(admin usecase.AdminUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, users, h.logger)
}

func (h *AdminHandler) UserRentals(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	rentals, err := h.admin.GetUserRentals(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, rentals, h.logger)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.AdminUpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.admin.UpdateUser(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.audit(r, "update_user", chi.URLParam(r, "id"))
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := h.admin.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.audit(r, "delete_user", chi.URLParam(r, "id"))
	respondWithMessage(w, "User deleted successfully", h.logger)
}

// ListBooks GET /api/admin/books?page=&searchTerm=
func (h *AdminHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid page number", h.logger)
			return
		}
		page = p
	}

	result, err := h.admin.ListBooks(r.Context(), r.URL.Query().Get("searchTerm"), page)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, result, h.logger)
}

func (h *AdminHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var in usecase.UpdateBookInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	book, err := h.admin.UpdateBook(r.Context(), chi.URLParam(r, "isbn"), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.audit(r, "update_book", book.ISBN)
	respondWithJSON(w, http.StatusOK, book, h.logger)
}

func (h *AdminHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteBook(r.Context(), chi.URLParam(r, "isbn")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.audit(r, "delete_book", chi.URLParam(r, "isbn"))
	respondWithMessage(w, "Book deleted successfully", h.logger)
}

// audit пишет в лог, какой администратор изменил данные
func (h *AdminHandler) audit(r *http.Request, action, target string) {
	var adminID int64
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		adminID = claims.UserID
	}
	h.logger.Info("admin action", "action", action, "target", target, "admin_id", adminID)
}
