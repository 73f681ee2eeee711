package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/GoArmGo/BookWave/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes предел размера JSON тела запроса
const maxBodyBytes = 1 << 20

const internalErrorMessage = "An unexpected error occurred. Please try again later."

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

func respondWithMessage(w http.ResponseWriter, message string, logger *slog.Logger) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message}, logger)
}

// sentinelStatus коды ответа и сообщения для доменных ошибок
var sentinelStatus = []struct {
	err     error
	code    int
	message string
}{
	{domain.ErrBookUnavailable, http.StatusBadRequest, "Book is not available for reservation"},
	{domain.ErrReservationConflict, http.StatusBadRequest, "Book is already reserved for the selected dates"},
	{domain.ErrAlreadyReturned, http.StatusBadRequest, "Book has already been returned"},
	{domain.ErrEmailTaken, http.StatusBadRequest, "Email already exists"},
	{domain.ErrHasActiveRentals, http.StatusBadRequest, "Cannot delete while active reservations exist"},
	{domain.ErrInvalidCredentials, http.StatusNotFound, "Invalid email or password"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
}

// writeError переводит ошибку usecase в HTTP-ответ. Текст неизвестных ошибок
// клиенту не отдается, только логируется
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		body := map[string]interface{}{"error": vErr.Error()}
		if len(vErr.Messages) > 1 {
			body["errors"] = vErr.Messages
		}
		respondWithJSON(w, http.StatusBadRequest, body, logger)
		return
	}

	var nfErr *domain.NotFoundError
	if errors.As(err, &nfErr) {
		respondWithError(w, http.StatusNotFound, nfErr.Error(), logger)
		return
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			respondWithError(w, s.code, s.message, logger)
			return
		}
	}

	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	respondWithError(w, http.StatusInternalServerError, internalErrorMessage, logger)
}

// decodeJSON читает тело запроса в dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.NewValidationError("Invalid request body")
	}
	return nil
}

// pathID разбирает положительный числовой параметр пути
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// parseDate принимает дату в формате YYYY-MM-DD или RFC 3339
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("%s is required", field))
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, domain.NewValidationError(fmt.Sprintf("Invalid %s format. Use yyyy-MM-dd", field))
}
