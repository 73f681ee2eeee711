package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BookWave/internal/usecase"
)

// AccountHandler обрабатывает регистрацию, профиль, адреса и карты
type AccountHandler struct {
	accounts usecase.AccountUseCase
	logger   *slog.Logger
}

func NewAccountHandler(accounts usecase.AccountUseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register POST /api/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User registered successfully",
		"userId":  user.ID,
	}, h.logger)
}

// Login POST /api/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, result, h.logger)
}

// UpdateProfile PUT /api/auth/update/{id}
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// ChangePassword PUT /api/auth/change-password/{id}
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithMessage(w, "Password changed successfully", h.logger)
}

// AddAddress POST /api/address/add/{userId}
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.AddressInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	address, err := h.accounts.AddAddress(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, address, h.logger)
}

// UpdateAddress PUT /api/address/update/{addressId}
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := pathID(r, "addressId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.AddressInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	address, err := h.accounts.UpdateAddress(r.Context(), addressID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, address, h.logger)
}

// ListAddresses GET /api/address/user/{userId}
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	addresses, err := h.accounts.ListAddresses(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, addresses, h.logger)
}

// AddCard POST /api/creditcard/add/{userId}
func (h *AccountHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	card, err := h.accounts.AddCard(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, card, h.logger)
}

// UpdateCard PUT /api/creditcard/update/{cardId}
func (h *AccountHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r, "cardId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	var in usecase.CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	card, err := h.accounts.UpdateCard(r.Context(), cardID, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, card, h.logger)
}

// ListCards GET /api/creditcard/user/{userId}
func (h *AccountHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	cards, err := h.accounts.ListCards(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, cards, h.logger)
}
