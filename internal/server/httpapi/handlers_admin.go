package httpapi

import (
	"net/http"
	"strconv"

	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const temporaryPasswordWarning = "this password is shown only once"

type createAccountRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type createAccountResponse struct {
	Message           string  `json:"message"`
	User              userDTO `json:"user"`
	TemporaryPassword string  `json:"temporary_password"`
	Warning           string  `json:"warning"`
}

type resetPasswordResponse struct {
	Message           string `json:"message"`
	TemporaryPassword string `json:"temporary_password"`
	Warning           string `json:"warning"`
}

type accountResponse struct {
	User userDTO `json:"user"`
}

func userIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	return id, err == nil && id > 0
}

func (a *api) handleAdminCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, temp, err := a.auth.CreateAccount(r.Context(), req.Email, models.Role(req.Role))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	admin, _ := UserFromContext(r.Context())
	a.logger.Info(r.Context(), "admin created account", "admin_id", admin.ID, "user_id", user.ID)

	writeJSON(w, http.StatusCreated, createAccountResponse{
		Message:           "account created",
		User:              toUserDTO(user),
		TemporaryPassword: temp,
		Warning:           temporaryPasswordWarning,
	})
}

func (a *api) handleAdminSetActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, _ := UserFromContext(r.Context())
	user, err := a.auth.SetAccountActive(r.Context(), admin, userID, *req.IsActive)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{User: toUserDTO(user)})
}

func (a *api) handleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	temp, err := a.auth.ResetPassword(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	admin, _ := UserFromContext(r.Context())
	a.logger.Info(r.Context(), "admin reset password", "admin_id", admin.ID, "user_id", userID)

	writeJSON(w, http.StatusOK, resetPasswordResponse{
		Message:           "password reset",
		TemporaryPassword: temp,
		Warning:           temporaryPasswordWarning,
	})
}
