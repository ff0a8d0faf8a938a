package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, userID string) error
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

type userDTO struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Country     string    `json:"country"`
	Town        string    `json:"town"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type userListResponse struct {
	Users []userDTO `json:"users"`
}

type createUserRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Country     string  `json:"country"`
	Town        string  `json:"town"`
	IsAdmin     bool    `json:"is_admin"`
}

type updateUserRequest struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Country     *string `json:"country,omitempty"`
	Town        *string `json:"town,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Country:     user.Country,
		Town:        user.Town,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toUserDTOs(users []application.User) []userDTO {
	dtos := make([]userDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, toUserDTO(user))
	}
	return dtos
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input: application.UserInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
			Country:     req.Country,
			Town:        req.Town,
			IsAdmin:     req.IsAdmin,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	user, err := h.service.GetUser(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", userID).ErrorContext(r.Context(), "failed to get user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list users", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userListResponse{Users: toUserDTOs(users)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "user_id", userID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "user_id", userID)

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Patch: application.UserPatch{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
			Country:     req.Country,
			Town:        req.Town,
			IsAdmin:     req.IsAdmin,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	logger := h.log(r.Context(), "Delete", "user_id", userID)

	if err := h.service.DeleteUser(r.Context(), principal, userID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	w.WriteHeader(http.StatusNoContent)
}
