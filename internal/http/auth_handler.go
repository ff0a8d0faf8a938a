package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/homestay/internal/application"
)

type authService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.User, error)
	Login(ctx context.Context, params application.LoginParams) error
	VerifyTwoFactor(ctx context.Context, params application.VerifyParams) (application.TokenResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, params application.ResetPasswordParams) (application.TokenResult, error)
}

type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type registerRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Country     string  `json:"country"`
	Town        string  `json:"town"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userDTO   `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode register request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register")

	user, err := h.service.Register(r.Context(), application.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Country:     req.Country,
		Town:        req.Town,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Login")

	if err := h.service.Login(r.Context(), application.LoginParams{Email: req.Email, Password: req.Password}); err != nil {
		logger.ErrorContext(r.Context(), "login failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "verification code sent")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "a verification code has been sent to your email"})
}

func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "VerifyTwoFactor", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode verification request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "VerifyTwoFactor")

	result, err := h.service.VerifyTwoFactor(r.Context(), application.VerifyParams{Email: req.Email, Code: req.Code})
	if err != nil {
		logger.ErrorContext(r.Context(), "two-factor verification failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "access token issued")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		User:        toUserDTO(result.User),
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ForgotPassword", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode forgot password request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ForgotPassword")

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		logger.ErrorContext(r.Context(), "password reset request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "password reset code sent")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "a password reset code has been sent to your email"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ResetPassword", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reset password request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ResetPassword")

	result, err := h.service.ResetPassword(r.Context(), application.ResetPasswordParams{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "password reset failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "password reset completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		User:        toUserDTO(result.User),
	})
}
