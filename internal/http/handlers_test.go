package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/homestay/internal/application"
)

type authServiceStub struct {
	registerUser application.User
	registerErr  error
	loginErr     error
	verifyResult application.TokenResult
	verifyErr    error
	forgotErr    error
	resetResult  application.TokenResult
	resetErr     error

	lastLogin  application.LoginParams
	lastVerify application.VerifyParams
	lastReset  application.ResetPasswordParams
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (application.User, error) {
	return s.registerUser, s.registerErr
}

func (s *authServiceStub) Login(ctx context.Context, params application.LoginParams) error {
	s.lastLogin = params
	return s.loginErr
}

func (s *authServiceStub) VerifyTwoFactor(ctx context.Context, params application.VerifyParams) (application.TokenResult, error) {
	s.lastVerify = params
	return s.verifyResult, s.verifyErr
}

func (s *authServiceStub) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotErr
}

func (s *authServiceStub) ResetPassword(ctx context.Context, params application.ResetPasswordParams) (application.TokenResult, error) {
	s.lastReset = params
	return s.resetResult, s.resetErr
}

type userServiceStub struct {
	user    application.User
	users   []application.User
	err     error
	lastGet string
}

func (s *userServiceStub) CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error) {
	s.lastGet = userID
	return s.user, s.err
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error) {
	return s.users, s.err
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	return s.err
}

type reservationServiceStub struct {
	reservation  application.Reservation
	reservations []application.Reservation
	available    bool
	err          error

	lastList         application.ReservationListParams
	lastAvailability struct {
		placeID    string
		start, end time.Time
	}
}

func (s *reservationServiceStub) CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	return s.reservation, s.err
}

func (s *reservationServiceStub) GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	return s.reservation, s.err
}

func (s *reservationServiceStub) ListReservations(ctx context.Context, params application.ReservationListParams) ([]application.Reservation, error) {
	s.lastList = params
	return s.reservations, s.err
}

func (s *reservationServiceStub) CheckAvailability(ctx context.Context, principal application.Principal, placeID string, start, end time.Time) (bool, error) {
	s.lastAvailability.placeID = placeID
	s.lastAvailability.start = start
	s.lastAvailability.end = end
	return s.available, s.err
}

func (s *reservationServiceStub) UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	return s.reservation, s.err
}

func (s *reservationServiceStub) DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error {
	return s.err
}

type validatorStub struct {
	principal application.Principal
	err       error
}

func (v validatorStub) Validate(ctx context.Context, token string) (application.Principal, error) {
	return v.principal, v.err
}

func authedRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	return req
}

func decodeErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login responds with a confirmation message instead of a token", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"hunter42"}`))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if service.lastLogin.Email != "alice@example.com" {
			t.Fatalf("expected login email forwarded, got %q", service.lastLogin.Email)
		}
		if strings.Contains(recorder.Body.String(), "access_token") {
			t.Fatal("login must not issue an access token before code verification")
		}
	})

	t.Run("verify-2fa returns the access token and user", func(t *testing.T) {
		t.Parallel()

		expires := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
		service := &authServiceStub{verifyResult: application.TokenResult{
			AccessToken: "jwt-token",
			ExpiresAt:   expires,
			User:        application.User{ID: "user-1", Username: "alice"},
		}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/verify-2fa", strings.NewReader(`{"email":"alice@example.com","code":"123456"}`))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var resp tokenResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode token response: %v", err)
		}
		if resp.AccessToken != "jwt-token" {
			t.Fatalf("expected access token in response, got %q", resp.AccessToken)
		}
		if !resp.ExpiresAt.Equal(expires) {
			t.Fatalf("expected expiry %v, got %v", expires, resp.ExpiresAt)
		}
		if resp.User.ID != "user-1" {
			t.Fatalf("expected user in response, got %q", resp.User.ID)
		}
		if service.lastVerify.Code != "123456" {
			t.Fatalf("expected code forwarded, got %q", service.lastVerify.Code)
		}
	})

	t.Run("map handshake sentinel errors to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			err            error
			expectedStatus int
		}{
			{name: "invalid credentials", err: application.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized},
			{name: "wrong code", err: application.ErrInvalidCode, expectedStatus: http.StatusUnauthorized},
			{name: "expired code", err: application.ErrCodeExpired, expectedStatus: http.StatusUnauthorized},
			{name: "no pending code", err: application.ErrNoPendingCode, expectedStatus: http.StatusBadRequest},
			{name: "email delivery failure", err: application.ErrEmailSendFailure, expectedStatus: http.StatusBadGateway},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				service := &authServiceStub{loginErr: tc.err, verifyErr: tc.err}
				router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

				recorder := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.co","password":"pw"}`))
				router.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected %d, got %d: %s", tc.expectedStatus, recorder.Code, recorder.Body.String())
				}
			})
		}
	})

	t.Run("reset-password signs the caller in with a fresh token", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{resetResult: application.TokenResult{
			AccessToken: "fresh-jwt",
			User:        application.User{ID: "user-3"},
		}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"email":"a@b.co","code":"123456","new_password":"brand-new"}`))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var resp tokenResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode token response: %v", err)
		}
		if resp.AccessToken != "fresh-jwt" {
			t.Fatalf("expected fresh access token, got %q", resp.AccessToken)
		}
		if service.lastReset.NewPassword != "brand-new" {
			t.Fatalf("expected new password forwarded, got %q", service.lastReset.NewPassword)
		}
	})

	t.Run("short password during reset does not hit 500", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{resetErr: &application.ValidationError{FieldErrors: map[string]string{"password": "password must be at least 6 characters"}}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"email":"a@b.co","code":"123456","new_password":"ab"}`))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeErrorResponse(t, recorder)
		if resp.Errors["password"] == "" {
			t.Fatalf("expected password field error, got %v", resp.Errors)
		}
	})

	t.Run("auth endpoints reject non-POST methods", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("expected Allow: POST, got %q", allow)
		}
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	newUserRouter := func(service *userServiceStub, principal application.Principal) http.Handler {
		return NewRouter(RouterConfig{
			Users:      NewUserHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{RequireAuth(validatorStub{principal: principal}, nil)},
		})
	}

	t.Run("path identifier reaches the service", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{user: application.User{ID: "user-7", Username: "gina"}}
		router := newUserRouter(service, application.Principal{UserID: "user-7"})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/users/user-7", ""))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if service.lastGet != "user-7" {
			t.Fatalf("expected path id forwarded, got %q", service.lastGet)
		}

		var resp userResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode user response: %v", err)
		}
		if resp.User.Username != "gina" {
			t.Fatalf("expected username in payload, got %q", resp.User.Username)
		}
	})

	t.Run("service authorization failures map to 403", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{err: application.ErrUnauthorized}
		router := newUserRouter(service, application.Principal{UserID: "user-9"})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodPost, "/users", `{"username":"x","email":"x@example.com","password":"secret1"}`))

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeErrorResponse(t, recorder)
		if resp.ErrorCode != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN error code, got %q", resp.ErrorCode)
		}
	})

	t.Run("validation failures surface field errors", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{err: &application.ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}}
		router := newUserRouter(service, application.Principal{UserID: "admin", IsAdmin: true})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodPost, "/users", `{"username":"x","email":"not-an-email","password":"secret1"}`))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeErrorResponse(t, recorder)
		if resp.Errors["email"] != "email is invalid" {
			t.Fatalf("expected email field error, got %v", resp.Errors)
		}
	})

	t.Run("missing resources map to 404", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{err: application.ErrNotFound}
		router := newUserRouter(service, application.Principal{UserID: "user-9"})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/users/missing", ""))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("delete answers 204 without a body", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{}
		router := newUserRouter(service, application.Principal{UserID: "user-7"})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodDelete, "/users/user-7", ""))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if recorder.Body.Len() != 0 {
			t.Fatalf("expected empty body, got %q", recorder.Body.String())
		}
	})
}

func TestReservationHandlers(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1"}
	newReservationRouter := func(service *reservationServiceStub) http.Handler {
		return NewRouter(RouterConfig{
			Reservations: NewReservationHandler(service, nil),
			Middleware:   []func(http.Handler) http.Handler{RequireAuth(validatorStub{principal: principal}, nil)},
		})
	}

	t.Run("conflicting windows answer 409 with a conflict code", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{err: application.ErrConflictingReservation}
		router := newReservationRouter(service)

		recorder := httptest.NewRecorder()
		body := `{"place_id":"place-1","start":"2024-06-01T14:00:00Z","end":"2024-06-05T10:00:00Z"}`
		router.ServeHTTP(recorder, authedRequest(http.MethodPost, "/reservations", body))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeErrorResponse(t, recorder)
		if resp.ErrorCode != "RESERVATION_CONFLICT" {
			t.Fatalf("expected RESERVATION_CONFLICT error code, got %q", resp.ErrorCode)
		}
	})

	t.Run("inverted windows answer 422", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{err: application.ErrInvalidInterval}
		router := newReservationRouter(service)

		recorder := httptest.NewRecorder()
		body := `{"place_id":"place-1","start":"2024-06-05T10:00:00Z","end":"2024-06-01T14:00:00Z"}`
		router.ServeHTTP(recorder, authedRequest(http.MethodPost, "/reservations", body))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
	})

	t.Run("list forwards query filters to the service", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{}
		router := newReservationRouter(service)

		recorder := httptest.NewRecorder()
		target := "/reservations?place_id=place-1&user_id=user-1&starts_after=2024-06-01T00:00:00Z&ends_before=2024-07-01T00:00:00Z"
		router.ServeHTTP(recorder, authedRequest(http.MethodGet, target, ""))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if service.lastList.PlaceID != "place-1" || service.lastList.UserID != "user-1" {
			t.Fatalf("expected id filters forwarded, got %+v", service.lastList)
		}
		if service.lastList.StartsAfter == nil || service.lastList.EndsBefore == nil {
			t.Fatal("expected time filters forwarded")
		}
		if got := *service.lastList.StartsAfter; !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected starts_after %v", got)
		}
	})

	t.Run("malformed time filters answer 400", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{}
		router := newReservationRouter(service)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/reservations?starts_after=yesterday", ""))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("availability reports the checked window", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{available: true}
		router := newReservationRouter(service)

		recorder := httptest.NewRecorder()
		target := "/reservations/availability?place_id=place-1&start=2024-06-01T14:00:00Z&end=2024-06-05T10:00:00Z"
		router.ServeHTTP(recorder, authedRequest(http.MethodGet, target, ""))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}

		var resp availabilityResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode availability response: %v", err)
		}
		if !resp.Available {
			t.Fatal("expected available window")
		}
		if service.lastAvailability.placeID != "place-1" {
			t.Fatalf("expected place id forwarded, got %q", service.lastAvailability.placeID)
		}
	})

	t.Run("availability requires a place and valid timestamps", func(t *testing.T) {
		t.Parallel()

		service := &reservationServiceStub{}
		router := newReservationRouter(service)

		for _, target := range []string{
			"/reservations/availability?start=2024-06-01T14:00:00Z&end=2024-06-05T10:00:00Z",
			"/reservations/availability?place_id=place-1&start=tomorrow&end=2024-06-05T10:00:00Z",
		} {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, authedRequest(http.MethodGet, target, ""))
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 for %q, got %d", target, recorder.Code)
			}
		}
	})
}
