package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Places       *PlaceHandler
	Amenities    *AmenityHandler
	Reviews      *ReviewHandler
	Reservations *ReservationHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		postOnly := func(handler http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				handler(w, r)
			}
		}
		mux.HandleFunc("/auth/register", postOnly(cfg.Auth.Register))
		mux.HandleFunc("/auth/login", postOnly(cfg.Auth.Login))
		mux.HandleFunc("/auth/verify-2fa", postOnly(cfg.Auth.VerifyTwoFactor))
		mux.HandleFunc("/auth/forgot-password", postOnly(cfg.Auth.ForgotPassword))
		mux.HandleFunc("/auth/reset-password", postOnly(cfg.Auth.ResetPassword))
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/users/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithUserID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Get(w, r)
			case http.MethodPut:
				cfg.Users.Update(w, r)
			case http.MethodDelete:
				cfg.Users.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Places != nil {
		mux.HandleFunc("/places", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Places.List(w, r)
			case http.MethodPost:
				cfg.Places.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/places/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/places/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithPlaceID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Places.Get(w, r)
			case http.MethodPut:
				cfg.Places.Update(w, r)
			case http.MethodDelete:
				cfg.Places.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Amenities != nil {
		mux.HandleFunc("/amenities", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Amenities.List(w, r)
			case http.MethodPost:
				cfg.Amenities.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/amenities/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/amenities/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithAmenityID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Amenities.Get(w, r)
			case http.MethodPut:
				cfg.Amenities.Update(w, r)
			case http.MethodDelete:
				cfg.Amenities.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reviews != nil {
		mux.HandleFunc("/reviews", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Reviews.List(w, r)
			case http.MethodPost:
				cfg.Reviews.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/reviews/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/reviews/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithReviewID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Reviews.Get(w, r)
			case http.MethodPut:
				cfg.Reviews.Update(w, r)
			case http.MethodDelete:
				cfg.Reviews.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reservations != nil {
		mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Reservations.List(w, r)
			case http.MethodPost:
				cfg.Reservations.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/reservations/availability", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reservations.CheckAvailability(w, r)
		})
		mux.HandleFunc("/reservations/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/reservations/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithReservationID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Reservations.Get(w, r)
			case http.MethodPut:
				cfg.Reservations.Update(w, r)
			case http.MethodDelete:
				cfg.Reservations.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
