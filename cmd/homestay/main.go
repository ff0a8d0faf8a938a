package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/homestay/internal/application"
	"github.com/example/homestay/internal/config"
	httptransport "github.com/example/homestay/internal/http"
	"github.com/example/homestay/internal/mail"
	"github.com/example/homestay/internal/persistence"
	"github.com/example/homestay/internal/persistence/sqlite"
	"github.com/example/homestay/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := newUserRepositoryAdapter(storage.Users)
	placeRepo := newPlaceRepositoryAdapter(storage.Places)
	amenityRepo := newAmenityRepositoryAdapter(storage.Amenities)
	reviewRepo := newReviewRepositoryAdapter(storage.Reviews)
	reservationRepo := newReservationRepositoryAdapter(storage.Reservations)

	var sender application.EmailSender
	if cfg.MailerSendAPIKey == "" {
		logger.Warn("no MailerSend API key configured, verification codes will only be logged")
		sender = mail.NewLogSender(logger)
	} else {
		sender = mail.NewSender(cfg.MailerSendAPIKey, cfg.MailFromName, cfg.MailFromAddress, logger)
	}

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	loginCodes := application.NewCodeStore(cfg.CodeTTL, now)
	resetCodes := application.NewCodeStore(cfg.CodeTTL, now)

	authService := application.NewAuthServiceWithLogger(userRepo, userRepo, loginCodes, resetCodes, sender, issuer, idGenerator, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)
	placeService := application.NewPlaceServiceWithLogger(placeRepo, amenityRepo, idGenerator, now, logger)
	amenityService := application.NewAmenityServiceWithLogger(amenityRepo, idGenerator, now, logger)
	reviewService := application.NewReviewServiceWithLogger(reviewRepo, placeRepo, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, placeRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Places:       httptransport.NewPlaceHandler(placeService, logger),
		Amenities:    httptransport.NewAmenityHandler(amenityService, logger),
		Reviews:      httptransport.NewReviewHandler(reviewService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
	})

	protected := httptransport.RequireAuth(newTokenValidatorAdapter(issuer), logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("homestay API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

type tokenValidatorAdapter struct {
	issuer *token.Issuer
}

func newTokenValidatorAdapter(issuer *token.Issuer) *tokenValidatorAdapter {
	return &tokenValidatorAdapter{issuer: issuer}
}

func (a *tokenValidatorAdapter) Validate(ctx context.Context, tokenStr string) (application.Principal, error) {
	claims, err := a.issuer.Parse(tokenStr)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", application.ErrUnauthorized, err)
	}
	return application.Principal{UserID: claims.Subject, IsAdmin: claims.IsAdmin}, nil
}

// userRepositoryAdapter bridges the persistence user repository to both the
// application.UserRepository and application.CredentialStore interfaces.
type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByUsername(ctx context.Context, username string) (application.User, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByPhone(ctx context.Context, phone string) (application.User, error) {
	stored, err := a.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if passwordHash == "" {
		current, err := a.repo.GetUser(ctx, user.ID)
		if err != nil {
			return application.User{}, err
		}
		passwordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) SetPassword(ctx context.Context, userID, passwordHash string) error {
	current, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	current.PasswordHash = passwordHash
	return a.repo.UpdateUser(ctx, current)
}

type placeRepositoryAdapter struct {
	repo persistence.PlaceRepository
}

func newPlaceRepositoryAdapter(repo persistence.PlaceRepository) *placeRepositoryAdapter {
	return &placeRepositoryAdapter{repo: repo}
}

func (a *placeRepositoryAdapter) CreatePlace(ctx context.Context, place application.Place) (application.Place, error) {
	if err := a.repo.CreatePlace(ctx, toPersistencePlace(place)); err != nil {
		return application.Place{}, err
	}
	stored, err := a.repo.GetPlace(ctx, place.ID)
	if err != nil {
		return application.Place{}, err
	}
	return toApplicationPlace(stored), nil
}

func (a *placeRepositoryAdapter) GetPlace(ctx context.Context, id string) (application.Place, error) {
	stored, err := a.repo.GetPlace(ctx, id)
	if err != nil {
		return application.Place{}, err
	}
	return toApplicationPlace(stored), nil
}

func (a *placeRepositoryAdapter) UpdatePlace(ctx context.Context, place application.Place) (application.Place, error) {
	if err := a.repo.UpdatePlace(ctx, toPersistencePlace(place)); err != nil {
		return application.Place{}, err
	}
	stored, err := a.repo.GetPlace(ctx, place.ID)
	if err != nil {
		return application.Place{}, err
	}
	return toApplicationPlace(stored), nil
}

func (a *placeRepositoryAdapter) DeletePlace(ctx context.Context, id string) error {
	return a.repo.DeletePlace(ctx, id)
}

func (a *placeRepositoryAdapter) ListPlaces(ctx context.Context) ([]application.Place, error) {
	models, err := a.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationPlaces(models), nil
}

func (a *placeRepositoryAdapter) ListPlacesByOwner(ctx context.Context, ownerID string) ([]application.Place, error) {
	models, err := a.repo.ListPlacesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toApplicationPlaces(models), nil
}

// amenityRepositoryAdapter serves both the amenity service's repository
// interface and the place service's catalog interface.
type amenityRepositoryAdapter struct {
	repo persistence.AmenityRepository
}

func newAmenityRepositoryAdapter(repo persistence.AmenityRepository) *amenityRepositoryAdapter {
	return &amenityRepositoryAdapter{repo: repo}
}

func (a *amenityRepositoryAdapter) CreateAmenity(ctx context.Context, amenity application.Amenity) (application.Amenity, error) {
	if err := a.repo.CreateAmenity(ctx, toPersistenceAmenity(amenity)); err != nil {
		return application.Amenity{}, err
	}
	stored, err := a.repo.GetAmenity(ctx, amenity.ID)
	if err != nil {
		return application.Amenity{}, err
	}
	return toApplicationAmenity(stored), nil
}

func (a *amenityRepositoryAdapter) GetAmenity(ctx context.Context, id string) (application.Amenity, error) {
	stored, err := a.repo.GetAmenity(ctx, id)
	if err != nil {
		return application.Amenity{}, err
	}
	return toApplicationAmenity(stored), nil
}

func (a *amenityRepositoryAdapter) GetAmenityByName(ctx context.Context, name string) (application.Amenity, error) {
	stored, err := a.repo.GetAmenityByName(ctx, name)
	if err != nil {
		return application.Amenity{}, err
	}
	return toApplicationAmenity(stored), nil
}

func (a *amenityRepositoryAdapter) UpdateAmenity(ctx context.Context, amenity application.Amenity) (application.Amenity, error) {
	if err := a.repo.UpdateAmenity(ctx, toPersistenceAmenity(amenity)); err != nil {
		return application.Amenity{}, err
	}
	stored, err := a.repo.GetAmenity(ctx, amenity.ID)
	if err != nil {
		return application.Amenity{}, err
	}
	return toApplicationAmenity(stored), nil
}

func (a *amenityRepositoryAdapter) DeleteAmenity(ctx context.Context, id string) error {
	return a.repo.DeleteAmenity(ctx, id)
}

func (a *amenityRepositoryAdapter) ListAmenities(ctx context.Context) ([]application.Amenity, error) {
	models, err := a.repo.ListAmenities(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	amenities := make([]application.Amenity, 0, len(models))
	for _, model := range models {
		amenities = append(amenities, toApplicationAmenity(model))
	}
	return amenities, nil
}

type reviewRepositoryAdapter struct {
	repo persistence.ReviewRepository
}

func newReviewRepositoryAdapter(repo persistence.ReviewRepository) *reviewRepositoryAdapter {
	return &reviewRepositoryAdapter{repo: repo}
}

func (a *reviewRepositoryAdapter) CreateReview(ctx context.Context, review application.Review) (application.Review, error) {
	if err := a.repo.CreateReview(ctx, toPersistenceReview(review)); err != nil {
		return application.Review{}, err
	}
	stored, err := a.repo.GetReview(ctx, review.ID)
	if err != nil {
		return application.Review{}, err
	}
	return toApplicationReview(stored), nil
}

func (a *reviewRepositoryAdapter) GetReview(ctx context.Context, id string) (application.Review, error) {
	stored, err := a.repo.GetReview(ctx, id)
	if err != nil {
		return application.Review{}, err
	}
	return toApplicationReview(stored), nil
}

func (a *reviewRepositoryAdapter) UpdateReview(ctx context.Context, review application.Review) (application.Review, error) {
	if err := a.repo.UpdateReview(ctx, toPersistenceReview(review)); err != nil {
		return application.Review{}, err
	}
	stored, err := a.repo.GetReview(ctx, review.ID)
	if err != nil {
		return application.Review{}, err
	}
	return toApplicationReview(stored), nil
}

func (a *reviewRepositoryAdapter) DeleteReview(ctx context.Context, id string) error {
	return a.repo.DeleteReview(ctx, id)
}

func (a *reviewRepositoryAdapter) ListReviewsForPlace(ctx context.Context, placeID string) ([]application.Review, error) {
	models, err := a.repo.ListReviewsForPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	reviews := make([]application.Review, 0, len(models))
	for _, model := range models {
		reviews = append(reviews, toApplicationReview(model))
	}
	return reviews, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		UserID:      filter.UserID,
		PlaceID:     filter.PlaceID,
		StartsAfter: cloneTime(filter.StartsAfter),
		EndsBefore:  cloneTime(filter.EndsBefore),
	})
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

func (a *reservationRepositoryAdapter) ListReservationsForPlace(ctx context.Context, placeID string) ([]application.Reservation, error) {
	models, err := a.repo.ListReservationsForPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Username:    model.Username,
		Email:       model.Email,
		PhoneNumber: cloneString(model.PhoneNumber),
		Country:     model.Country,
		Town:        model.Town,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cloneString(user.PhoneNumber),
		Country:      user.Country,
		Town:         user.Town,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationPlace(model persistence.Place) application.Place {
	return application.Place{
		ID:           model.ID,
		OwnerID:      model.OwnerID,
		Name:         model.Name,
		Description:  model.Description,
		PriceByNight: model.PriceByNight,
		Location:     model.Location,
		Country:      model.Country,
		Town:         model.Town,
		Latitude:     cloneFloat(model.Latitude),
		Longitude:    cloneFloat(model.Longitude),
		Amenities:    append([]string(nil), model.Amenities...),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toApplicationPlaces(models []persistence.Place) []application.Place {
	if len(models) == 0 {
		return nil
	}
	places := make([]application.Place, 0, len(models))
	for _, model := range models {
		places = append(places, toApplicationPlace(model))
	}
	return places
}

func toPersistencePlace(place application.Place) persistence.Place {
	return persistence.Place{
		ID:           place.ID,
		OwnerID:      place.OwnerID,
		Name:         place.Name,
		Description:  place.Description,
		PriceByNight: place.PriceByNight,
		Location:     place.Location,
		Country:      place.Country,
		Town:         place.Town,
		Latitude:     cloneFloat(place.Latitude),
		Longitude:    cloneFloat(place.Longitude),
		Amenities:    append([]string(nil), place.Amenities...),
		CreatedAt:    place.CreatedAt,
		UpdatedAt:    place.UpdatedAt,
	}
}

func toApplicationAmenity(model persistence.Amenity) application.Amenity {
	return application.Amenity{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceAmenity(amenity application.Amenity) persistence.Amenity {
	return persistence.Amenity{
		ID:        amenity.ID,
		Name:      amenity.Name,
		CreatedAt: amenity.CreatedAt,
		UpdatedAt: amenity.UpdatedAt,
	}
}

func toApplicationReview(model persistence.Review) application.Review {
	return application.Review{
		ID:        model.ID,
		UserID:    model.UserID,
		PlaceID:   model.PlaceID,
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceReview(review application.Review) persistence.Review {
	return persistence.Review{
		ID:        review.ID,
		UserID:    review.UserID,
		PlaceID:   review.PlaceID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:        model.ID,
		UserID:    model.UserID,
		PlaceID:   model.PlaceID,
		Start:     model.Start,
		End:       model.End,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationReservations(models []persistence.Reservation) []application.Reservation {
	if len(models) == 0 {
		return nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        reservation.ID,
		UserID:    reservation.UserID,
		PlaceID:   reservation.PlaceID,
		Start:     reservation.Start,
		End:       reservation.End,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
