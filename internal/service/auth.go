package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bibforms/forms-api/internal/logging"
	"github.com/bibforms/forms-api/internal/models"
	"github.com/bibforms/forms-api/internal/repository"
	"github.com/bibforms/forms-api/internal/tokens"
)

// AuthStore is the persistence surface the auth service depends on.
type AuthStore interface {
	repository.ProfileStore
	repository.SessionStore
}

// AuthService implements registration, login and token verification. A token
// is only accepted while both the JWT is valid and its session row is alive.
type AuthService struct {
	store  AuthStore
	tokens *tokens.Generator
	logger *logging.Logger
}

func NewAuthService(store AuthStore, gen *tokens.Generator, logger *logging.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: gen,
		logger: logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrEmailRequired
	}

	role := req.Role
	if role == "" {
		role = models.RoleClient
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID, _ := uuid.NewV7()
	profile := &models.Profile{
		ID:           userID.String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	profile.UpdatedAt = profile.CreatedAt

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	token, err := s.createSession(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", logging.UserID(profile.ID))

	return &models.AuthResponse{User: *profile, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrEmailRequired
	}

	profile, err := s.store.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.createSession(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{User: *profile, Token: token}, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", err
	}

	sessionID, _ := uuid.NewV7()
	session := &models.Session{
		ID:        sessionID.String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// Verify validates the JWT and checks that its session row is still alive.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.AuthenticatedUser, error) {
	if _, err := s.tokens.Validate(token); err != nil {
		return nil, err
	}

	session, err := s.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfileByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return &models.AuthenticatedUser{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	// All sessions for the user are invalidated after a password change.
	return s.store.DeleteSessionsForUser(ctx, userID)
}

// ResetPassword sets a new password without checking the old one. Admin only;
// the handler enforces that.
func (s *AuthService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	return s.store.DeleteSessionsForUser(ctx, userID)
}

// CleanExpiredSessions removes expired session rows and returns the count.
func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx)
}
