package auth

import (
	"context"
	"errors"
	"net/mail"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth/jwt"
	"github.com/triviarena/backend/internal/db/model"
	"github.com/triviarena/backend/internal/db/repository"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

const minPasswordLength = 8

// UserStore is the account persistence surface.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

// Service handles registration, login and token validation.
type Service struct {
	users  UserStore
	tokens *jwt.Manager
	logger zerolog.Logger
}

// NewService creates an auth service.
func NewService(users UserStore, tokens *jwt.Manager, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Session is a logged-in user plus their bearer token.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}

// Register creates an account and returns a session.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, httperrors.InvalidInput(httperrors.CodeInvalidRequest, "invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, httperrors.InvalidInput(httperrors.CodeInvalidRequest,
			"password must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "hashing password", err)
	}

	user, err := s.users.Create(ctx, email, hash)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, httperrors.Conflict(httperrors.CodeEmailTaken, "email already registered")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "creating user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(user)
}

// Login verifies credentials and returns a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, httperrors.Forbidden(httperrors.CodeLoginFailed, "invalid email or password")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading user", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, httperrors.Forbidden(httperrors.CodeLoginFailed, "invalid email or password")
	}

	if err := s.users.UpdateLastSeen(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("updating last seen failed")
	}
	return s.session(user)
}

// ValidateToken parses a bearer token into claims.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokens.Validate(token)
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, httperrors.NotFound(httperrors.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading user", err)
	}
	return user, nil
}

func (s *Service) session(user *model.User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "signing token", err)
	}
	return &Session{UserID: user.ID, Email: user.Email, Token: token}, nil
}
