package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"notes-server/internal/domain"
	"notes-server/internal/idgen"
	"notes-server/internal/repository"
	"notes-server/pkg/hash"
	"notes-server/pkg/jwt"
)

const (
	welcomeTitle   = "Добро пожаловать! 👋"
	welcomeContent = "Привет, %s! Добро пожаловать в приложение для заметок. " +
		"Это ваша первая заметка. Вы можете ее отредактировать или удалить."

	seedNoteTitle   = "Добро пожаловать!"
	seedNoteContent = "Это ваша первая заметка. 🎉"
)

var (
	welcomeTags  = []string{"приветствие", "инструкция"}
	seedNoteTags = []string{"важное", "приветствие"}
)

type AuthService struct {
	userRepo          repository.UserRepository
	noteRepo          repository.NoteRepository
	validate          *validator.Validate
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
	log               *logrus.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	noteRepo repository.NoteRepository,
	jwtSecret string,
	jwtExp, refreshExp time.Duration,
	opts ...Option,
) *AuthService {
	o := buildOptions(opts)
	return &AuthService{
		userRepo:          userRepo,
		noteRepo:          noteRepo,
		validate:          validator.New(),
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
		now:               o.now,
		log:               o.logger,
	}
}

// Register creates the account and its welcome note.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, registerValidationError(err)
	}

	usernameExists, err := s.userRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if usernameExists {
		return nil, &ConflictError{Message: msgUsernameTaken}
	}

	emailExists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return nil, &ConflictError{Message: msgEmailTaken}
	}

	user, err := s.createUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	note, err := s.createNote(ctx, user.ID, welcomeTitle, fmt.Sprintf(welcomeContent, user.Username), welcomeTags)
	if err != nil {
		// Without its welcome note the account is half-registered; drop it so
		// the same username and email can register again.
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.log.WithError(delErr).WithField("user_id", user.ID).Error("failed to roll back user after welcome note failure")
		}
		return nil, fmt.Errorf("failed to create welcome note: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")

	return &domain.RegisterResponse{
		UserID:   user.ID,
		Username: user.Username,
		NoteID:   note.ID,
	}, nil
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	hashedPassword, err := hash.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:        idgen.New(),
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: s.now(),
		IsActive:  true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, &ConflictError{Message: msgUsernameTaken}
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, &ConflictError{Message: msgEmailTaken}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) createNote(ctx context.Context, userID, title, content string, tags []string) (*domain.Note, error) {
	now := s.now()
	note := &domain.Note{
		ID:        idgen.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Tags:      append([]string{}, tags...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Message: msgCredentialsRequired}
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthError{Message: msgInvalidCredentials}
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, &AuthError{Message: msgInvalidCredentials}
	}

	if err := hash.Compare(user.Password, req.Password); err != nil {
		return nil, &AuthError{Message: msgInvalidCredentials, Err: err}
	}

	accessToken, err := jwt.GenerateToken(user.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record last login: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")

	return &domain.LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		CreatedAt:    user.CreatedAt,
	}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	if strings.TrimSpace(req.RefreshToken) == "" {
		return nil, &ValidationError{Message: msgInvalidRefreshToken, Fields: map[string]bool{"refreshToken": true}}
	}

	claims, err := jwt.ValidateTyped(req.RefreshToken, s.jwtSecret, jwt.TypeRefresh)
	if err != nil {
		return nil, &AuthError{Message: msgInvalidRefreshToken, Err: err}
	}

	if _, err := s.activeUser(ctx, claims.UserID); err != nil {
		return nil, err
	}

	accessToken, err := jwt.GenerateToken(claims.UserID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		Token:     accessToken,
		ExpiresIn: int64(s.jwtExpiration.Seconds()),
	}, nil
}

// Resolve maps an access token to its active user. The token may be bare or
// carry a "Bearer " prefix.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}

	if token == "" {
		return nil, &AuthError{Message: msgAuthRequired}
	}

	claims, err := jwt.ValidateTyped(token, s.jwtSecret, jwt.TypeAccess)
	if err != nil {
		return nil, &AuthError{Message: msgInvalidToken, Err: err}
	}

	return s.activeUser(ctx, claims.UserID)
}

func (s *AuthService) activeUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthError{Message: msgUserNotFound, Err: err}
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, &AuthError{Message: msgUserNotFound}
	}

	return user, nil
}

// EnsureSeed creates the seed account and its note unless the username is
// already registered.
func (s *AuthService) EnsureSeed(ctx context.Context, seed domain.SeedUser) error {
	exists, err := s.userRepo.UsernameExists(ctx, seed.Username)
	if err != nil {
		return fmt.Errorf("failed to check seed user: %w", err)
	}
	if exists {
		return nil
	}

	user, err := s.createUser(ctx, seed.Username, seed.Email, seed.Password)
	if err != nil {
		if IsConflict(err) {
			return nil
		}
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	if _, err := s.createNote(ctx, user.ID, seedNoteTitle, seedNoteContent, seedNoteTags); err != nil {
		return fmt.Errorf("failed to create seed note: %w", err)
	}

	s.log.WithField("username", user.Username).Info("seed user created")
	return nil
}
