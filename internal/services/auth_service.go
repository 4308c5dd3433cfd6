package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/utils"
	"github.com/joejoe2/spring-chat-sub000/middleware/jwt"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = chaterr.Validationf("invalid username or password")

// AuthService issues identities for the chat core.
type AuthService struct {
	userRepo repositories.IUserRepository
	tokens   *jwt.TokenManager
}

// NewAuthService creates a new AuthService instance
func NewAuthService(userRepo repositories.IUserRepository, tokens *jwt.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterRequest carries a registration form.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest carries a login form.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a signed token plus the user it identifies.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if !utils.ValidateUserName(req.Username) {
		return nil, chaterr.Validationf("username must be 3-20 characters of letters, digits or underscores")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, chaterr.Validationf("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, chaterr.ErrConflict) {
			return nil, chaterr.Conflictf("username %s is taken", req.Username)
		}
		return nil, err
	}
	return s.respond(user)
}

// Login verifies the credentials and signs the user in.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, chaterr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.respond(user)
}

func (s *AuthService) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}
