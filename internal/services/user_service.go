package services

import (
	"context"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
)

// UserService resolves verified identities into user rows.
type UserService struct {
	userRepo repositories.IUserRepository
}

// NewUserService creates a new UserService instance
func NewUserService(userRepo repositories.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetOrCreate maps a verified external identity onto a local user row,
// creating the row on first contact. Identities arrive pre-verified (token
// middleware), so creation needs no password.
func (s *UserService) GetOrCreate(ctx context.Context, userID, username string) (*models.User, error) {
	if userID == "" || username == "" {
		return nil, chaterr.Validationf("identity must carry a user id and username")
	}
	return s.userRepo.GetOrCreate(ctx, &models.User{ID: userID, Username: username})
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}
