package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/repos"
	"github.com/parastudy/parastudy-backend/internal/types"
)

type UserService interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("Failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*types.User, error) {
	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(firstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		user.LastName = v
	}
	if err := us.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("Failed to update user: %w", err)
	}
	return user, nil
}
