package usecase

import (
	"context"
	"fmt"

	"superbuy/internal/data/entity"
	"superbuy/internal/data/repository"
	"superbuy/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	CreateUser(ctx context.Context, req request.CreateUserRequest) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetAllUsers(ctx context.Context) ([]*entity.User, error)
	UpdateUser(ctx context.Context, id string, req request.UpdateUserRequest) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

type userService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, hasher PasswordHasher, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
		log:      log,
	}
}

// CreateUser rejects duplicate emails, hashes the password, and delegates to
// the repository. The lookup here is only a fast path: concurrent callers
// can race past it, and the storage unique constraint remains the
// authoritative guard (the repository translates that violation into the
// same *AlreadyExistsError).
func (us *userService) CreateUser(ctx context.Context, req request.CreateUserRequest) (*entity.User, error) {
	existing, err := us.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &repository.AlreadyExistsError{Email: req.Email}
	}

	passwordHash, err := us.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := us.userRepo.Create(ctx, repository.CreateUserParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, err
	}

	us.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)
	return user, nil
}

func (us *userService) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return us.userRepo.FindByID(ctx, userID)
}

func (us *userService) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return us.userRepo.List(ctx)
}

// UpdateUser returns nil without error when the user does not exist.
func (us *userService) UpdateUser(ctx context.Context, id string, req request.UpdateUserRequest) (*entity.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	existing, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	return us.userRepo.Update(ctx, userID, req.Fields())
}

// DeleteUser returns false without error when the user does not exist.
func (us *userService) DeleteUser(ctx context.Context, id string) (bool, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	existing, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	deleted, err := us.userRepo.Delete(ctx, userID)
	if err != nil {
		return false, err
	}

	if deleted {
		us.log.Info("user deleted", zap.String("user_id", userID.String()))
	}
	return deleted, nil
}
