package usecase

import (
	"superbuy/internal/data/repository"
	"superbuy/pkg/utils"

	"go.uber.org/zap"
)

// Service bundles all services for wiring.
type Service struct {
	User    UserService
	Product ProductService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger) *Service {
	hasher := NewBcryptHasher(config.App.BcryptCost)

	return &Service{
		User:    NewUserService(repo.User, hasher, log),
		Product: NewProductService(repo.Product, log),
	}
}
