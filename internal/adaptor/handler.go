package adaptor

import (
	"errors"
	"net/http"

	"superbuy/internal/data/repository"
	"superbuy/internal/usecase"
	"superbuy/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	User    *UserHandler
	Product *ProductHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		User:    NewUserHandler(service.User, log),
		Product: NewProductHandler(service.Product, log),
	}
}

// writeServiceError maps the typed domain error taxonomy to HTTP statuses.
// Anything unrecognized (connection, query, normalization failures) is a 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var existsErr *repository.AlreadyExistsError
	var fieldErr *repository.UnknownFieldError

	switch {
	case errors.As(err, &existsErr):
		log.Warn(operation+" conflict", zap.Error(err))
		utils.ResponseJSON(w, http.StatusConflict, false, err.Error(), nil, nil)

	case errors.Is(err, repository.ErrNoFieldsToUpdate), errors.As(err, &fieldErr):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidID):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	// A write that succeeded but produced no row back is a storage integrity
	// failure, not a routine query error; log it apart so it stands out.
	case errors.Is(err, repository.ErrNotFoundAfterUpdate),
		errors.Is(err, repository.ErrCreateReturnedNoRow):
		log.Error(operation+" returned no row", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")

	default:
		log.Error("failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
