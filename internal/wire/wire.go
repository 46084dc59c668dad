package wire

import (
	"net/http"

	"superbuy/internal/adaptor"
	"superbuy/internal/data/repository"
	"superbuy/internal/usecase"
	"superbuy/pkg/database"
	"superbuy/pkg/middleware"
	"superbuy/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired application.
type App struct {
	Router *chi.Mux
}

// Wiring initializes services and handlers and mounts all routes.
func Wiring(repo *repository.Repository, db *database.DB, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, db, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	db *database.DB,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	r.Route("/api/v1", func(api chi.Router) {
		wireUser(api, handler.User)
		wireProduct(api, handler.Product)
	})

	// Liveness endpoint backed by the database health probe. Reports
	// degraded state with a 503 instead of failing the request.
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		result := db.HealthCheck(req.Context())
		if !result.Connected {
			utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "Database unreachable", result, nil)
			return
		}
		utils.ResponseSuccess(w, "OK", result)
	})

	return r
}
