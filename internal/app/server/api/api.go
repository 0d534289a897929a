// One-time file transfer service:
// a sender uploads a file and receives a short access code;
// the recipient redeems the code for exactly one download;
// the file is destroyed on redemption, expiry or cancellation.

//POST   /api/v1/transfers               # Upload a file, get a code
//GET    /api/v1/transfers/{code}        # Peek without consuming
//POST   /api/v1/transfers/{code}/redeem # One-time download
//DELETE /api/v1/transfers/{code}        # Sender cancels early

package api

import (
	healthAPI "secureprint/internal/app/server/api/http/health"
	"secureprint/internal/app/server/api/http/middleware"
	"secureprint/internal/app/server/api/http/middleware/logger"
	transferAPI "secureprint/internal/app/server/api/http/transfer"
	"secureprint/internal/domain/vault"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health   *healthAPI.Handler
	Transfer *transferAPI.Handler
}

// New creates a *chi.Mux with all operations registered through huma.Register
func New(service vault.Servicer, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("SecurePrint API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(service, log)
	h.Health.SetupRoutes(API)
	h.Transfer.SetupRoutes(API)

	return mux
}

func handlers(service vault.Servicer, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	transferHandler := transferAPI.NewHandler(service, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:   healthHandler,
		Transfer: transferHandler,
	}
}
