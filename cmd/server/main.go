package main

import (
	"context"
	"log"

	"secureprint/internal/app/server"
	"secureprint/internal/app/server/config"
	"secureprint/internal/utils/logger"
)

func main() {
	cfg := config.MustLoad()
	logg := logger.New(cfg.Env)

	app, err := server.NewApp(cfg, logg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("server: %v", err)
	}
}
