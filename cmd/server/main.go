package main

import (
	"flag"
	"os"

	"github.com/benbeisheim/hotseat-chess/internal/config"
	"github.com/benbeisheim/hotseat-chess/internal/controller"
	"github.com/benbeisheim/hotseat-chess/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())
	log.SetOutput(os.Stderr)

	gameManager := service.NewGameManager(cfg.IdleTableTTL)
	defer gameManager.Close()

	app := newApp(cfg, gameManager)

	log.Infof("serving tables on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config, gameManager *service.GameManager) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "hotseat-chess",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: os.Stderr,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins(),
		AllowHeaders:  "Origin, Content-Type, Accept, X-Client-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Client-ID",
	}))

	controller.RegisterRoutes(app, cfg, service.NewGameService(gameManager))

	return app
}
