package controller

import (
	"github.com/benbeisheim/hotseat-chess/internal/config"
	"github.com/benbeisheim/hotseat-chess/internal/middleware"
	"github.com/benbeisheim/hotseat-chess/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the table REST API and the websocket endpoint.
func RegisterRoutes(app *fiber.App, cfg *config.Config, gameService *service.GameService) {
	gameController := NewGameController(gameService)
	wsController := NewWebSocketController(gameService)

	app.Get("/ws/table/:tableId",
		middleware.EnsureClientID(),
		middleware.WebSocketUpgrade(),
		websocket.New(wsController.HandleConnection, websocket.Config{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			Origins:         cfg.AllowOrigins,
		}),
	)

	api := app.Group("/api", middleware.EnsureClientID())

	tables := api.Group("/table")
	tables.Post("/create", gameController.CreateGame)
	tables.Get("/:tableId", gameController.GetGameState)
	tables.Get("/:tableId/moves", gameController.LegalMoves)
	tables.Post("/:tableId/select", gameController.SelectField)
	tables.Post("/:tableId/move", gameController.MakeMove)
	tables.Post("/:tableId/reset", gameController.ResetGame)
}
