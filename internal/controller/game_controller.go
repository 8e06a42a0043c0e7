package controller

import (
	"errors"

	"github.com/benbeisheim/hotseat-chess/internal/model"
	"github.com/benbeisheim/hotseat-chess/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type selectRequest struct {
	Field string `json:"field"`
}

type moveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, model.ErrNoPiece):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidField):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrNotYourTurn), errors.Is(err, model.ErrIllegalMove):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Table created",
		"table_id": gameID,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("tableId"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(gameState)
}

func (gc *GameController) SelectField(c *fiber.Ctx) error {
	gameID := c.Params("tableId")

	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if _, err := gc.gameService.HandleSelect(gameID, req.Field); err != nil {
		return errorResponse(c, err)
	}

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("tableId")

	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := gc.gameService.HandleMove(gameID, req.From, req.To)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error":  err.Error(),
			"result": result,
		})
	}

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"result": result,
		"state":  gameState,
	})
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	from := c.Query("from")

	targets, err := gc.gameService.LegalMoves(c.Params("tableId"), from)
	if err != nil {
		return errorResponse(c, err)
	}
	if targets == nil {
		targets = []model.Field{}
	}

	return c.JSON(fiber.Map{
		"from":    from,
		"targets": targets,
	})
}

func (gc *GameController) ResetGame(c *fiber.Ctx) error {
	gameID := c.Params("tableId")

	if err := gc.gameService.ResetGame(gameID); err != nil {
		return errorResponse(c, err)
	}

	gameState, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}
