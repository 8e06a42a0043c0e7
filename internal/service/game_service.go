package service

import (
	"fmt"

	"github.com/benbeisheim/hotseat-chess/internal/model"
	"github.com/benbeisheim/hotseat-chess/internal/ws"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

// HandleSelect feeds one clicked square into the table's selection state.
func (gs *GameService) HandleSelect(gameID string, field string) (*model.MoveResult, error) {
	f, err := model.ParseField(field)
	if err != nil {
		return nil, err
	}

	return gs.gameManager.SelectField(gameID, f)
}

func (gs *GameService) HandleMove(gameID string, from, to string) (model.MoveResult, error) {
	fromField, err := model.ParseField(from)
	if err != nil {
		return model.MoveResult{Outcome: model.OutcomeImpossible}, fmt.Errorf("from: %w", err)
	}
	toField, err := model.ParseField(to)
	if err != nil {
		return model.MoveResult{Outcome: model.OutcomeImpossible}, fmt.Errorf("to: %w", err)
	}

	return gs.gameManager.MakeMove(gameID, fromField, toField)
}

func (gs *GameService) LegalMoves(gameID string, from string) ([]model.Field, error) {
	fromField, err := model.ParseField(from)
	if err != nil {
		return nil, err
	}

	return gs.gameManager.Moves(gameID, fromField)
}

func (gs *GameService) ResetGame(gameID string) error {
	return gs.gameManager.ResetGame(gameID)
}

func (gs *GameService) RegisterConnection(gameID string, clientID string, client *ws.Client) error {
	return gs.gameManager.RegisterConnection(gameID, clientID, client)
}

func (gs *GameService) UnregisterConnection(gameID string, clientID string, client *ws.Client) {
	gs.gameManager.UnregisterConnection(gameID, clientID, client)
}
