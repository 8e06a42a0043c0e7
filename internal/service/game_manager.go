// service/game_manager.go
package service

import (
	"sync"
	"time"

	"github.com/benbeisheim/hotseat-chess/internal/model"
	"github.com/benbeisheim/hotseat-chess/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

// GameManager owns every open table in the process.
type GameManager struct {
	games   map[string]*model.Game
	idleTTL time.Duration
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

// NewGameManager starts the idle sweeper when idleTTL is positive.
func NewGameManager(idleTTL time.Duration) *GameManager {
	gm := &GameManager{
		games:   make(map[string]*model.Game),
		idleTTL: idleTTL,
		done:    make(chan struct{}),
	}

	if idleTTL > 0 {
		go gm.processIdleGames()
	}

	return gm
}

func (gm *GameManager) processIdleGames() {
	interval := gm.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case now := <-ticker.C:
			if n := gm.SweepIdle(now); n > 0 {
				log.Infof("evicted %d idle tables", n)
			}
		}
	}
}

// SweepIdle removes tables untouched since now-idleTTL that nobody watches.
func (gm *GameManager) SweepIdle(now time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	evicted := 0
	for id, game := range gm.games {
		if game.ConnectionCount() > 0 {
			continue
		}
		if now.Sub(game.LastActive()) < gm.idleTTL {
			continue
		}
		game.CloseConnections()
		delete(gm.games, id)
		evicted++
	}
	return evicted
}

// Close stops the sweeper.
func (gm *GameManager) Close() {
	gm.once.Do(func() { close(gm.done) })
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) Count() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return len(gm.games)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.GetState(), nil
}

func (gm *GameManager) SelectField(gameID string, field model.Field) (*model.MoveResult, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	return game.SelectField(field)
}

func (gm *GameManager) MakeMove(gameID string, from, to model.Field) (model.MoveResult, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.MoveResult{Outcome: model.OutcomeImpossible}, err
	}

	return game.MakeMove(from, to)
}

func (gm *GameManager) Moves(gameID string, from model.Field) ([]model.Field, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	return game.Moves(from)
}

func (gm *GameManager) ResetGame(gameID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	game.Reset()
	return nil
}

func (gm *GameManager) RegisterConnection(gameID string, clientID string, client *ws.Client) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.RegisterConnection(clientID, client)
}

func (gm *GameManager) UnregisterConnection(gameID string, clientID string, client *ws.Client) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}

	game.UnregisterConnection(clientID, client)
}
