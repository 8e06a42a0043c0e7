package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/hotseat-chess/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

// The clients watching a specific table, guarded by Game.mu.
type GameConnections struct {
	clients map[string]*ws.Client // clientID -> client
}

// Game is one hot-seat table: a board, whose turn it is, and the field the
// current player has picked up.
type Game struct {
	ID          string
	mu          sync.Mutex
	board       *Board
	toMove      Color
	selected    *Field
	status      *MoveResult
	check       CheckStatus
	lastMove    *SimpleMove
	lastActive  time.Time
	connections *GameConnections
}

type GameState struct {
	Board      [boardSize][boardSize]*Cell `json:"board"`
	Placement  string                      `json:"placement"`
	ToMove     Color                       `json:"toMove"`
	Selected   *Field                      `json:"selectedSquare"`
	LegalMoves []Field                     `json:"legalMoves"`
	Status     *MoveResult                 `json:"status"`
	IsCheck    bool                        `json:"isCheck"`
	Resolve    *string                     `json:"resolve"`
	LastMove   *SimpleMove                 `json:"lastMove"`
}

// Cell is the rendering view of one occupied square.
type Cell struct {
	Type       PieceType `json:"type"`
	Color      Color     `json:"color"`
	Glyph      string    `json:"glyph"`
	HasMoved   bool      `json:"hasMoved"`
	IsPromoted bool      `json:"isPromoted"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:          id,
		board:       NewBoard(),
		toMove:      White,
		lastActive:  time.Now(),
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		clients: make(map[string]*ws.Client),
	}
}

// SelectField advances the pick-up/put-down state machine. It returns the
// move result when a move was attempted, nil otherwise.
func (g *Game) SelectField(field Field) (*MoveResult, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: row %d col %d", ErrInvalidField, field.Row, field.Col)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastActive = time.Now()

	// A selection whose piece is gone starts over as a fresh pick-up, so
	// the turn check below still applies. Keeping the clicked field
	// selected would let the next click move an opponent piece.
	if g.selected != nil && g.board.PieceAt(*g.selected) == nil {
		g.selected = nil
	}

	if g.selected == nil {
		piece := g.board.PieceAt(field)
		if piece != nil && piece.Color == g.toMove {
			g.selected = &field
		}
		g.publish()
		return nil, nil
	}

	from := *g.selected
	result := g.board.Move(from, field)
	g.status = &result
	switch {
	case result.Succeeded():
		g.finishMove(from, field, result)
	case result.Outcome == OutcomeOwnPieceBlocked:
		g.selected = &field
	}
	g.publish()
	return &result, nil
}

// MakeMove applies a move for the side to move without going through
// selection.
func (g *Game) MakeMove(from, to Field) (MoveResult, error) {
	if !from.Valid() || !to.Valid() {
		return MoveResult{Outcome: OutcomeImpossible}, fmt.Errorf("%w: move out of bounds", ErrInvalidField)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastActive = time.Now()

	piece := g.board.PieceAt(from)
	if piece == nil {
		return MoveResult{Outcome: OutcomeImpossible}, ErrNoPiece
	}
	if piece.Color != g.toMove {
		return MoveResult{Outcome: OutcomeImpossible}, ErrNotYourTurn
	}

	result := g.board.Move(from, to)
	g.status = &result
	if !result.Succeeded() {
		g.publish()
		return result, fmt.Errorf("%w: %s to %s (%s)", ErrIllegalMove, from, to, result.Outcome)
	}
	g.finishMove(from, to, result)
	g.publish()
	return result, nil
}

func (g *Game) finishMove(from, to Field, result MoveResult) {
	g.selected = nil
	g.lastMove = &SimpleMove{From: from, To: to}
	g.toMove = g.toMove.Opposite()
	g.check = result.Check
	if result.Outcome == OutcomePromoted {
		// promotion notation carries no status suffix
		g.check = g.board.statusOf(g.toMove)
	}
	if g.check == CheckMate || g.check == CheckStalemate {
		log.Infof("table %s resolved: %s", g.ID, g.check)
	}
}

// Moves lists the legal destinations of the piece on from.
func (g *Game) Moves(from Field) ([]Field, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: row %d col %d", ErrInvalidField, from.Row, from.Col)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	piece := g.board.PieceAt(from)
	if piece == nil {
		return nil, ErrNoPiece
	}
	return g.board.PossibleMoves(piece, from), nil
}

// Reset puts the starting position back and forgets all progress.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.board.InitialState()
	g.toMove = White
	g.selected = nil
	g.status = nil
	g.check = CheckNone
	g.lastMove = nil
	g.lastActive = time.Now()
	g.publish()
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot()
}

func (g *Game) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lastActive
}

// snapshot must be called with g.mu held.
func (g *Game) snapshot() GameState {
	state := GameState{
		Placement:  g.board.Placement(),
		ToMove:     g.toMove,
		LegalMoves: []Field{},
		IsCheck:    g.check == CheckGiven || g.check == CheckMate,
	}
	for row := range g.board.Rows {
		for col, piece := range g.board.Rows[row] {
			if piece == nil {
				continue
			}
			state.Board[row][col] = &Cell{
				Type:       piece.Type,
				Color:      piece.Color,
				Glyph:      piece.Glyph(),
				HasMoved:   piece.HasMoved,
				IsPromoted: piece.IsPromoted,
			}
		}
	}
	if g.selected != nil {
		selected := *g.selected
		state.Selected = &selected
		if piece := g.board.PieceAt(selected); piece != nil {
			state.LegalMoves = append(state.LegalMoves, g.board.PossibleMoves(piece, selected)...)
		}
	}
	if g.status != nil {
		status := *g.status
		state.Status = &status
	}
	if g.check == CheckMate || g.check == CheckStalemate {
		resolve := string(g.check)
		state.Resolve = &resolve
	}
	if g.lastMove != nil {
		lastMove := *g.lastMove
		state.LastMove = &lastMove
	}
	return state
}

// publish queues the current state for every watcher. It must be called
// with g.mu held, so watchers see states in mutation order.
func (g *Game) publish() {
	if len(g.connections.clients) == 0 {
		return
	}
	msg, err := stateMessage(g.snapshot())
	if err != nil {
		log.Errorf("failed to marshal state for table %s: %v", g.ID, err)
		return
	}

	for clientID, client := range g.connections.clients {
		if !client.Send(msg) {
			log.Warnf("dropping client %s from table %s", clientID, g.ID)
			delete(g.connections.clients, clientID)
		}
	}
}

func stateMessage(state GameState) (ws.Message, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return ws.Message{}, err
	}
	return ws.Message{Type: ws.MessageTypeGameState, Payload: payload}, nil
}

// RegisterConnection adds a watcher and queues the current state for it. A
// client id can only watch a table once.
func (g *Game) RegisterConnection(clientID string, client *ws.Client) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.connections.clients[clientID]; exists {
		return fmt.Errorf("%w: client %s on table %s", ErrDuplicateConnection, clientID, g.ID)
	}
	g.connections.clients[clientID] = client
	log.Debugf("registered client %s on table %s", clientID, g.ID)

	msg, err := stateMessage(g.snapshot())
	if err != nil {
		return err
	}
	client.Send(msg)
	return nil
}

func (g *Game) UnregisterConnection(clientID string, client *ws.Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// only drop it if it is still the current client
	if current, exists := g.connections.clients[clientID]; exists && current == client {
		log.Debugf("unregistering client %s from table %s", clientID, g.ID)
		delete(g.connections.clients, clientID)
	}
}

func (g *Game) ConnectionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.connections.clients)
}

// CloseConnections disconnects every watcher, used when a table is evicted.
func (g *Game) CloseConnections() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for clientID, client := range g.connections.clients {
		client.Close()
		delete(g.connections.clients, clientID)
	}
}
