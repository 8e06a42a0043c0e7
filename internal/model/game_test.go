package model

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/benbeisheim/hotseat-chess/internal/ws"
	"github.com/google/go-cmp/cmp"
)

func TestSelectFieldFlow(t *testing.T) {
	g := NewGame("t1")

	// picking up an opponent piece does nothing
	if res, err := g.SelectField(mustField(t, "e7")); err != nil || res != nil {
		t.Fatalf("SelectField(e7) = %v, %v; want nil, nil", res, err)
	}
	if s := g.GetState(); s.Selected != nil {
		t.Fatalf("selected %v after clicking an opponent piece", s.Selected)
	}

	if _, err := g.SelectField(mustField(t, "e2")); err != nil {
		t.Fatalf("SelectField(e2) error: %v", err)
	}
	s := g.GetState()
	if s.Selected == nil || *s.Selected != mustField(t, "e2") {
		t.Fatalf("Selected = %v; want e2", s.Selected)
	}
	if diff := cmp.Diff([]string{"e4", "e3"}, fieldNames(s.LegalMoves)); diff != "" {
		t.Errorf("legal targets for e2 (-want +got):\n%s", diff)
	}

	res, err := g.SelectField(mustField(t, "e4"))
	if err != nil {
		t.Fatalf("SelectField(e4) error: %v", err)
	}
	want := &MoveResult{Outcome: OutcomeMoved, Notation: "e2-e4"}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("move result (-want +got):\n%s", diff)
	}
	s = g.GetState()
	if s.ToMove != Black || s.Selected != nil {
		t.Fatalf("after e2-e4: toMove %s selected %v; want black, nil", s.ToMove, s.Selected)
	}
	if s.LastMove == nil || s.LastMove.From != mustField(t, "e2") || s.LastMove.To != mustField(t, "e4") {
		t.Errorf("LastMove = %+v; want e2-e4", s.LastMove)
	}

	// white pieces are locked while black is to move
	g.SelectField(mustField(t, "d2"))
	if s := g.GetState(); s.Selected != nil {
		t.Fatalf("selected %v on the wrong turn", s.Selected)
	}

	g.SelectField(mustField(t, "e7"))
	res, _ = g.SelectField(mustField(t, "d7"))
	if res == nil || res.Outcome != OutcomeOwnPieceBlocked {
		t.Fatalf("clicking own d7 = %+v; want own-piece blocked", res)
	}
	if s := g.GetState(); s.Selected == nil || *s.Selected != mustField(t, "d7") {
		t.Fatalf("selection after own-piece click = %v; want d7", s.Selected)
	}

	res, _ = g.SelectField(mustField(t, "d4"))
	if res == nil || res.Outcome != OutcomeImpossible {
		t.Fatalf("d7-d4 = %+v; want impossible", res)
	}
	s = g.GetState()
	if s.Selected == nil || *s.Selected != mustField(t, "d7") || s.ToMove != Black {
		t.Errorf("after impossible move: selected %v toMove %s; want d7, black", s.Selected, s.ToMove)
	}
	if s.Status == nil || s.Status.Outcome != OutcomeImpossible {
		t.Errorf("Status = %+v; want impossible", s.Status)
	}
}

func TestSelectFieldRejectsInvalidField(t *testing.T) {
	g := NewGame("t1")
	if _, err := g.SelectField(Field{Row: 9, Col: 0}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("SelectField(off board) error = %v; want ErrInvalidField", err)
	}
}

func TestMakeMoveErrors(t *testing.T) {
	tests := []struct {
		name     string
		from, to Field
		want     error
	}{
		{"wrong turn", Field{Row: 1, Col: 4}, Field{Row: 3, Col: 4}, ErrNotYourTurn},
		{"empty square", Field{Row: 4, Col: 4}, Field{Row: 3, Col: 4}, ErrNoPiece},
		{"illegal pattern", Field{Row: 6, Col: 4}, Field{Row: 3, Col: 4}, ErrIllegalMove},
		{"own piece", Field{Row: 7, Col: 0}, Field{Row: 6, Col: 0}, ErrIllegalMove},
		{"off board", Field{Row: 6, Col: 4}, Field{Row: 6, Col: 8}, ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGame("t1")
			res, err := g.MakeMove(tt.from, tt.to)
			if !errors.Is(err, tt.want) {
				t.Errorf("MakeMove error = %v; want %v", err, tt.want)
			}
			if res.Succeeded() {
				t.Errorf("MakeMove result = %+v; want failure", res)
			}
			if s := g.GetState(); s.ToMove != White || s.Placement != startPlacement {
				t.Errorf("failed move changed the game: %s %s", s.ToMove, s.Placement)
			}
		})
	}
}

func TestFoolsMate(t *testing.T) {
	g := NewGame("t1")
	moves := []struct{ from, to, notation string }{
		{"f2", "f3", "f2-f3"},
		{"e7", "e5", "e7-e5"},
		{"g2", "g4", "g2-g4"},
		{"d8", "h4", "Qd8-h4+"},
	}

	for _, m := range moves {
		res, err := g.MakeMove(mustField(t, m.from), mustField(t, m.to))
		if err != nil {
			t.Fatalf("MakeMove(%s, %s) error: %v", m.from, m.to, err)
		}
		if res.Notation != m.notation {
			t.Fatalf("MakeMove(%s, %s) notation = %q; want %q", m.from, m.to, res.Notation, m.notation)
		}
	}

	s := g.GetState()
	if !s.IsCheck {
		t.Error("IsCheck = false after mate")
	}
	if s.Resolve == nil || *s.Resolve != string(CheckMate) {
		t.Errorf("Resolve = %v; want checkmate", s.Resolve)
	}
	if s.Status == nil || s.Status.Check != CheckMate {
		t.Errorf("Status = %+v; want checkmate", s.Status)
	}
}

func TestPromotionResolvesStatus(t *testing.T) {
	g := NewGame("t1")
	b := mustBoard(t, "k7/1PK5/8/8/8/8/8/8")
	g.board = b

	res, err := g.MakeMove(mustField(t, "b7"), mustField(t, "b8"))
	if err != nil {
		t.Fatalf("MakeMove(b7, b8) error: %v", err)
	}
	if res.Notation != "b7=Q" || res.Check != CheckNone {
		t.Fatalf("promotion result = %+v; want bare b7=Q", res)
	}
	s := g.GetState()
	if s.Resolve == nil || *s.Resolve != string(CheckMate) {
		t.Errorf("Resolve = %v; want checkmate after promoting with mate", s.Resolve)
	}
}

func TestGameReset(t *testing.T) {
	g := NewGame("t1")
	g.SelectField(mustField(t, "g1"))
	g.SelectField(mustField(t, "f3"))
	g.SelectField(mustField(t, "b8"))

	g.Reset()

	s := g.GetState()
	want := NewGame("t2").GetState()
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("state after reset differs from a new game (-want +got):\n%s", diff)
	}
}

func TestGameMoves(t *testing.T) {
	g := NewGame("t1")
	got, err := g.Moves(mustField(t, "g1"))
	if err != nil {
		t.Fatalf("Moves(g1) error: %v", err)
	}
	if diff := cmp.Diff([]string{"f3", "h3"}, fieldNames(got)); diff != "" {
		t.Errorf("Moves(g1) (-want +got):\n%s", diff)
	}
	if _, err := g.Moves(mustField(t, "e4")); !errors.Is(err, ErrNoPiece) {
		t.Errorf("Moves(e4) error = %v; want ErrNoPiece", err)
	}
}

func TestGameStateJSON(t *testing.T) {
	g := NewGame("t1")
	g.SelectField(mustField(t, "b1"))

	raw, err := json.Marshal(g.GetState())
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	var decoded struct {
		Board      [8][8]*Cell `json:"board"`
		Placement  string      `json:"placement"`
		ToMove     string      `json:"toMove"`
		Selected   string      `json:"selectedSquare"`
		LegalMoves []string    `json:"legalMoves"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}

	if decoded.Selected != "b1" || decoded.ToMove != "white" || decoded.Placement != startPlacement {
		t.Errorf("decoded = %+v", decoded)
	}
	if diff := cmp.Diff([]string{"a3", "c3"}, decoded.LegalMoves); diff != "" {
		t.Errorf("legalMoves (-want +got):\n%s", diff)
	}
	king := decoded.Board[7][4]
	if king == nil || king.Glyph != "♔" || king.Type != King {
		t.Errorf("board[7][4] = %+v; want white king", king)
	}
	if decoded.Board[4][4] != nil {
		t.Errorf("board[4][4] = %+v; want empty", decoded.Board[4][4])
	}
}

type stateConn struct {
	mu     sync.Mutex
	states []GameState
}

func (c *stateConn) WriteJSON(v interface{}) error {
	msg := v.(ws.Message)
	var state GameState
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, state)
	return nil
}

func (c *stateConn) Close() error { return nil }

func TestWatchersSeeStatesInOrder(t *testing.T) {
	g := NewGame("t1")
	conn := &stateConn{}
	client := ws.NewClient(conn)
	client.Start()

	if err := g.RegisterConnection("c1", client); err != nil {
		t.Fatalf("RegisterConnection error: %v", err)
	}
	if err := g.RegisterConnection("c1", ws.NewClient(&stateConn{})); !errors.Is(err, ErrDuplicateConnection) {
		t.Errorf("second RegisterConnection error = %v; want ErrDuplicateConnection", err)
	}
	if n := g.ConnectionCount(); n != 1 {
		t.Errorf("ConnectionCount = %d; want 1", n)
	}

	moves := [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}, {"b8", "c6"}}
	for _, m := range moves {
		if _, err := g.MakeMove(mustField(t, m[0]), mustField(t, m[1])); err != nil {
			t.Fatalf("MakeMove(%s, %s) error: %v", m[0], m[1], err)
		}
	}

	g.UnregisterConnection("c1", client)
	client.Stop()

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.states) != len(moves)+1 {
		t.Fatalf("watcher got %d states; want %d", len(conn.states), len(moves)+1)
	}
	if conn.states[0].LastMove != nil {
		t.Errorf("first state has a last move: %+v", conn.states[0].LastMove)
	}
	for i, m := range moves {
		got := conn.states[i+1].LastMove
		if got == nil || got.From.String() != m[0] || got.To.String() != m[1] {
			t.Errorf("state %d last move = %+v; want %s-%s", i+1, got, m[0], m[1])
		}
	}
	if g.ConnectionCount() != 0 {
		t.Error("watcher still registered after UnregisterConnection")
	}
}

func TestCloseConnectionsStopsClients(t *testing.T) {
	g := NewGame("t1")
	client := ws.NewClient(&stateConn{})
	client.Start()
	defer client.Stop()

	if err := g.RegisterConnection("c1", client); err != nil {
		t.Fatalf("RegisterConnection error: %v", err)
	}
	g.CloseConnections()

	select {
	case <-client.Done():
	default:
		t.Error("client still open after CloseConnections")
	}
	if g.ConnectionCount() != 0 {
		t.Error("CloseConnections left watchers behind")
	}
}

func TestSelectionDoesNotOutliveAMoveElsewhere(t *testing.T) {
	g := NewGame("t1")
	g.SelectField(mustField(t, "e2"))

	// the same table moved from another surface
	if _, err := g.MakeMove(mustField(t, "g1"), mustField(t, "f3")); err != nil {
		t.Fatalf("MakeMove(g1, f3) error: %v", err)
	}

	// black is to move, so white pieces cannot be picked up
	if res, _ := g.SelectField(mustField(t, "d2")); res != nil {
		t.Fatalf("SelectField(d2) = %+v; want nil", res)
	}
	if res, _ := g.SelectField(mustField(t, "d4")); res != nil {
		t.Fatalf("SelectField(d4) = %+v; want no move", res)
	}
	s := g.GetState()
	if s.Selected != nil || s.ToMove != Black {
		t.Errorf("selected %v toMove %s; want nil, black", s.Selected, s.ToMove)
	}
	if g.board.PieceAt(mustField(t, "d2")) == nil {
		t.Error("white pawn left d2 on black's turn")
	}
}
