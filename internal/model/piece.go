package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

func (p PieceType) symbol() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// Piece is owned by exactly one board cell. Its flags are mutated in place
// when the board moves or promotes it.
type Piece struct {
	Type       PieceType `json:"type"`
	Color      Color     `json:"color"`
	HasMoved   bool      `json:"hasMoved"`
	IsPromoted bool      `json:"isPromoted"`
}

func NewPiece(color Color, pieceType PieceType) *Piece {
	return &Piece{Type: pieceType, Color: color}
}

var glyphs = map[Color]map[PieceType]string{
	White: {
		King:   "♔",
		Queen:  "♕",
		Rook:   "♖",
		Bishop: "♗",
		Knight: "♘",
		Pawn:   "♙",
	},
	Black: {
		King:   "♚",
		Queen:  "♛",
		Rook:   "♜",
		Bishop: "♝",
		Knight: "♞",
		Pawn:   "♟",
	},
}

// Glyph returns the display character for the piece.
func (p *Piece) Glyph() string {
	return glyphs[p.Color][p.Type]
}

// Symbol returns the notation letter, empty for pawns.
func (p *Piece) Symbol() string {
	return p.Type.symbol()
}

func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
