package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

const boardSize = 8

// Field is a board coordinate. Row 0 is black's back rank, row 7 white's.
type Field struct {
	Row int
	Col int
}

func (f Field) Valid() bool {
	return f.Row >= 0 && f.Row < boardSize && f.Col >= 0 && f.Col < boardSize
}

// String returns the algebraic square name, e.g. "e2".
func (f Field) String() string {
	return fmt.Sprintf("%c%d", f.Col+97, boardSize-f.Row)
}

func (f Field) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: row %d col %d", ErrInvalidField, f.Row, f.Col)
	}
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseField converts an algebraic square name into a Field.
func ParseField(s string) (Field, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Field{}, fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
	return Field{Row: boardSize - int(s[1]-'0'), Col: int(s[0] - 'a')}, nil
}

var allFields = func() []Field {
	fields := make([]Field, 0, boardSize*boardSize)
	for row := 0; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			fields = append(fields, Field{Row: row, Col: col})
		}
	}
	return fields
}()

type Board struct {
	Rows [boardSize][boardSize]*Piece `json:"rows"`
}

// NewBoard returns a board in the standard starting position.
func NewBoard() *Board {
	b := &Board{}
	b.InitialState()
	return b
}

// InitialState discards every piece and sets up the starting position.
func (b *Board) InitialState() {
	b.Rows = [boardSize][boardSize]*Piece{}
	b.Rows[0] = backRank(Black)
	b.Rows[boardSize-1] = backRank(White)
	for col := 0; col < boardSize; col++ {
		b.Rows[1][col] = NewPiece(Black, Pawn)
		b.Rows[boardSize-2][col] = NewPiece(White, Pawn)
	}
}

func backRank(color Color) [boardSize]*Piece {
	order := [boardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	var row [boardSize]*Piece
	for col, pieceType := range order {
		row[col] = NewPiece(color, pieceType)
	}
	return row
}

// Clone deep-copies the grid and every piece's flags.
func (b *Board) Clone() *Board {
	c := &Board{}
	for row := range b.Rows {
		for col, piece := range b.Rows[row] {
			c.Rows[row][col] = piece.Clone()
		}
	}
	return c
}

// PieceAt does no bounds checking.
func (b *Board) PieceAt(field Field) *Piece {
	return b.Rows[field.Row][field.Col]
}

// AllFields lists the 64 fields in row-major order.
func (b *Board) AllFields() []Field {
	return slices.Clone(allFields)
}

func (b *Board) FindKing(color Color) (Field, bool) {
	for _, field := range allFields {
		piece := b.PieceAt(field)
		if piece != nil && piece.Type == King && piece.Color == color {
			return field, true
		}
	}
	return Field{}, false
}

// IsUnderAttack reports whether any piece not of color could move onto
// field, ignoring whether that move would expose its own king.
func (b *Board) IsUnderAttack(field Field, color Color) bool {
	target := b.PieceAt(field)
	for _, from := range allFields {
		piece := b.PieceAt(from)
		if piece == nil || piece.Color == color {
			continue
		}
		if target != nil && target.Color == piece.Color {
			continue
		}
		if b.attacks(piece, from, field) {
			return true
		}
	}
	return false
}

// attacks is CanMove except that a king covers its neighbours without asking
// whether they are attacked in turn; two kings would otherwise ask each other
// forever.
func (b *Board) attacks(piece *Piece, from, to Field) bool {
	if piece.Type == King {
		return from != to && abs(from.Row-to.Row) <= 1 && abs(from.Col-to.Col) <= 1
	}
	return b.CanMove(piece, from, to)
}

// CanMove checks the piece's movement pattern only. It does not look at the
// destination's occupant colour or at the mover's own king.
func (b *Board) CanMove(piece *Piece, from, to Field) bool {
	if from == to {
		return false
	}
	v := from.Row - to.Row
	h := from.Col - to.Col
	dv, dh := abs(v), abs(h)

	switch piece.Type {
	case King:
		return dv <= 1 && dh <= 1 && !b.IsUnderAttack(to, piece.Color)
	case Queen:
		return b.canRookMove(from, to, dv, dh) ||
			b.canBishopMove(from, to, dv, dh) ||
			(piece.IsPromoted && canKnightMove(dv, dh))
	case Rook:
		return b.canRookMove(from, to, dv, dh)
	case Bishop:
		return b.canBishopMove(from, to, dv, dh)
	case Knight:
		return canKnightMove(dv, dh)
	case Pawn:
		// white walks toward row 0
		dir := 1
		if piece.Color == Black {
			dir = -1
		}
		adv := v * dir
		if dh == 1 && adv == 1 {
			return b.PieceAt(to) != nil
		}
		if dh > 0 {
			return false
		}
		switch adv {
		case 1:
		case 2:
			if piece.HasMoved || b.PieceAt(Field{Row: from.Row - dir, Col: from.Col}) != nil {
				return false
			}
		default:
			return false
		}
		return b.PieceAt(to) == nil
	}
	return false
}

func (b *Board) canRookMove(from, to Field, dv, dh int) bool {
	if dv != 0 && dh != 0 {
		return false
	}
	return b.pathClear(from, to)
}

func (b *Board) canBishopMove(from, to Field, dv, dh int) bool {
	if dv != dh {
		return false
	}
	return b.pathClear(from, to)
}

func canKnightMove(dv, dh int) bool {
	return (dh == 2 && dv == 1) || (dh == 1 && dv == 2)
}

// pathClear walks the straight or diagonal line strictly between from and to.
func (b *Board) pathClear(from, to Field) bool {
	stepRow, stepCol := sign(to.Row-from.Row), sign(to.Col-from.Col)
	for f := (Field{Row: from.Row + stepRow, Col: from.Col + stepCol}); f != to; f = (Field{Row: f.Row + stepRow, Col: f.Col + stepCol}) {
		if b.PieceAt(f) != nil {
			return false
		}
	}
	return true
}

// IsValidMove is the full legality check: pattern, destination colour, and
// a simulated move on a clone that must not leave the mover's king attacked.
func (b *Board) IsValidMove(piece *Piece, from, to Field) bool {
	if !to.Valid() {
		return false
	}
	if dest := b.PieceAt(to); dest != nil && dest.Color == piece.Color {
		return false
	}
	if !b.CanMove(piece, from, to) {
		return false
	}

	sim := b.Clone()
	sim.move(from, to, true)
	king, ok := sim.FindKing(piece.Color)
	if !ok {
		log.Debugf("no %s king after simulating %s-%s, accepting move", piece.Color, from, to)
		return true
	}
	return !sim.IsUnderAttack(king, piece.Color)
}

func (b *Board) PossibleMoves(piece *Piece, from Field) []Field {
	var moves []Field
	for _, to := range allFields {
		if b.IsValidMove(piece, from, to) {
			moves = append(moves, to)
		}
	}
	return moves
}

func (b *Board) HasPossibleMove(piece *Piece, from Field) bool {
	for _, to := range allFields {
		if b.IsValidMove(piece, from, to) {
			return true
		}
	}
	return false
}

// HasAnyPossibleMoves returns true when color has NO legal move at all.
// The inverted sense is relied upon by every caller.
func (b *Board) HasAnyPossibleMoves(color Color) bool {
	for _, field := range allFields {
		piece := b.PieceAt(field)
		if piece == nil || piece.Color != color {
			continue
		}
		if b.HasPossibleMove(piece, field) {
			return false
		}
	}
	return true
}

// FieldDescription returns the algebraic coordinate, e.g. {0,0} -> "a8".
func (b *Board) FieldDescription(field Field) string {
	return field.String()
}

// Move validates and applies a move, reporting what happened.
func (b *Board) Move(from, to Field) MoveResult {
	return b.move(from, to, false)
}

// move applies from->to. A simulated move skips validation and the
// opponent status suffix.
func (b *Board) move(from, to Field, simulated bool) MoveResult {
	if !from.Valid() || !to.Valid() {
		return MoveResult{Outcome: OutcomeImpossible}
	}
	piece := b.PieceAt(from)
	if piece == nil {
		return MoveResult{Outcome: OutcomeImpossible}
	}
	dest := b.PieceAt(to)
	if dest != nil && dest.Color == piece.Color {
		return MoveResult{Outcome: OutcomeOwnPieceBlocked}
	}
	if !simulated && !b.IsValidMove(piece, from, to) {
		return MoveResult{Outcome: OutcomeImpossible}
	}

	piece.HasMoved = true
	b.Rows[to.Row][to.Col] = piece
	b.Rows[from.Row][from.Col] = nil

	if piece.Type == Pawn && (to.Row == 0 || to.Row == boardSize-1) {
		oldSymbol := piece.Symbol()
		piece.Type = Queen
		piece.IsPromoted = true
		return MoveResult{
			Outcome:  OutcomePromoted,
			Notation: oldSymbol + b.FieldDescription(from) + "=" + piece.Symbol(),
		}
	}

	result := MoveResult{Outcome: OutcomeMoved}
	if dest != nil {
		result.Outcome = OutcomeCaptured
	}
	if !simulated {
		result.Check = b.statusOf(piece.Color.Opposite())
	}

	// a capture is only marked with ':' when no status suffix follows
	sep := "-"
	suffix := result.Check.suffix()
	if dest != nil && suffix == "" {
		sep = ":"
	}
	result.Notation = piece.Symbol() + b.FieldDescription(from) + sep + b.FieldDescription(to) + suffix
	return result
}

// statusOf reports whether color is in check, mated or stalemated.
func (b *Board) statusOf(color Color) CheckStatus {
	noMoves := b.HasAnyPossibleMoves(color)
	king, ok := b.FindKing(color)
	if !ok {
		log.Warnf("no %s king on the board, treating it as not in check", color)
	}
	inCheck := ok && b.IsUnderAttack(king, color)

	switch {
	case inCheck && noMoves:
		return CheckMate
	case inCheck:
		return CheckGiven
	case noMoves:
		return CheckStalemate
	}
	return CheckNone
}

// NewBoardFromPlacement builds a board from the piece-placement field of a
// FEN string. Pawns off their starting rank are marked as moved.
func NewBoardFromPlacement(placement string) (*Board, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != boardSize {
		return nil, fmt.Errorf("%w: want %d ranks, got %d", ErrInvalidPlacement, boardSize, len(ranks))
	}
	b := &Board{}
	for row, rank := range ranks {
		col := 0
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				col += int(r - '0')
				continue
			}
			piece, ok := pieceFromLetter(r)
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrInvalidPlacement, r)
			}
			if col >= boardSize {
				return nil, fmt.Errorf("%w: rank %d too long", ErrInvalidPlacement, boardSize-row)
			}
			if piece.Type == Pawn {
				startRow := boardSize - 2
				if piece.Color == Black {
					startRow = 1
				}
				piece.HasMoved = row != startRow
			}
			b.Rows[row][col] = piece
			col++
		}
		if col != boardSize {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidPlacement, boardSize-row, col)
		}
	}
	return b, nil
}

// Placement renders the grid as a FEN piece-placement field.
func (b *Board) Placement() string {
	var sb strings.Builder
	for row := 0; row < boardSize; row++ {
		empty := 0
		for col := 0; col < boardSize; col++ {
			piece := b.Rows[row][col]
			if piece == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(letterOf(piece))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < boardSize-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

var letters = map[PieceType]rune{
	King:   'k',
	Queen:  'q',
	Rook:   'r',
	Bishop: 'b',
	Knight: 'n',
	Pawn:   'p',
}

func pieceFromLetter(r rune) (*Piece, bool) {
	color := Black
	if r >= 'A' && r <= 'Z' {
		color = White
		r += 'a' - 'A'
	}
	for pieceType, letter := range letters {
		if letter == r {
			return NewPiece(color, pieceType), true
		}
	}
	return nil, false
}

func letterOf(piece *Piece) string {
	s := string(letters[piece.Type])
	if piece.Color == White {
		return strings.ToUpper(s)
	}
	return s
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
