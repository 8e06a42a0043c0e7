package model

import "errors"

var (
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoPiece          = errors.New("no piece at from square")
	ErrIllegalMove      = errors.New("illegal move")

	ErrDuplicateConnection = errors.New("client already watches this table")
)
