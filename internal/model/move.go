package model

// MoveOutcome tags what Board.Move did.
type MoveOutcome string

const (
	OutcomeMoved           MoveOutcome = "move"
	OutcomeCaptured        MoveOutcome = "captured"
	OutcomePromoted        MoveOutcome = "promotion"
	OutcomeImpossible      MoveOutcome = "impossible"
	OutcomeOwnPieceBlocked MoveOutcome = "own"
)

// CheckStatus describes the opponent's situation after a move.
type CheckStatus string

const (
	CheckNone      CheckStatus = ""
	CheckGiven     CheckStatus = "check"
	CheckMate      CheckStatus = "checkmate"
	CheckStalemate CheckStatus = "stalemate"
)

// suffix is the notation mark appended for the status.
func (s CheckStatus) suffix() string {
	switch s {
	case CheckGiven:
		return "X"
	case CheckMate:
		return "+"
	case CheckStalemate:
		return "="
	}
	return ""
}

type MoveResult struct {
	Outcome  MoveOutcome `json:"outcome"`
	Notation string      `json:"notation"`
	Check    CheckStatus `json:"check"`
}

// Succeeded reports whether the board was mutated.
func (r MoveResult) Succeeded() bool {
	switch r.Outcome {
	case OutcomeMoved, OutcomeCaptured, OutcomePromoted:
		return true
	}
	return false
}

// SimpleMove is a from/to pair in algebraic coordinates.
type SimpleMove struct {
	From Field `json:"from"`
	To   Field `json:"to"`
}
