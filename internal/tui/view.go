// Package tui draws a hot-seat table in the terminal and turns clicks and
// key presses into field selections.
package tui

import (
	"fmt"

	"github.com/benbeisheim/hotseat-chess/internal/model"
	"github.com/gdamore/tcell/v2"
)

// Grid geometry in terminal cells.
const (
	originX   = 3
	originY   = 1
	cellWidth = 3
	boardSize = 8
)

var (
	lightStyle    = tcell.StyleDefault.Background(tcell.NewRGBColor(240, 217, 181)).Foreground(tcell.ColorBlack)
	darkStyle     = tcell.StyleDefault.Background(tcell.NewRGBColor(181, 136, 99)).Foreground(tcell.ColorBlack)
	selectedStyle = tcell.StyleDefault.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	targetStyle   = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	labelStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	textStyle     = tcell.StyleDefault
)

type View struct {
	screen  tcell.Screen
	game    *model.Game
	cursor  model.Field
	pressed bool
}

func NewView(screen tcell.Screen, game *model.Game) *View {
	return &View{
		screen: screen,
		game:   game,
		cursor: model.Field{Row: 6, Col: 4},
	}
}

// Run draws and handles events until the user quits or the screen is
// finalized.
func (v *View) Run() {
	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		if !v.HandleEvent(ev) {
			return
		}
	}
}

// HandleEvent applies one terminal event and redraws. It returns false when
// the user asked to quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			v.moveCursor(-1, 0)
		case tcell.KeyDown:
			v.moveCursor(1, 0)
		case tcell.KeyLeft:
			v.moveCursor(0, -1)
		case tcell.KeyRight:
			v.moveCursor(0, 1)
		case tcell.KeyEnter:
			v.selectField(v.cursor)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				v.game.Reset()
			case ' ':
				v.selectField(v.cursor)
			}
		}
	case *tcell.EventMouse:
		down := ev.Buttons()&tcell.Button1 != 0
		if down && !v.pressed {
			if field, ok := FieldAt(ev.Position()); ok {
				v.cursor = field
				v.selectField(field)
			}
		}
		v.pressed = down
	}
	v.Draw()
	return true
}

func (v *View) moveCursor(dRow, dCol int) {
	next := model.Field{Row: v.cursor.Row + dRow, Col: v.cursor.Col + dCol}
	if next.Valid() {
		v.cursor = next
	}
}

func (v *View) selectField(field model.Field) {
	// invalid fields are filtered by the callers
	_, _ = v.game.SelectField(field)
}

// FieldAt maps a screen position onto the board.
func FieldAt(x, y int) (model.Field, bool) {
	if x < originX || y < originY {
		return model.Field{}, false
	}
	field := model.Field{Row: y - originY, Col: (x - originX) / cellWidth}
	return field, field.Valid()
}

// CellOrigin is the screen position of the glyph drawn for field.
func CellOrigin(field model.Field) (int, int) {
	return originX + field.Col*cellWidth + 1, originY + field.Row
}

func (v *View) Draw() {
	state := v.game.GetState()
	targets := make(map[model.Field]bool, len(state.LegalMoves))
	for _, f := range state.LegalMoves {
		targets[f] = true
	}

	v.screen.Clear()
	for row := 0; row < boardSize; row++ {
		drawText(v.screen, 1, originY+row, labelStyle, fmt.Sprintf("%d", boardSize-row))
		for col := 0; col < boardSize; col++ {
			field := model.Field{Row: row, Col: col}
			style := lightStyle
			if (row+col)%2 == 1 {
				style = darkStyle
			}
			switch {
			case state.Selected != nil && *state.Selected == field:
				style = selectedStyle
			case targets[field]:
				style = targetStyle
			}
			if field == v.cursor {
				style = style.Underline(true)
			}

			glyph := ' '
			if cell := state.Board[row][col]; cell != nil {
				glyph = []rune(cell.Glyph)[0]
			}
			x := originX + col*cellWidth
			v.screen.SetContent(x, originY+row, ' ', nil, style)
			v.screen.SetContent(x+1, originY+row, glyph, nil, style)
			v.screen.SetContent(x+2, originY+row, ' ', nil, style)
		}
	}
	for col := 0; col < boardSize; col++ {
		v.screen.SetContent(originX+col*cellWidth+1, originY+boardSize, rune('a'+col), nil, labelStyle)
	}

	y := originY + boardSize + 2
	drawText(v.screen, 1, y, textStyle, "Current move: "+string(state.ToMove))
	drawText(v.screen, 1, y+1, textStyle, statusLine(state))
	drawText(v.screen, 1, y+2, labelStyle, "click/enter select  r reset  q quit")
	v.screen.Show()
}

func statusLine(state model.GameState) string {
	if state.Status == nil {
		return "-"
	}
	line := string(state.Status.Outcome)
	if state.Status.Notation != "" {
		line += " " + state.Status.Notation
	}
	if state.Resolve != nil {
		line += " (" + *state.Resolve + ")"
	} else if state.IsCheck {
		line += " (check)"
	}
	return line
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
