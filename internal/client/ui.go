package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/unitefour/unite4/internal/bridge"
	"github.com/unitefour/unite4/internal/entity"
	"github.com/unitefour/unite4/internal/session"
)

// The terminal front-end is the rendering/input collaborator of the session:
// it hit-tests key presses to columns, feeds SubmitLocalMove, animates drops
// and reports each landing through OnMoveSettled exactly once. Game state is
// only ever touched through session methods, on this goroutine.

const (
	frameInterval = 50 * time.Millisecond

	boardLeft = 2
	boardTop  = 2
)

type fallingCoin struct {
	move entity.PlayerMove
	// row is the current visual row, counting down to move.Row.
	row int
}

type UI struct {
	logger *slog.Logger

	session *session.Session
	bridge  *bridge.Bridge

	cursor  int
	falling []fallingCoin
	notice  string
}

func New(logger *slog.Logger, sess *session.Session, br *bridge.Bridge) *UI {
	return &UI{
		logger:  logger.With("component", "ui"),
		session: sess,
		bridge:  br,
		cursor:  entity.Columns / 2,
	}
}

// Run - drives the frame loop until the player quits or the context ends.
// Each tick drains the inbound queue via the session, advances the drop
// animation and redraws; it never blocks on I/O.
func (that *UI) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("failed to init terminal: %w", err)
	}
	defer termbox.Close()

	events := make(chan termbox.Event)
	go func() {
		for {
			events <- termbox.PollEvent()
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-events:
			if that.handleInput(event) {
				return nil
			}

		case <-ticker.C:
			that.tick()
		}
	}
}

// handleInput - maps one key event to a session operation. Returns true when
// the player quits.
func (that *UI) handleInput(event termbox.Event) bool {
	if event.Type != termbox.EventKey {
		return false
	}

	switch {
	case event.Key == termbox.KeyEsc, event.Key == termbox.KeyCtrlC, event.Ch == 'q':
		return true

	case event.Key == termbox.KeyArrowLeft:
		if that.cursor > 0 {
			that.cursor--
		}

	case event.Key == termbox.KeyArrowRight:
		if that.cursor < entity.Columns-1 {
			that.cursor++
		}

	case event.Ch >= '1' && event.Ch <= '7':
		that.cursor = int(event.Ch - '1')
		that.drop()

	case event.Key == termbox.KeyEnter, event.Key == termbox.KeySpace:
		that.drop()

	case event.Ch == 'r':
		if that.session.Board().Winner != 0 {
			if err := that.session.RequestReplay(); err != nil {
				that.logger.Error("replay request failed", "error", err)
			}
			that.falling = nil
		}
	}

	return false
}

// drop - submits the hovered column. Rejected gestures change nothing and
// stay silent, matching the protocol's violation handling.
func (that *UI) drop() {
	move, err := that.session.SubmitLocalMove(that.cursor)
	if err != nil {
		if !session.IsProtocolViolation(err) {
			that.logger.Error("submit failed", "error", err)
		}
		return
	}

	that.falling = append(that.falling, fallingCoin{move: move, row: entity.Rows})
}

func (that *UI) tick() {
	if notice, ok := that.bridge.PollNotice(); ok {
		that.notice = notice
	}

	move, reset := that.session.Tick()

	// The board is blank after a peer reset; a coin still in the air would
	// settle into a cell that no longer exists.
	if reset {
		that.falling = nil
	}

	if move != nil {
		that.falling = append(that.falling, fallingCoin{move: *move, row: entity.Rows})
	}

	that.advanceAnimation()
	that.render()
}

// advanceAnimation - lowers the oldest falling coin one row per frame and
// settles it on landing. Coins settle strictly in arrival order.
func (that *UI) advanceAnimation() {
	if len(that.falling) == 0 {
		return
	}

	coin := &that.falling[0]
	if coin.row > coin.move.Row {
		coin.row--
	}

	if coin.row == coin.move.Row {
		that.session.OnMoveSettled(coin.move)
		that.falling = that.falling[1:]
	}
}

func (that *UI) render() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	board := that.session.Board()

	// Cursor marker above the board.
	that.print(boardLeft+that.cursor*2, boardTop-1, "v", termbox.ColorWhite)

	for column := 0; column < entity.Columns; column++ {
		for row := 0; row < entity.Rows; row++ {
			that.drawCell(column, row, board.PlayerAt(column, row))
		}
	}

	// Falling coins overdraw their transit cell; their target cell is
	// already occupied on the board, so blank it until landing.
	for _, coin := range that.falling {
		that.drawCell(coin.move.Column, coin.move.Row, 0)
	}
	for _, coin := range that.falling {
		if coin.row < entity.Rows {
			that.drawCell(coin.move.Column, coin.row, coin.move.Player)
		}
	}

	that.print(boardLeft, boardTop+entity.Rows+1, "1 2 3 4 5 6 7", termbox.ColorBlue)
	that.print(boardLeft, boardTop+entity.Rows+3, that.statusLine(), termbox.ColorWhite)

	if that.notice != "" {
		that.print(boardLeft, boardTop+entity.Rows+5, that.notice, termbox.ColorMagenta)
	}

	termbox.Flush()
}

func (that *UI) drawCell(column, row int, player int) {
	// Row 0 is the bottom of the stack, so flip vertically for the screen.
	x := boardLeft + column*2
	y := boardTop + (entity.Rows - 1 - row)

	char, color := 'o', termbox.ColorWhite
	switch player {
	case entity.Player1:
		char, color = '@', termbox.ColorRed
	case entity.Player2:
		char, color = '@', termbox.ColorYellow
	}

	termbox.SetCell(x, y, char, color, termbox.ColorDefault)
}

func (that *UI) statusLine() string {
	board := that.session.Board()

	if board.Winner != 0 {
		if board.Winner == that.session.Role().Player() {
			return "you win!! press r to replay"
		}
		return "you lose. press r to replay"
	}

	if !that.session.Started() {
		return "waiting for an opponent.."
	}

	if board.Turn == that.session.Role().Player() {
		return "your turn"
	}

	peer := that.session.PeerName()
	if peer == "" {
		peer = "opponent"
	}
	return fmt.Sprintf("waiting for %s..", peer)
}

func (that *UI) print(x, y int, text string, color termbox.Attribute) {
	for i, char := range text {
		termbox.SetCell(x+i, y, char, color, termbox.ColorDefault)
	}
}
