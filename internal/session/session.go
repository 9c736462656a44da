package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/unitefour/unite4/internal/apperror"
	"github.com/unitefour/unite4/internal/bridge"
	"github.com/unitefour/unite4/internal/entity"
	"github.com/unitefour/unite4/internal/identity"
	"github.com/unitefour/unite4/internal/match"
	"github.com/unitefour/unite4/internal/protocol"
)

// GameTag - derives the label scoping all protocol traffic to one match.
// Every participant of a match computes the identical tag.
func GameTag(appDomain, gameID string) string {
	return fmt.Sprintf("%s game_id=%s", appDomain, gameID)
}

// Session owns the game state on the frame-loop side. Only the frame loop
// ever touches it; the network task reaches it exclusively through the
// bridge queues.
type Session struct {
	logger *slog.Logger

	board  *entity.Board
	bridge *bridge.Bridge
	id     *identity.Identity
	tag    string

	role      match.Role
	started   bool
	localName string
	peerName  string
}

func New(logger *slog.Logger, br *bridge.Bridge, id *identity.Identity, tag, localName string) *Session {
	return &Session{
		logger:    logger.With("component", "session"),
		board:     entity.NewBoard(),
		bridge:    br,
		id:        id,
		tag:       tag,
		role:      match.RoleUnassigned,
		localName: localName,
	}
}

func (that *Session) Board() *entity.Board { return that.board }

func (that *Session) Role() match.Role { return that.role }

// Started - reports whether both identities are bound to the session.
func (that *Session) Started() bool { return that.started }

func (that *Session) PeerName() string { return that.peerName }

func (that *Session) Tag() string { return that.tag }

// Tick - runs one frame-loop step: applies a pending matchmaking outcome and
// drains the inbound queue. The batch stops after the first accepted remote
// move to keep strict turn alternation; the rest stays queued for the next
// tick. While a drop is settling nothing is drained at all: the turn has not
// flipped yet, so applying the next move would credit it to the wrong player.
// The accepted move, if any, is returned for the drop-animation collaborator,
// along with whether a board reset was processed so the caller can discard
// pending animations.
func (that *Session) Tick() (*entity.PlayerMove, bool) {
	if assignment, ok := that.bridge.PollRole(); ok {
		that.adoptAssignment(assignment)
	}

	if that.board.InProgress {
		return nil, false
	}

	reset := false

	for {
		content, ok := that.bridge.PollInbound()
		if !ok {
			return nil, reset
		}

		message, err := protocol.Decode(content)
		if err != nil {
			that.logger.Info("dropping undecodable message", "error", err)
			continue
		}

		switch message.Type {
		case protocol.TypeMove:
			payload, err := message.Move()
			if err != nil {
				that.logger.Info("dropping malformed move", "error", err)
				continue
			}

			move, err := that.ReceiveRemoteMove(payload.Column)
			if err != nil {
				// Protocol violations are rejected silently; nothing
				// goes back to the peer.
				that.logger.Debug("rejected remote move", "column", payload.Column, "error", err)
				continue
			}

			return &move, reset

		case protocol.TypeNewGame:
			that.handleNewGame(message)

		case protocol.TypeJoin:
			that.handleJoin(message)

		case protocol.TypeReset:
			that.logger.Info("peer requested reset")
			that.board.Reset()
			reset = true
		}
	}
}

// SubmitLocalMove - validates and applies a local drop, then queues it for
// publication. Settling is driven by the animation collaborator, which must
// call OnMoveSettled exactly once for the returned move.
func (that *Session) SubmitLocalMove(column int) (entity.PlayerMove, error) {
	if that.board.Winner != 0 {
		return entity.PlayerMove{}, apperror.ErrGameFinished
	}

	if that.role.Player() == 0 {
		return entity.PlayerMove{}, apperror.ErrAwaitingOpponent
	}

	if that.board.Turn != that.role.Player() {
		return entity.PlayerMove{}, apperror.ErrNotYourTurn
	}

	if that.board.InProgress {
		return entity.PlayerMove{}, apperror.ErrDropInProgress
	}

	move, err := that.board.Drop(column)
	if err != nil {
		return entity.PlayerMove{}, err
	}
	that.board.InProgress = true

	content, err := protocol.EncodeMove(column)
	if err != nil {
		that.logger.Error("failed to encode move", "error", err)
		return move, nil
	}

	if err := that.bridge.PushOutbound(content); err != nil {
		that.logger.Error("outbound queue full, move not published", "error", err)
	}

	return move, nil
}

// ReceiveRemoteMove - applies a move announced by the peer. Column range and
// capacity are validated defensively against a desynced or malicious peer;
// a valid move behaves exactly like a local one minus the publish.
func (that *Session) ReceiveRemoteMove(column int) (entity.PlayerMove, error) {
	move, err := that.board.Drop(column)
	if err != nil {
		return entity.PlayerMove{}, err
	}
	that.board.InProgress = true

	return move, nil
}

// OnMoveSettled - invoked once the drop animation reports completion. Runs
// win detection over the whole move list; a win freezes the turn forever,
// otherwise the turn flips.
func (that *Session) OnMoveSettled(move entity.PlayerMove) {
	that.board.InProgress = false

	if that.board.Winner != 0 {
		return
	}

	if that.board.HasWinningLine() {
		that.board.Winner = move.Player
		that.logger.Info("game won", "player", move.Player)
		return
	}

	if that.board.Turn == entity.Player1 {
		that.board.Turn = entity.Player2
	} else {
		that.board.Turn = entity.Player1
	}
}

// RequestReplay - clears the board and asks the peer to do the same. There is
// no acknowledgement: if the reset message is lost, the two sides stay
// desynced until a fresh session is created.
func (that *Session) RequestReplay() error {
	that.board.Reset()

	content, err := protocol.EncodeReset()
	if err != nil {
		return fmt.Errorf("failed to encode reset: %w", err)
	}

	if err := that.bridge.PushOutbound(content); err != nil {
		that.logger.Error("outbound queue full, reset not published", "error", err)
		return err
	}

	return nil
}

// adoptAssignment - applies the matchmaking outcome from the network task.
// The role is assigned at most once per session.
func (that *Session) adoptAssignment(assignment match.Assignment) {
	if that.role != match.RoleUnassigned {
		return
	}

	that.role = assignment.Role
	that.logger.Info("role assigned", "role", assignment.Role.String())

	// Player 2 already knows both identities; player 1 waits for a join.
	if assignment.Role == match.RolePlayer2 {
		that.peerName = assignment.PeerName
		that.started = true
	}
}

func (that *Session) handleNewGame(message *protocol.Message) {
	if that.started {
		return
	}

	payload, err := message.NewGame()
	if err != nil {
		that.logger.Info("dropping malformed session proposal", "error", err)
		return
	}

	// A proposal from the peer means the local client is player 2.
	that.peerName = payload.Name
	if that.role == match.RoleUnassigned {
		that.role = match.RolePlayer2
		that.logger.Info("role assigned", "role", that.role.String())
	}
	that.started = true
}

func (that *Session) handleJoin(message *protocol.Message) {
	players, err := message.Join()
	if err != nil {
		that.logger.Info("dropping malformed join", "error", err)
		return
	}

	if that.started {
		return
	}

	if !players.Has(that.id.PublicKey()) {
		that.logger.Info("not our game", "p1", players.P1Key, "p2", players.P2Key)
		that.role = match.RoleRejected
		return
	}

	// A join naming the local identity confirms player 1.
	that.peerName = players.P2Name
	if that.role == match.RoleUnassigned {
		that.role = match.RolePlayer1
		that.logger.Info("role assigned", "role", that.role.String())
	}
	that.started = true
}

// IsProtocolViolation - reports whether the error is a silently-rejected
// gameplay violation rather than a fault worth surfacing.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, apperror.ErrColumnFull) ||
		errors.Is(err, apperror.ErrInvalidColumn) ||
		errors.Is(err, apperror.ErrDropInProgress) ||
		errors.Is(err, apperror.ErrAwaitingOpponent) ||
		errors.Is(err, apperror.ErrGameFinished)
}
