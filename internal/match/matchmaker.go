package match

import (
	"fmt"

	"github.com/unitefour/unite4/internal/entity"
	"github.com/unitefour/unite4/internal/protocol"
	"github.com/unitefour/unite4/internal/relay"
)

// Role is the side a client plays in one session. It is assigned at most once.
type Role int

const (
	RoleUnassigned Role = iota
	RolePlayer1
	RolePlayer2
	// RoleRejected marks a client whose identity is bound to neither side of
	// the pairing it observed.
	RoleRejected
)

// Player - returns the board player number for the role, or 0 when the role
// carries none.
func (that Role) Player() int {
	switch that {
	case RolePlayer1:
		return entity.Player1
	case RolePlayer2:
		return entity.Player2
	default:
		return 0
	}
}

func (that Role) String() string {
	switch that {
	case RolePlayer1:
		return "player1"
	case RolePlayer2:
		return "player2"
	case RoleRejected:
		return "rejected"
	default:
		return "unassigned"
	}
}

// Assignment is the matchmaking outcome handed from the network task to the
// session through the bridge.
type Assignment struct {
	Role     Role
	PeerName string
}

// Decision is the full outcome of inspecting the backlog snapshot.
type Decision struct {
	Role     Role
	PeerName string
	// Announce is the encoded protocol message to publish, empty when the
	// snapshot gives no role.
	Announce string
	// NarrowTo is the peer author key to narrow the live subscription to.
	// Narrowing is an optimization, never required for correctness.
	NarrowTo string
	// Replay holds every backlog entry to forward to the session, excluding
	// self-authored matchmaking entries.
	Replay []relay.Event
}

// Decide - inspects a backlog snapshot, ordered oldest to newest, and
// determines the local role.
//
// An empty snapshot claims player 1 and proposes a new session. A snapshot
// whose last entry is a session proposal from another identity accepts it as
// player 2. Anything else assigns no role here; the replayed entries may
// still assign one in the session.
//
// Two clients proposing within the same window can both observe an empty
// snapshot and both claim player 1. There is no tie-break beyond "most recent
// backlog entry wins".
func Decide(backlog []relay.Event, selfKey, displayName string) (*Decision, error) {
	decision := &Decision{}

	if len(backlog) == 0 {
		announce, err := protocol.EncodeNewGame(displayName)
		if err != nil {
			return nil, fmt.Errorf("failed to encode session proposal: %w", err)
		}

		decision.Role = RolePlayer1
		decision.Announce = announce

		return decision, nil
	}

	tip := backlog[len(backlog)-1]
	if message, err := protocol.Decode(tip.Content); err == nil &&
		message.Type == protocol.TypeNewGame && tip.Author != selfKey {
		// A proposal whose payload does not decode assigns no role here,
		// the same as any other undecodable entry; the replay decides.
		if payload, err := message.NewGame(); err == nil {
			players := entity.NewPlayers(payload.Name, displayName, tip.Author, selfKey)

			announce, err := protocol.EncodeJoin(players)
			if err != nil {
				return nil, fmt.Errorf("failed to encode join: %w", err)
			}

			decision.Role = RolePlayer2
			decision.PeerName = payload.Name
			decision.Announce = announce
			decision.NarrowTo = tip.Author
		}
	}

	for _, event := range backlog {
		messageType := ""
		if message, err := protocol.Decode(event.Content); err == nil {
			messageType = message.Type
		}

		isMatchmaking := messageType == protocol.TypeNewGame || messageType == protocol.TypeJoin

		// Own matchmaking entries are skipped; everything else replays,
		// including own moves, which is how a rejoining client rebuilds
		// its board.
		if isMatchmaking && event.Author == selfKey {
			continue
		}

		if isMatchmaking && event.Author != selfKey {
			decision.NarrowTo = event.Author
		}

		decision.Replay = append(decision.Replay, event)
	}

	return decision, nil
}
