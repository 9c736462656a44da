package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitefour/unite4/internal/entity"
	"github.com/unitefour/unite4/internal/protocol"
	"github.com/unitefour/unite4/internal/relay"
)

const (
	selfKey = "self-key"
	peerKey = "peer-key"
)

func backlogEvent(t *testing.T, author, content string) relay.Event {
	t.Helper()
	return relay.Event{
		ID:      author + "/" + content,
		Author:  author,
		Kind:    relay.EventKind,
		Content: content,
	}
}

func TestDecide_EmptyBacklog(t *testing.T) {
	// When: the snapshot is empty
	decision, err := Decide(nil, selfKey, "alice")
	require.NoError(t, err)

	// Then: the client claims player 1 and proposes a session
	assert.Equal(t, RolePlayer1, decision.Role)
	assert.Empty(t, decision.Replay)
	assert.Empty(t, decision.NarrowTo)

	message, err := protocol.Decode(decision.Announce)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeNewGame, message.Type)

	payload, err := message.NewGame()
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Name)
}

func TestDecide_JoinsExistingProposal(t *testing.T) {
	// Given: a snapshot ending in a proposal from another identity
	proposal, err := protocol.EncodeNewGame("bob")
	require.NoError(t, err)
	backlog := []relay.Event{backlogEvent(t, peerKey, proposal)}

	// When: deciding
	decision, err := Decide(backlog, selfKey, "alice")
	require.NoError(t, err)

	// Then: the client becomes player 2 and publishes a join binding both keys
	assert.Equal(t, RolePlayer2, decision.Role)
	assert.Equal(t, "bob", decision.PeerName)
	assert.Equal(t, peerKey, decision.NarrowTo)

	message, err := protocol.Decode(decision.Announce)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeJoin, message.Type)

	players, err := message.Join()
	require.NoError(t, err)
	assert.Equal(t, peerKey, players.P1Key)
	assert.Equal(t, selfKey, players.P2Key)
	assert.Equal(t, "bob", players.P1Name)
	assert.Equal(t, "alice", players.P2Name)

	// Then: the proposal itself is replayed for the session
	require.Len(t, decision.Replay, 1)
	assert.Equal(t, proposal, decision.Replay[0].Content)
}

func TestDecide_OwnProposalAtTip(t *testing.T) {
	// Given: the most recent entry is the client's own proposal
	proposal, err := protocol.EncodeNewGame("alice")
	require.NoError(t, err)
	backlog := []relay.Event{backlogEvent(t, selfKey, proposal)}

	// When: deciding
	decision, err := Decide(backlog, selfKey, "alice")
	require.NoError(t, err)

	// Then: no fresh role from this path, nothing announced
	assert.Equal(t, RoleUnassigned, decision.Role)
	assert.Empty(t, decision.Announce)
	assert.Empty(t, decision.Replay)
}

func TestDecide_MalformedProposalPayload(t *testing.T) {
	// Given: a peer proposal whose payload does not decode
	backlog := []relay.Event{
		backlogEvent(t, peerKey, `{"type":"game:new","payload":[1,2,3]}`),
	}

	// When: deciding
	decision, err := Decide(backlog, selfKey, "alice")
	require.NoError(t, err)

	// Then: no role and no join from this path; the entry still replays and
	// narrows, like any other undecodable tip
	assert.Equal(t, RoleUnassigned, decision.Role)
	assert.Empty(t, decision.Announce)
	assert.Equal(t, peerKey, decision.NarrowTo)
	require.Len(t, decision.Replay, 1)
}

func TestDecide_ReplayRebuildsOwnMoves(t *testing.T) {
	// Given: a resumed session: own proposal, peer join, moves from both sides
	proposal, err := protocol.EncodeNewGame("alice")
	require.NoError(t, err)
	join, err := protocol.EncodeJoin(entity.NewPlayers("alice", "bob", selfKey, peerKey))
	require.NoError(t, err)
	ownMove, err := protocol.EncodeMove(3)
	require.NoError(t, err)
	peerMove, err := protocol.EncodeMove(4)
	require.NoError(t, err)

	backlog := []relay.Event{
		backlogEvent(t, selfKey, proposal),
		backlogEvent(t, peerKey, join),
		backlogEvent(t, selfKey, ownMove),
		backlogEvent(t, peerKey, peerMove),
	}

	// When: deciding
	decision, err := Decide(backlog, selfKey, "alice")
	require.NoError(t, err)

	// Then: own matchmaking entries are skipped, every move replays —
	// including the client's own, which rebuilds the board on rejoin
	assert.Equal(t, RoleUnassigned, decision.Role)
	require.Len(t, decision.Replay, 3)
	assert.Equal(t, join, decision.Replay[0].Content)
	assert.Equal(t, ownMove, decision.Replay[1].Content)
	assert.Equal(t, peerMove, decision.Replay[2].Content)

	// Then: the join author identifies the peer for narrowing
	assert.Equal(t, peerKey, decision.NarrowTo)
}
