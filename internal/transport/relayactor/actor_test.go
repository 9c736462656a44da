package relayactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitefour/unite4/internal/bridge"
	"github.com/unitefour/unite4/internal/identity"
	"github.com/unitefour/unite4/internal/match"
	"github.com/unitefour/unite4/internal/protocol"
	"github.com/unitefour/unite4/internal/relay"
	"github.com/unitefour/unite4/testing/suite"
)

const testTag = "unite4.test game_id=/match-1"

func startActor(ctx context.Context, t *testing.T, st *suite.Suite, name string) (*bridge.Bridge, *identity.Identity) {
	t.Helper()

	id, err := identity.New()
	require.NoError(t, err)

	pool := relay.NewPool(st.Logger)
	require.NoError(t, pool.Connect(ctx, []string{st.RelayAddr}))
	t.Cleanup(pool.Close)

	br := bridge.New(bridge.DefaultCapacity)

	actor := New(st.Logger, pool, br, id, testTag, name, 5*time.Second)
	go actor.Run(ctx)

	return br, id
}

func waitForRole(t *testing.T, br *bridge.Bridge) match.Assignment {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		if assignment, ok := br.PollRole(); ok {
			return assignment
		}

		select {
		case <-deadline:
			t.Fatal("no role assigned in time")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func waitForInbound(t *testing.T, br *bridge.Bridge) string {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		if content, ok := br.PollInbound(); ok {
			return content
		}

		select {
		case <-deadline:
			t.Fatal("no inbound message in time")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestActor_Matchmaking(t *testing.T) {
	ctx, st := suite.New(t)

	// Given: the first client bootstrapping against an empty backlog
	firstBridge, firstID := startActor(ctx, t, st, "alice")

	// Then: it claims player 1
	assignment := waitForRole(t, firstBridge)
	assert.Equal(t, match.RolePlayer1, assignment.Role)

	// Then: exactly one session proposal lands on the relay
	observer, err := relay.NewClient(ctx, st.Logger, st.RelayAddr)
	require.NoError(t, err)
	defer observer.Close()

	var backlog []relay.Event
	require.Eventually(t, func() bool {
		backlog, err = observer.Backlog(ctx, testTag)
		return err == nil && len(backlog) == 1
	}, 10*time.Second, 50*time.Millisecond)

	assert.Equal(t, firstID.PublicKey(), backlog[0].Author)
	message, err := protocol.Decode(backlog[0].Content)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeNewGame, message.Type)

	// When: a second client bootstraps against that backlog
	secondBridge, secondID := startActor(ctx, t, st, "bob")

	// Then: it becomes player 2, named after the proposal author
	assignment = waitForRole(t, secondBridge)
	assert.Equal(t, match.RolePlayer2, assignment.Role)
	assert.Equal(t, "alice", assignment.PeerName)

	// Then: its join reaches the first client's inbound queue, binding
	// both identities
	content := waitForInbound(t, firstBridge)
	message, err = protocol.Decode(content)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeJoin, message.Type)

	players, err := message.Join()
	require.NoError(t, err)
	assert.Equal(t, firstID.PublicKey(), players.P1Key)
	assert.Equal(t, secondID.PublicKey(), players.P2Key)
}

func TestActor_PublishLoop(t *testing.T) {
	ctx, st := suite.New(t)

	firstBridge, _ := startActor(ctx, t, st, "alice")
	waitForRole(t, firstBridge)

	secondBridge, _ := startActor(ctx, t, st, "bob")
	waitForRole(t, secondBridge)
	_ = waitForInbound(t, firstBridge) // the join

	// Give the live subscriptions a moment to settle before publishing.
	time.Sleep(500 * time.Millisecond)

	// When: player 1 queues a move for publication
	move, err := protocol.EncodeMove(3)
	require.NoError(t, err)
	require.NoError(t, firstBridge.PushOutbound(move))

	// Then: the move shows up on player 2's inbound queue
	content := waitForInbound(t, secondBridge)
	message, err := protocol.Decode(content)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeMove, message.Type)

	payload, err := message.Move()
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Column)
}
