package relayactor

import (
	"context"
	"log/slog"
	"time"

	"github.com/unitefour/unite4/internal/bridge"
	"github.com/unitefour/unite4/internal/identity"
	"github.com/unitefour/unite4/internal/match"
	"github.com/unitefour/unite4/internal/protocol"
	"github.com/unitefour/unite4/internal/relay"
)

// DefaultBacklogTimeout bounds the matchmaking history fetch. It is the only
// timeout in the whole synchronization layer.
const DefaultBacklogTimeout = 10 * time.Second

// Actor is the long-lived background task talking to the relays. It owns the
// relay connections and the bridge endpoints and nothing else: game state
// stays on the frame-loop side.
type Actor struct {
	logger *slog.Logger

	pool   *relay.Pool
	bridge *bridge.Bridge
	id     *identity.Identity

	tag            string
	localName      string
	backlogTimeout time.Duration

	// narrowTo restricts live forwarding to one author once the pairing is
	// known. Optimization only; touched solely by the Run goroutine.
	narrowTo string
}

func New(logger *slog.Logger, pool *relay.Pool, br *bridge.Bridge, id *identity.Identity, tag, localName string, backlogTimeout time.Duration) *Actor {
	if backlogTimeout <= 0 {
		backlogTimeout = DefaultBacklogTimeout
	}

	return &Actor{
		logger:         logger.With("component", "relay-actor"),
		pool:           pool,
		bridge:         br,
		id:             id,
		tag:            tag,
		localName:      localName,
		backlogTimeout: backlogTimeout,
	}
}

// Run - executes the actor until the context is canceled: backlog fetch and
// matchmaking first, then the merged live subscription and the publish loop.
// It suspends only at I/O boundaries and is abandoned, not joined, when the
// session ends.
func (that *Actor) Run(ctx context.Context) {
	that.bootstrap(ctx)

	events := that.pool.Subscribe(ctx, that.tag)

	for {
		select {
		case <-ctx.Done():
			return

		case content, ok := <-that.bridge.Outbound():
			if !ok {
				return
			}
			that.publish(ctx, content)

		case event, ok := <-events:
			if !ok {
				return
			}
			that.forward(event)
		}
	}
}

// bootstrap - fetches the bounded-time backlog snapshot and runs the
// matchmaking decision over it. A failed fetch degrades to an empty snapshot.
func (that *Actor) bootstrap(ctx context.Context) {
	backlogCtx, cancel := context.WithTimeout(ctx, that.backlogTimeout)
	defer cancel()

	backlog, err := that.pool.Backlog(backlogCtx, that.tag)
	if err != nil {
		that.logger.Error("backlog fetch failed", "error", err)
		that.bridge.PushNotice("relay history unavailable")
	}

	that.logger.Info("backlog fetched", "events", len(backlog), "pubkey", that.id.PublicKey())

	decision, err := match.Decide(backlog, that.id.PublicKey(), that.localName)
	if err != nil {
		that.logger.Error("matchmaking decision failed", "error", err)
		return
	}

	if decision.Role != match.RoleUnassigned {
		that.bridge.AnnounceRole(match.Assignment{Role: decision.Role, PeerName: decision.PeerName})
	}

	if decision.Announce != "" {
		that.publish(ctx, decision.Announce)
	}

	that.narrowTo = decision.NarrowTo

	for _, event := range decision.Replay {
		if err := that.bridge.PushInbound(event.Content); err != nil {
			that.logger.Error("inbound queue full, dropping backlog entry", "error", err)
		}
	}
}

// publish - signs the payload into an event and sends it to every relay.
// Failures are non-fatal: the session continues in degraded mode.
func (that *Actor) publish(ctx context.Context, content string) {
	event, err := relay.NewEvent(that.id, that.tag, content)
	if err != nil {
		that.logger.Error("failed to build event", "error", err)
		return
	}

	if err := that.pool.Publish(ctx, event); err != nil {
		that.logger.Error("failed to publish event", "error", err)
		that.bridge.PushNotice("could not reach any relay")
	}
}

// forward - pushes a live event's content to the frame loop, skipping own
// events and, once the pairing is known, anything not authored by the peer.
func (that *Actor) forward(event relay.Event) {
	if event.Author == that.id.PublicKey() {
		return
	}

	if that.narrowTo != "" && event.Author != that.narrowTo {
		return
	}

	// A join identifies player 2; narrow future forwarding to that author.
	if message, err := protocol.Decode(event.Content); err == nil && message.Type == protocol.TypeJoin {
		that.logger.Info("narrowing subscription to peer", "author", event.Author)
		that.narrowTo = event.Author
	}

	if err := that.bridge.PushInbound(event.Content); err != nil {
		that.logger.Error("inbound queue full, dropping event", "error", err)
	}
}
