package relay

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

var (
	ErrNoRelays      = errors.New("no relays reachable")
	ErrPublishFailed = errors.New("publish failed on every relay")
)

// Pool fans a session out over several relays: publishes go to all of them,
// subscriptions are merged, and duplicates (the same event stored by more
// than one relay) are collapsed by event ID. No ordering is reconstructed
// across relays.
type Pool struct {
	logger  *slog.Logger
	clients []*Client

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewPool(logger *slog.Logger) *Pool {
	return &Pool{
		logger: logger.With("component", "relay-pool"),
		seen:   make(map[string]struct{}),
	}
}

// Connect - dials every relay address. Individual failures are logged and
// tolerated; only a fully unreachable set is an error.
func (that *Pool) Connect(ctx context.Context, addrs []string) error {
	for _, addr := range addrs {
		if addr == "" {
			continue
		}

		client, err := NewClient(ctx, that.logger, addr)
		if err != nil {
			that.logger.Error("could not connect to relay", "addr", addr, "error", err)
			continue
		}

		that.logger.Info("relay added", "addr", addr)
		that.clients = append(that.clients, client)
	}

	if len(that.clients) == 0 {
		return ErrNoRelays
	}

	return nil
}

// Publish - sends the event to every connected relay. It fails only when no
// relay accepted it.
func (that *Pool) Publish(ctx context.Context, event *Event) error {
	accepted := 0
	for _, client := range that.clients {
		if err := client.Publish(ctx, event); err != nil {
			that.logger.Error("relay rejected publish", "addr", client.Addr(), "error", err)
			continue
		}
		accepted++
	}

	if accepted == 0 {
		return ErrPublishFailed
	}

	return nil
}

// Backlog - fetches the stored history of the tag from every relay, collapses
// duplicates and returns it oldest to newest.
func (that *Pool) Backlog(ctx context.Context, tag string) ([]Event, error) {
	var merged []Event

	for _, client := range that.clients {
		events, err := client.Backlog(ctx, tag)
		if err != nil {
			that.logger.Error("backlog fetch failed", "addr", client.Addr(), "error", err)
			continue
		}

		for _, event := range events {
			if that.markSeen(event.ID) {
				merged = append(merged, event)
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt < merged[j].CreatedAt
	})

	return merged, nil
}

// Subscribe - merges the live streams of every relay into one channel,
// dropping events already seen through another relay or the backlog.
func (that *Pool) Subscribe(ctx context.Context, tag string) <-chan Event {
	out := make(chan Event)

	var wg sync.WaitGroup
	for _, client := range that.clients {
		wg.Add(1)

		go func(client *Client) {
			defer wg.Done()

			for event := range client.Subscribe(ctx, tag) {
				if !that.markSeen(event.ID) {
					continue
				}

				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}(client)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Close - closes every relay connection.
func (that *Pool) Close() {
	for _, client := range that.clients {
		if err := client.Close(); err != nil {
			that.logger.Error("could not close relay connection", "addr", client.Addr(), "error", err)
		}
	}
}

// markSeen - records the event ID; returns false if it was already known.
func (that *Pool) markSeen(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.seen[id]; ok {
		return false
	}
	that.seen[id] = struct{}{}

	return true
}
