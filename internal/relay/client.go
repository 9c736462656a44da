package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// A relay is a store-and-forward node speaking the Redis protocol: the
// backlog of a match lives in a per-tag list, live delivery goes through a
// per-tag pub/sub channel. Relays offer no ordering or delivery guarantees
// between each other.

const (
	backlogKeyPrefix = "events:"
	liveChanPrefix   = "live:"
)

// Client talks to a single relay node.
type Client struct {
	logger *slog.Logger
	addr   string
	client *redis.Client
}

// NewClient - connects to one relay and verifies it answers.
func NewClient(ctx context.Context, logger *slog.Logger, addr string) (*Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to relay %s: %w", addr, err)
	}

	return &Client{
		logger: logger.With("component", "relay", "addr", addr),
		addr:   addr,
		client: conn,
	}, nil
}

// Addr - returns the relay address this client is bound to.
func (that *Client) Addr() string {
	return that.addr
}

// Publish - appends the event to the tag backlog and notifies live
// subscribers.
func (that *Client) Publish(ctx context.Context, event *Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.RPush(ctx, backlogKeyPrefix+event.Tag, raw).Err(); err != nil {
		return fmt.Errorf("failed to store event on relay: %w", err)
	}

	if err = that.client.Publish(ctx, liveChanPrefix+event.Tag, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish event on relay: %w", err)
	}

	return nil
}

// Backlog - fetches every stored event for the tag, oldest first. Entries
// that fail to decode or verify are dropped and logged, never returned.
func (that *Client) Backlog(ctx context.Context, tag string) ([]Event, error) {
	entries, err := that.client.LRange(ctx, backlogKeyPrefix+tag, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch backlog: %w", err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		event, ok := that.decodeEntry(entry)
		if !ok {
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

// Subscribe - streams live events for the tag until the context is canceled.
func (that *Client) Subscribe(ctx context.Context, tag string) <-chan Event {
	pubsub := that.client.Subscribe(ctx, liveChanPrefix+tag)
	out := make(chan Event)

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}

				event, decoded := that.decodeEntry(msg.Payload)
				if !decoded {
					continue
				}

				select {
				case out <- *event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close - closes the underlying connection.
func (that *Client) Close() error {
	if err := that.client.Close(); err != nil {
		return fmt.Errorf("failed to close relay connection: %w", err)
	}
	return nil
}

// decodeEntry - parses and verifies one stored entry. Signature checks happen
// here so nothing unverified ever reaches the session.
func (that *Client) decodeEntry(entry string) (*Event, bool) {
	var event Event
	if err := json.Unmarshal([]byte(entry), &event); err != nil {
		that.logger.Debug("dropping malformed relay entry", "error", err)
		return nil, false
	}

	if event.Kind != EventKind {
		that.logger.Debug("dropping entry with unexpected kind", "kind", event.Kind)
		return nil, false
	}

	if !event.Verify() {
		that.logger.Warn("dropping entry with bad signature", "author", event.Author)
		return nil, false
	}

	return &event, true
}
