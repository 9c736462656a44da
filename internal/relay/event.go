package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unitefour/unite4/internal/identity"
)

// EventKind is the single fixed kind carried by every protocol event.
const EventKind = 4444

// Event is a signed envelope stored and forwarded by relays. Consumers filter
// by the (kind, tag) tuple to scope traffic to one match.
type Event struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tag       string `json:"tag"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// NewEvent - builds and signs an event authored by the identity.
func NewEvent(id *identity.Identity, tag, content string) (*Event, error) {
	event := &Event{
		ID:        uuid.NewString(),
		Author:    id.PublicKey(),
		CreatedAt: time.Now().Unix(),
		Kind:      EventKind,
		Tag:       tag,
		Content:   content,
	}

	digest, err := event.digest()
	if err != nil {
		return nil, err
	}
	event.Sig = id.Sign(digest)

	return event, nil
}

// Verify - checks the event signature against its author key.
func (that *Event) Verify() bool {
	digest, err := that.digest()
	if err != nil {
		return false
	}
	return identity.Verify(that.Author, digest, that.Sig)
}

// digest is the canonical serialization covered by the signature: every field
// except the signature itself, in fixed order.
func (that *Event) digest() ([]byte, error) {
	raw, err := json.Marshal([]any{that.ID, that.Author, that.CreatedAt, that.Kind, that.Tag, that.Content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event digest: %w", err)
	}
	return raw, nil
}
