package bridge

import (
	"fmt"

	"github.com/unitefour/unite4/internal/apperror"
	"github.com/unitefour/unite4/internal/match"
)

// DefaultCapacity bounds each queue when no capacity is configured.
const DefaultCapacity = 1000

const noticeCapacity = 8

// Bridge connects the network task to the frame loop through two bounded
// FIFO queues plus a one-shot channel for the matchmaking outcome. Enqueues
// never block: a full queue drops the message and reports it. No flow control
// is signaled back to the producer; the transport is best-effort anyway.
type Bridge struct {
	inbound  chan string
	outbound chan string
	role     chan match.Assignment
	notices  chan string
}

func New(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Bridge{
		inbound:  make(chan string, capacity),
		outbound: make(chan string, capacity),
		role:     make(chan match.Assignment, 1),
		notices:  make(chan string, noticeCapacity),
	}
}

// PushInbound - hands a decoded payload to the frame loop.
func (that *Bridge) PushInbound(content string) error {
	select {
	case that.inbound <- content:
		return nil
	default:
		return fmt.Errorf("%w: inbound", apperror.ErrQueueFull)
	}
}

// PollInbound - pops the oldest inbound payload, if any.
func (that *Bridge) PollInbound() (string, bool) {
	select {
	case content := <-that.inbound:
		return content, true
	default:
		return "", false
	}
}

// PushOutbound - hands a serialized protocol message to the network task.
func (that *Bridge) PushOutbound(content string) error {
	select {
	case that.outbound <- content:
		return nil
	default:
		return fmt.Errorf("%w: outbound", apperror.ErrQueueFull)
	}
}

// Outbound - exposes the outbound queue for the network task's publish loop.
func (that *Bridge) Outbound() <-chan string {
	return that.outbound
}

// AnnounceRole - delivers the matchmaking outcome. Only the first
// announcement is kept.
func (that *Bridge) AnnounceRole(assignment match.Assignment) {
	select {
	case that.role <- assignment:
	default:
	}
}

// PollRole - checks for a pending matchmaking outcome.
func (that *Bridge) PollRole() (match.Assignment, bool) {
	select {
	case assignment := <-that.role:
		return assignment, true
	default:
		return match.Assignment{}, false
	}
}

// PushNotice - queues a user-visible, non-fatal notice. Overflowing notices
// are silently discarded.
func (that *Bridge) PushNotice(text string) {
	select {
	case that.notices <- text:
	default:
	}
}

// PollNotice - pops the oldest pending notice, if any.
func (that *Bridge) PollNotice() (string, bool) {
	select {
	case text := <-that.notices:
		return text, true
	default:
		return "", false
	}
}
