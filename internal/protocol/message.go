package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/unitefour/unite4/internal/apperror"
	"github.com/unitefour/unite4/internal/entity"
)

const (
	// TypeNewGame proposes a new session; the payload is an optional
	// display name.
	TypeNewGame = "game:new"
	// TypeJoin accepts a proposal and binds both identities.
	TypeJoin = "game:join"
	// TypeMove drops a piece in a column.
	TypeMove = "game:move"
	// TypeReset asks both sides to clear the board.
	TypeReset = "game:reset"
)

// Message is the wire envelope carried as relay event content.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type NewGamePayload struct {
	Name string `json:"name,omitempty"`
}

type MovePayload struct {
	Column int `json:"column"`
}

// EncodeNewGame - serializes a session proposal with an optional display name.
func EncodeNewGame(name string) (string, error) {
	return encode(TypeNewGame, NewGamePayload{Name: name})
}

// EncodeJoin - serializes the pairing that binds both identities.
func EncodeJoin(players *entity.Players) (string, error) {
	return encode(TypeJoin, players)
}

// EncodeMove - serializes a column drop.
func EncodeMove(column int) (string, error) {
	return encode(TypeMove, MovePayload{Column: column})
}

// EncodeReset - serializes a board reset request. It carries no payload.
func EncodeReset() (string, error) {
	raw, err := json.Marshal(Message{Type: TypeReset})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return string(raw), nil
}

func encode(messageType string, payload any) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	raw, err := json.Marshal(Message{Type: messageType, Payload: payloadJSON})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	return string(raw), nil
}

// Decode - parses a wire envelope. Malformed input or an unrecognized type
// yields a typed error, never a panic; the caller drops the message.
func Decode(content string) (*Message, error) {
	var message Message
	if err := json.Unmarshal([]byte(content), &message); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	switch message.Type {
	case TypeNewGame, TypeJoin, TypeMove, TypeReset:
		return &message, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMessageType, message.Type)
	}
}

// NewGame - unpacks the payload of a game:new message.
func (that *Message) NewGame() (*NewGamePayload, error) {
	payload := &NewGamePayload{}
	if len(that.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(that.Payload, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}
	return payload, nil
}

// Join - unpacks the payload of a game:join message.
func (that *Message) Join() (*entity.Players, error) {
	players := &entity.Players{}
	if err := json.Unmarshal(that.Payload, players); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}
	return players, nil
}

// Move - unpacks the payload of a game:move message.
func (that *Message) Move() (*MovePayload, error) {
	move := &MovePayload{}
	if err := json.Unmarshal(that.Payload, move); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}
	return move, nil
}
