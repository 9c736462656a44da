package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrAwaitingOpponent = errors.New("no opponent has joined yet")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrDropInProgress   = errors.New("a drop is still settling")
	ErrColumnFull       = errors.New("column is already full")
	ErrInvalidColumn    = errors.New("invalid column index")

	ErrQueueFull          = errors.New("channel queue is full")
	ErrMalformedMessage   = errors.New("malformed protocol message")
	ErrUnknownMessageType = errors.New("unknown protocol message type")

	ErrNotFound = errors.New("not found")
)
