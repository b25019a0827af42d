package server

import "github.com/lox/brainsbets/internal/game"

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeJoin  MessageType = "join"
	MessageTypeGuess MessageType = "guess"
	MessageTypeBet   MessageType = "bet"
	MessageTypeState MessageType = "state"

	// Server to client messages
	MessageTypeJoined MessageType = "joined"
	MessageTypeAck    MessageType = "ack"
	MessageTypeError  MessageType = "error"

	// Session events, one message per event
	MessageTypePhaseChange     = MessageType(game.EventTypePhaseChange)
	MessageTypeTick            = MessageType(game.EventTypeTick)
	MessageTypePlayerJoined    = MessageType(game.EventTypePlayerJoined)
	MessageTypeGuessReceived   = MessageType(game.EventTypeGuessReceived)
	MessageTypeBetReceived     = MessageType(game.EventTypeBetReceived)
	MessageTypeBucketsComputed = MessageType(game.EventTypeBucketsComputed)
	MessageTypeRoundResult     = MessageType(game.EventTypeRoundResult)
	MessageTypeGameOver        = MessageType(game.EventTypeGameOver)
	MessageTypeSessionError    = MessageType(game.EventTypeError)
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeInvalidJoin    = "invalid_join"
	ErrCodeInvalidOrigin  = "invalid_origin"
	ErrCodeAlreadyJoined  = "already_joined"
	ErrCodeNotJoined      = "not_joined"
)
