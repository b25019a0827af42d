package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/brainsbets/internal/game"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	session   GameSession
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, session GameSession) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, sendBufferSize),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		session: session,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed when the connection shuts down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer means the
// client is not keeping up, and the connection is closed.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "player", c.GetPlayer())
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBufferSize = 256
)

var (
	ErrConnectionClosed = errors.New("connection closed")
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse join data")
			return
		}
		c.handleJoin(msg, data)

	case MessageTypeGuess:
		var data GuessData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse guess data")
			return
		}
		c.handleGuess(msg, data)

	case MessageTypeBet:
		var data BetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrCodeInvalidMessage, "Failed to parse bet data")
			return
		}
		c.handleBet(msg, data)

	case MessageTypeState:
		c.reply(msg, MessageTypeState, snapshotState(c.session))

	default:
		c.sendError(msg, ErrCodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

// reply sends a response carrying the request id of req
func (c *Connection) reply(req *Message, messageType MessageType, data any) {
	response, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	if req != nil {
		response.RequestID = req.RequestID
	}
	_ = c.SendMessage(response) // Ignore send errors
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}

// ack reports the outcome of a session command
func (c *Connection) ack(req *Message, action string, err error) {
	data := AckData{Action: action, Accepted: err == nil}
	var rejected *game.RejectedError
	if errors.As(err, &rejected) {
		data.Reason = string(rejected.Reason)
	} else if err != nil {
		data.Reason = err.Error()
	}
	c.reply(req, MessageTypeAck, data)
}

func (c *Connection) handleJoin(msg *Message, data JoinData) {
	if c.GetPlayer() != "" {
		c.sendError(msg, ErrCodeAlreadyJoined, "Connection already joined as "+c.GetPlayer())
		return
	}
	if data.Name == "" {
		c.sendError(msg, ErrCodeInvalidJoin, "Player name required")
		return
	}
	origin, err := game.ParseOrigin(data.Origin)
	if err != nil {
		c.sendError(msg, ErrCodeInvalidOrigin, err.Error())
		return
	}

	id := data.ID
	if id == "" {
		id = uuid.NewString()
	}
	c.logger.Info("Join request", "player", id, "name", data.Name, "origin", origin)

	err = c.session.TryAddPlayer(id, data.Name, origin)
	c.ack(msg, "join", err)
	if err != nil {
		return
	}

	c.SetPlayer(id)
	c.reply(msg, MessageTypeJoined, JoinedData{Player: PlayerData{
		ID:     id,
		Name:   data.Name,
		Origin: string(origin),
		Chips:  c.session.Config().StartingChips,
	}})
}

func (c *Connection) handleGuess(msg *Message, data GuessData) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError(msg, ErrCodeNotJoined, "Must join first")
		return
	}
	c.ack(msg, "guess", c.session.TrySubmitGuess(playerID, data.Value))
}

func (c *Connection) handleBet(msg *Message, data BetData) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError(msg, ErrCodeNotJoined, "Must join first")
		return
	}
	c.ack(msg, "bet", c.session.TrySubmitBets(playerID, data.Bets))
}
