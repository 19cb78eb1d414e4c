package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"pmchat/internal/hub"
	"pmchat/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
}

type chatHub interface {
	Connect(principal models.Principal) *hub.Session
	JoinRoom(ctx context.Context, s *hub.Session, roomID string) error
	SendMessage(ctx context.Context, s *hub.Session, content string, isBot bool) error
	Typing(s *hub.Session, isTyping bool)
	Disconnect(s *hub.Session)
}

// Connection pumps one websocket. Inbound events are dispatched
// synchronously on the reader goroutine, so a connection's own operations
// run strictly in arrival order; outbound events drain on a separate
// goroutine so one slow room member cannot stall the others.
type Connection struct {
	ws      wsConnection
	hub     chatHub
	session *hub.Session
}

func NewConnection(h chatHub, ws wsConnection, principal models.Principal) *Connection {
	return &Connection{
		ws:      ws,
		hub:     h,
		session: h.Connect(principal),
	}
}

func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx)
		// Unblocks the reader on server-side teardown or write failure.
		c.ws.Close()
	}()

	err := c.readLoop(ctx)
	// A read failure caused by our own teardown is a normal close.
	if ctx.Err() != nil {
		err = nil
	}

	// Disconnect closes the session stream; the write loop drains and exits.
	c.hub.Disconnect(c.session)
	cancel()
	wg.Wait()
	c.ws.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Connection) readLoop(ctx context.Context) error {
	for {
		var ev models.ClientEvent
		if err := c.ws.ReadJSON(&ev); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.dispatch(ctx, ev)
	}
}

func (c *Connection) writeLoop(ctx context.Context) {
	for {
		select {
		case ev, ok := <-c.session.Events():
			if !ok {
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connection) dispatch(ctx context.Context, ev models.ClientEvent) {
	userID := c.session.Principal().UserID

	switch ev.Event {
	case models.ClientEventJoinRoom:
		var payload models.JoinRoomPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			c.sendError("Invalid joinRoom payload")
			return
		}
		if err := c.hub.JoinRoom(ctx, c.session, payload.RoomID); err != nil {
			slog.Error("error joining room", "user_id", userID, "room_id", payload.RoomID, "error", err)
			if errors.Is(err, models.ErrAccessDenied) {
				c.sendError("Unauthorized room access")
			} else {
				c.sendError("Failed to join room")
			}
		}

	case models.ClientEventSendMessage:
		var payload models.SendMessagePayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			c.sendError("Invalid sendMessage payload")
			return
		}
		if err := c.hub.SendMessage(ctx, c.session, payload.Content, payload.IsBot); err != nil {
			slog.Error("error sending message", "user_id", userID, "error", err)
			if errors.Is(err, models.ErrNotInRoom) {
				c.sendError("Not in a room")
			} else {
				c.sendError("Failed to send message")
			}
		}

	case models.ClientEventTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			c.sendError("Invalid typing payload")
			return
		}
		c.hub.Typing(c.session, payload.IsTyping)

	default:
		c.sendError("Unknown event")
	}
}

// sendError reports a failure to this socket only. Collaborator failures
// are never broadcast to the room.
func (c *Connection) sendError(msg string) {
	c.session.Send(models.ErrorEvent(msg))
}
