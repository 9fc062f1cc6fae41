package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Channel is a client subscription to one relay room. Inbound envelopes are
// delivered in arrival order on a single channel; outbound sends are
// fire-and-forget with no retry. Closing the channel stops future delivery
// and is the only teardown required.
type Channel struct {
	room     string
	clientID string
	conn     *websocket.Conn
	inbound  chan Envelope
	logger   *log.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial subscribes to the given room on the relay. relayURL is the relay's
// http(s) base address.
func Dial(ctx context.Context, relayURL, room, clientID string, logger *log.Logger) (*Channel, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/" + room

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	c := &Channel{
		room:     room,
		clientID: clientID,
		conn:     conn,
		inbound:  make(chan Envelope, 64),
		logger:   logger.With("room", room),
		done:     make(chan struct{}),
	}

	go c.readLoop()
	return c, nil
}

// Events returns the ordered stream of inbound envelopes. The channel is
// closed when the subscription ends.
func (c *Channel) Events() <-chan Envelope {
	return c.inbound
}

// Broadcast publishes an event with the given payload to every current
// subscriber of the room. Delivery is at-least-once to current subscribers
// and never reaches late joiners.
func (c *Channel) Broadcast(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	return c.send(Envelope{
		Type:    TypeBroadcast,
		Event:   event,
		Sender:  c.clientID,
		Payload: data,
	})
}

// Track announces this client's presence in the room. There is no retry: if
// the announcement is lost the client simply appears absent until the
// channel reconnects.
func (c *Channel) Track(meta PresenceMeta) error {
	return c.send(Envelope{
		Type:   TypeTrack,
		Sender: c.clientID,
		Meta:   &meta,
	})
}

// Close tears down the subscription. Safe to call more than once.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

func (c *Channel) send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return fmt.Errorf("channel closed")
	default:
	}

	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", env.Type, err)
	}
	return nil
}

func (c *Channel) readLoop() {
	defer close(c.inbound)

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
				// Deliberate close, nothing to report
			default:
				c.logger.Warn("relay connection lost", "err", err)
			}
			return
		}

		select {
		case c.inbound <- env:
		case <-c.done:
			return
		}
	}
}
