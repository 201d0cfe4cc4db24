package boltodds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmaxfield/propscan/internal/domain"
	"github.com/dmaxfield/propscan/internal/stream"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed between reads before the connection is
	// considered dead. The feed sends line updates near-continuously during
	// game hours and pings otherwise.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than
	// pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 30 * time.Second

	// connectedTimeout bounds the wait for the socket_connected
	// acknowledgement after dialing.
	connectedTimeout = 15 * time.Second
)

// FrameObserver is notified for every decoded frame. Used for metrics.
type FrameObserver func(action string)

// Client consumes the push odds feed and applies every frame to the stream
// store. It reconnects with exponential backoff on any failure; the backoff
// resets once a session reaches the subscribed state.
type Client struct {
	url      string
	sport    string
	store    *stream.Store
	observer FrameObserver
	logger   *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a feed client for one sport. observer may be nil.
func NewClient(url, sport string, store *stream.Store, observer FrameObserver, logger *slog.Logger) *Client {
	return &Client{
		url:      url,
		sport:    sport,
		store:    store,
		observer: observer,
		logger:   logger.With(slog.String("component", "boltodds_client")),
		done:     make(chan struct{}),
	}
}

// Run connects and consumes frames until ctx is cancelled or Close is called.
// Connection failures are never fatal: the evaluation loop keeps reading the
// last good snapshot while this loop reconnects.
func (c *Client) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		subscribed, err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-c.done:
			return nil
		default:
		}

		if subscribed {
			delay = reconnectDelay
		}
		c.logger.Warn("feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Close stops the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// runConnection runs one full session: dial, wait for socket_connected,
// subscribe, then read frames until the connection drops. The bool result
// reports whether the session reached the subscribed state.
func (c *Client) runConnection(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("boltodds: connect: %w", err)
	}
	defer conn.Close()

	// Drop the connection from a goroutine on cancellation so the blocking
	// ReadMessage below unblocks.
	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		case <-readerDone:
			return
		}
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := c.awaitConnected(conn); err != nil {
		return false, err
	}
	if err := c.subscribe(conn); err != nil {
		return false, err
	}

	c.store.SetConnected(true)
	defer c.store.SetConnected(false)
	c.logger.Info("feed subscribed",
		slog.String("url", c.url),
		slog.String("sport", c.sport),
	)

	go c.pingLoop(conn, readerDone)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("boltodds: read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(message)
	}
}

// awaitConnected reads until the server's socket_connected acknowledgement.
// The server may deliver other frames first; those are applied as usual.
func (c *Client) awaitConnected(conn *websocket.Conn) error {
	deadline := time.Now().Add(connectedTimeout)
	conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Now().Add(pongWait))

	for time.Now().Before(deadline) {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("boltodds: await ack: %w", err)
		}
		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.Action == "socket_connected" {
			return nil
		}
		c.handleFrame(message)
	}
	return fmt.Errorf("boltodds: await ack: %w", domain.ErrNotConnected)
}

// subscribe requests the configured sport's feed.
func (c *Client) subscribe(conn *websocket.Conn) error {
	cmd := subscribeCommand{Action: "subscribe", Sports: []string{c.sport}}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("boltodds: marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("boltodds: subscribe: %w", err)
	}
	return nil
}

// pingLoop keeps the connection alive between game hours, when the feed can
// go quiet for minutes at a time.
func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame decodes one frame and applies it to the store. Malformed or
// unrecognized frames are dropped.
func (c *Client) handleFrame(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}
	if c.observer != nil {
		c.observer(frame.Action)
	}

	switch frame.Action {
	case stream.ActionInitialState:
		var data initialStateData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		games := make(map[string]domain.GameInfo, len(data.Games))
		for id, g := range data.Games {
			games[id] = g.Domain()
		}
		odds := make(map[string]map[string]map[string]domain.RawOutcome, len(data.Odds))
		for gameID, byBook := range data.Odds {
			odds[gameID] = make(map[string]map[string]domain.RawOutcome, len(byBook))
			for book, outcomes := range byBook {
				bucket := make(map[string]domain.RawOutcome, len(outcomes))
				for id, w := range outcomes {
					bucket[id] = w.Domain()
				}
				odds[gameID][book] = bucket
			}
		}
		c.store.Apply(stream.Update{
			Action: stream.ActionInitialState,
			Sport:  data.Sport,
			Games:  games,
			Odds:   odds,
		})
	case stream.ActionLineUpdate:
		var data lineUpdateData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		outcomes := make(map[string]domain.RawOutcome, len(data.Outcomes))
		for id, w := range data.Outcomes {
			outcomes[id] = w.Domain()
		}
		c.store.Apply(stream.Update{
			Action:   stream.ActionLineUpdate,
			Sport:    data.Sport,
			GameID:   data.Game,
			Book:     data.Sportsbook,
			Outcomes: outcomes,
		})
	case stream.ActionGameUpdate:
		var data gameUpdateData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.Info == nil {
			return
		}
		info := data.Info.Domain()
		c.store.Apply(stream.Update{
			Action: stream.ActionGameUpdate,
			Sport:  data.Sport,
			GameID: data.Game,
			Game:   &info,
		})
	case stream.ActionGameRemoved:
		var data gameUpdateData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		c.store.Apply(stream.Update{
			Action: stream.ActionGameRemoved,
			Sport:  data.Sport,
			GameID: data.Game,
		})
	case stream.ActionSportClear:
		var data sportClearData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		c.store.Apply(stream.Update{
			Action: stream.ActionSportClear,
			Sport:  data.Sport,
		})
	}
}
