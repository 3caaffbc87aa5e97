// internal/transport/client.go
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/protocol"
)

// DefaultRetryDelay is how long the client waits after an unexpected close
// before dialing again. Fixed delay, retried indefinitely.
const DefaultRetryDelay = 2 * time.Second

// Client maintains a single long-lived connection to the realtime server.
// After every (re)connect it re-sends identify and re-issues subscribe for
// every channel it wants — a full resubscribe, since the server holds no
// session memory across disconnects. While disconnected, Publish calls are
// silently dropped: state-changing requests travel over the HTTP API, so a
// transport drop only delays receipt of a broadcast, never loses a
// mutation.
type Client struct {
	url        string
	token      string
	onMessage  func(protocol.Envelope)
	retryDelay time.Duration
	log        *logrus.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	subs map[string]struct{}
}

// NewClient builds a client for url authenticating with the identity
// provider's token. onMessage receives every inbound envelope.
func NewClient(url, token string, onMessage func(protocol.Envelope)) *Client {
	return &Client{
		url:        url,
		token:      token,
		onMessage:  onMessage,
		retryDelay: DefaultRetryDelay,
		log:        logrus.StandardLogger(),
		subs:       make(map[string]struct{}),
	}
}

// Subscribe adds a channel to the desired set and, if currently connected,
// registers it immediately. The channel survives reconnects.
func (c *Client) Subscribe(channel string) {
	c.mu.Lock()
	c.subs[channel] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.write(conn, mustEnvelope("", protocol.TypeSubscribe, protocol.Subscribe{Channel: channel}))
	}
}

// Unsubscribe drops a channel from the desired set.
func (c *Client) Unsubscribe(channel string) {
	c.mu.Lock()
	delete(c.subs, channel)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.write(conn, mustEnvelope("", protocol.TypeUnsubscribe, protocol.Unsubscribe{Channel: channel}))
	}
}

// Publish sends an ephemeral envelope (player:action). Dropped silently
// while disconnected; there is no outbound queue.
func (c *Client) Publish(env protocol.Envelope) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.write(conn, env)
}

// Run connects and services the stream until ctx is cancelled. On any
// unexpected close it waits the retry delay and reconnects, repeating
// indefinitely.
func (c *Client) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.runOnce(ctx); err != nil && ctx.Err() == nil {
			c.log.WithError(err).Debug("transport connection lost; reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// Rehydrate: identify first, then the full subscription set.
	c.write(conn, mustEnvelope("", protocol.TypeIdentify, protocol.Identify{Token: c.token}))
	c.mu.Lock()
	channels := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		channels = append(channels, ch)
	}
	c.conn = conn
	c.mu.Unlock()
	for _, ch := range channels {
		c.write(conn, mustEnvelope("", protocol.TypeSubscribe, protocol.Subscribe{Channel: ch}))
	}

	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.WithError(err).Warn("dropping malformed frame")
			continue
		}
		if c.onMessage != nil {
			c.onMessage(env)
		}
	}
}

func (c *Client) write(conn *websocket.Conn, env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal outbound envelope")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.log.WithError(err).Debug("transport write failed")
	}
}

// mustEnvelope wraps protocol.NewEnvelope for payload types defined in
// this module, which cannot fail to marshal.
func mustEnvelope(channel string, typ protocol.Type, payload any) protocol.Envelope {
	env, err := protocol.NewEnvelope(channel, typ, payload)
	if err != nil {
		panic(err)
	}
	return env
}
