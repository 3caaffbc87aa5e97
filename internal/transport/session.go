// internal/transport/session.go
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/protocol"
)

// IdentityVerifier checks an identify token and yields the trusted
// (userId, username) pair the identity provider bound to it.
type IdentityVerifier interface {
	Verify(token string) (uuid.UUID, string, error)
}

const (
	outQueueSize = 32
	writeTimeout = 3 * time.Second
)

// Session is one client's long-lived connection on the server side. It
// owns a FIFO outbound queue drained by a single write pump, which is what
// guarantees per-channel ordering on the wire for this connection.
type Session struct {
	hub      *Hub
	conn     *websocket.Conn
	verifier IdentityVerifier
	log      *logrus.Logger

	out chan []byte

	// mu guards the identity pair: the read loop sets it on identify while
	// hub fan-out goroutines read it for logging.
	mu       sync.Mutex
	userID   uuid.UUID
	username string
}

// NewSession wraps an accepted WebSocket connection. The session is not
// registered on any channel until the client identifies and subscribes.
func NewSession(hub *Hub, conn *websocket.Conn, verifier IdentityVerifier, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		hub:      hub,
		conn:     conn,
		verifier: verifier,
		log:      log,
		out:      make(chan []byte, outQueueSize),
	}
}

// enqueue pushes a marshaled frame onto the outbound queue, dropping it if
// the client is too slow to keep up. At-most-once, best-effort.
func (s *Session) enqueue(data []byte) {
	select {
	case s.out <- data:
	default:
		userID, _ := s.identity()
		s.log.WithField("user", userID).Warn("outbound queue full; dropping frame")
	}
}

func (s *Session) setIdentity(userID uuid.UUID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.username = username
}

func (s *Session) identity() (uuid.UUID, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.username
}

// Run services the connection until the client disconnects or ctx is
// cancelled. On exit the session is dropped from every channel.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.hub.drop(s)

	go s.writePump(ctx)
	s.readLoop(ctx)
}

func (s *Session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-s.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				userID, _ := s.identity()
				s.log.WithError(err).WithField("user", userID).Debug("websocket read ended")
			}
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError("invalid JSON frame")
			continue
		}

		decoded, err := protocol.Decode(env)
		if err != nil {
			s.sendError(err.Error())
			continue
		}

		switch msg := decoded.(type) {
		case protocol.Identify:
			userID, username, err := s.verifier.Verify(msg.Token)
			if err != nil {
				s.sendError("identify failed")
				continue
			}
			s.setIdentity(userID, username)

		case protocol.Subscribe:
			if !s.identified() {
				s.sendError("identify before subscribing")
				continue
			}
			s.hub.subscribe(s, msg.Channel)

		case protocol.Unsubscribe:
			s.hub.unsubscribe(s, msg.Channel)

		case protocol.PlayerAction:
			// Ephemeral relay (live-typing indicators). Stamp the sender's
			// verified identity and fan out; authoritative state is untouched.
			userID, username := s.identity()
			if userID == uuid.Nil || env.Channel == "" {
				continue
			}
			msg.UserID = userID
			msg.Username = username
			relay, err := protocol.NewEnvelope(env.Channel, protocol.TypePlayerAction, msg)
			if err != nil {
				continue
			}
			s.hub.Publish(relay)
		}
	}
}

func (s *Session) identified() bool {
	userID, _ := s.identity()
	return userID != uuid.Nil
}

// sendError reports a problem to this requester only; errors are never
// broadcast.
func (s *Session) sendError(msg string) {
	env, err := protocol.NewEnvelope("", protocol.TypeError, protocol.ErrorPayload{Message: msg})
	if err != nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	s.enqueue(data)
}
