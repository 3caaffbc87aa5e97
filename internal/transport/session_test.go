// internal/transport/session_test.go
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdussey/wordhex/internal/protocol"
)

type stubVerifier struct {
	id   uuid.UUID
	name string
}

func (v stubVerifier) Verify(token string) (uuid.UUID, string, error) {
	return v.id, v.name, nil
}

func newSessionServer(t *testing.T, hub *Hub, verifier IdentityVerifier) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		NewSession(hub, conn, verifier, nil).Run(r.Context())
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return srv, conn
}

func send(t *testing.T, conn *websocket.Conn, channel string, typ protocol.Type, payload any) {
	t.Helper()
	env, err := protocol.NewEnvelope(channel, typ, payload)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

// waitForSubscribers polls until the channel reaches the wanted count;
// subscribe frames are processed asynchronously by the session's read loop.
func waitForSubscribers(t *testing.T, hub *Hub, channel string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(channel) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s never reached %d subscribers", channel, want)
}

func TestSessionRequiresIdentifyBeforeSubscribe(t *testing.T) {
	hub := NewHub(nil)
	_, conn := newSessionServer(t, hub, stubVerifier{id: uuid.New()})

	send(t, conn, "", protocol.TypeSubscribe, protocol.Subscribe{Channel: "lobby:x"})

	env := readEnvelope(t, conn)
	assert.Equal(t, protocol.TypeError, env.Type)
	assert.Zero(t, hub.Subscribers("lobby:x"))
}

func TestSessionSubscribeAndReceiveBroadcast(t *testing.T) {
	hub := NewHub(nil)
	_, conn := newSessionServer(t, hub, stubVerifier{id: uuid.New(), name: "alice"})

	send(t, conn, "", protocol.TypeIdentify, protocol.Identify{Token: "tok"})
	send(t, conn, "", protocol.TypeSubscribe, protocol.Subscribe{Channel: "lobby:x"})
	waitForSubscribers(t, hub, "lobby:x", 1)

	want, err := protocol.NewEnvelope("lobby:x", protocol.TypeLobbyUpdate, map[string]string{"k": "v"})
	require.NoError(t, err)
	hub.Publish(want)

	env := readEnvelope(t, conn)
	assert.Equal(t, protocol.TypeLobbyUpdate, env.Type)
	assert.Equal(t, "lobby:x", env.Channel)
}

func TestSessionUnsubscribeStopsBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	_, conn := newSessionServer(t, hub, stubVerifier{id: uuid.New()})

	send(t, conn, "", protocol.TypeIdentify, protocol.Identify{Token: "tok"})
	send(t, conn, "", protocol.TypeSubscribe, protocol.Subscribe{Channel: "lobby:x"})
	waitForSubscribers(t, hub, "lobby:x", 1)
	send(t, conn, "", protocol.TypeUnsubscribe, protocol.Unsubscribe{Channel: "lobby:x"})
	waitForSubscribers(t, hub, "lobby:x", 0)
}

func TestSessionRelaysPlayerActionWithVerifiedIdentity(t *testing.T) {
	hub := NewHub(nil)
	userID := uuid.New()
	_, conn := newSessionServer(t, hub, stubVerifier{id: userID, name: "alice"})

	send(t, conn, "", protocol.TypeIdentify, protocol.Identify{Token: "tok"})
	send(t, conn, "", protocol.TypeSubscribe, protocol.Subscribe{Channel: "match:y"})
	waitForSubscribers(t, hub, "match:y", 1)

	// The client lies about its identity; the relay must carry the verified
	// one instead.
	send(t, conn, "match:y", protocol.TypePlayerAction, protocol.PlayerAction{
		UserID:   uuid.New(),
		Username: "mallory",
		Action:   "selecting",
	})

	env := readEnvelope(t, conn)
	require.Equal(t, protocol.TypePlayerAction, env.Type)
	assert.Equal(t, "match:y", env.Channel)

	var action protocol.PlayerAction
	require.NoError(t, json.Unmarshal(env.Payload, &action))
	assert.Equal(t, userID, action.UserID)
	assert.Equal(t, "alice", action.Username)
}

func TestSessionIdentityUpdateConcurrentWithPublish(t *testing.T) {
	hub := NewHub(nil)
	s := NewSession(hub, nil, nil, nil)
	hub.subscribe(s, "match:1")

	// Hammer identify against hub fan-out; the overflowing queue makes the
	// drop path read the identity while it is being rewritten.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.setIdentity(uuid.New(), "alice")
		}
	}()
	for i := 0; i < 200; i++ {
		hub.Publish(mustEnv(t, "match:1", protocol.TypeMatchUpdate, nil))
	}
	<-done

	assert.True(t, s.identified())
}

func TestSessionRejectsMalformedFrame(t *testing.T) {
	hub := NewHub(nil)
	_, conn := newSessionServer(t, hub, stubVerifier{id: uuid.New()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))

	env := readEnvelope(t, conn)
	assert.Equal(t, protocol.TypeError, env.Type)
}
