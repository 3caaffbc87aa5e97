// internal/handlers/ws.go
package handlers

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/devdussey/wordhex/internal/auth"
	"github.com/devdussey/wordhex/internal/middleware"
	"github.com/devdussey/wordhex/internal/transport"
)

// WebSocketHandler upgrades the connection and services it until the
// client goes away. Identity arrives in-band via an identify frame; the
// session joins no channel until the client identifies and subscribes.
func (api *API) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		api.Log.WithError(err).Error("failed to accept websocket connection")
		return
	}
	middleware.LogWebSocketConnect(api.Log, r.RemoteAddr, r.URL.Path)

	session := transport.NewSession(api.Hub, conn, auth.Verifier{}, api.Log)
	session.Run(r.Context())

	middleware.LogWebSocketDisconnect(api.Log, r.RemoteAddr, r.URL.Path, nil)
	conn.Close(websocket.StatusNormalClosure, "session closed")
}
