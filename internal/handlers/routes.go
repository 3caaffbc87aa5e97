// internal/handlers/routes.go
package handlers

import "net/http"

// Routes registers every HTTP surface on a fresh mux. Mutations go over
// request/response; match and lobby updates fan out over the WebSocket hub.
func (api *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/guest", api.GuestHandler)

	mux.HandleFunc("POST /lobby/create", api.LobbyCreateHandler)
	mux.HandleFunc("GET /lobby/list", api.LobbyListHandler)
	mux.HandleFunc("POST /lobby/join", api.LobbyJoinHandler)
	mux.HandleFunc("GET /lobby/{lobby_id}", api.LobbyGetHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/ready", api.LobbyReadyHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/leave", api.LobbyLeaveHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/kick", api.LobbyKickHandler)
	mux.HandleFunc("POST /lobby/{lobby_id}/start", api.LobbyStartHandler)

	mux.HandleFunc("GET /solo/grid", api.SoloGridHandler)

	mux.HandleFunc("GET /match/{match_id}", api.MatchGetHandler)
	mux.HandleFunc("POST /match/{match_id}/submit", api.MatchSubmitHandler)
	mux.HandleFunc("POST /match/{match_id}/shuffle", api.MatchShuffleHandler)

	mux.HandleFunc("GET /ws", api.WebSocketHandler)

	return mux
}
