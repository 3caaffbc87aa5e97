// internal/handlers/lobby_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdussey/wordhex/internal/auth"
	"github.com/devdussey/wordhex/internal/game"
	"github.com/devdussey/wordhex/internal/grid"
	"github.com/devdussey/wordhex/internal/lobby"
	"github.com/devdussey/wordhex/internal/transport"
)

func TestMain(m *testing.M) {
	auth.Init()
	os.Exit(m.Run())
}

// allowAll accepts every candidate word, so handler tests can submit
// arbitrary paths against a randomly generated grid.
type allowAll struct{}

func (allowAll) IsValidWord(string) bool { return true }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	hub := transport.NewHub(log)
	matches := game.NewStore()
	lobbies := lobby.NewManager("test-server", 4, game.Config{
		RoundsPerPlayer: 1,
		Dict:            allowAll{},
	}, log)

	api := NewAPI(log, hub, lobbies, matches)
	srv := httptest.NewServer(api.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func guestToken(t *testing.T, username string) string {
	t.Helper()
	token, err := auth.CreateToken(uuid.New(), username)
	require.NoError(t, err)
	return token
}

// doJSON issues a request with an optional bearer token and decodes the
// JSON response into out (which may be nil).
func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestGuestHandlerIssuesVerifiableToken(t *testing.T) {
	srv := newTestServer(t)

	var got map[string]string
	resp := doJSON(t, http.MethodPost, srv.URL+"/auth/guest", "", map[string]string{"username": "alice"}, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	userID, username, err := auth.VerifyToken(got["token"])
	require.NoError(t, err)
	assert.Equal(t, got["userId"], userID.String())
	assert.Equal(t, "alice", username)
}

func TestLobbyCreateRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/lobby/create", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLobbyCreateAndGet(t *testing.T) {
	srv := newTestServer(t)
	token := guestToken(t, "alice")

	var created lobby.Lobby
	resp := doJSON(t, http.MethodPost, srv.URL+"/lobby/create", token,
		map[string]string{"visibility": "public"}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, created.Code, 4)
	assert.Len(t, created.Players, 1)

	var fetched lobby.Lobby
	resp = doJSON(t, http.MethodGet, srv.URL+"/lobby/"+created.ID.String(), token, nil, &fetched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, fetched.ID)

	var listing []lobby.Lobby
	resp = doJSON(t, http.MethodGet, srv.URL+"/lobby/list", token, nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listing, 1)
}

func TestLobbyJoinUnknownCode(t *testing.T) {
	srv := newTestServer(t)
	token := guestToken(t, "bob")

	resp := doJSON(t, http.MethodPost, srv.URL+"/lobby/join", token, map[string]string{"code": "0000"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// startMatch drives two guests through create/join/ready/start and returns
// the tokens plus the opening match snapshot.
func startMatch(t *testing.T, srv *httptest.Server) (hostToken, guestTok string, started lobby.MatchStarted) {
	t.Helper()
	hostToken = guestToken(t, "alice")
	guestTok = guestToken(t, "bob")

	var l lobby.Lobby
	resp := doJSON(t, http.MethodPost, srv.URL+"/lobby/create", hostToken, nil, &l)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/lobby/join", guestTok, map[string]string{"code": l.Code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, tok := range []string{hostToken, guestTok} {
		resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/lobby/%s/ready", srv.URL, l.ID), tok,
			map[string]bool{"ready": true}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/lobby/%s/start", srv.URL, l.ID), hostToken, nil, &started)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, lobby.StatusPlaying, started.Lobby.Status)
	require.NotNil(t, started.Match.CurrentPlayerID)
	return hostToken, guestTok, started
}

func TestStartRequiresHost(t *testing.T) {
	srv := newTestServer(t)
	hostToken := guestToken(t, "alice")
	guestTok := guestToken(t, "bob")

	var l lobby.Lobby
	resp := doJSON(t, http.MethodPost, srv.URL+"/lobby/create", hostToken, nil, &l)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/lobby/join", guestTok, map[string]string{"code": l.Code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/lobby/%s/start", srv.URL, l.ID), guestTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMatchSubmitFlow(t *testing.T) {
	srv := newTestServer(t)
	hostToken, guestTok, started := startMatch(t, srv)
	matchURL := fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID)

	path := []grid.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}

	// The host opens; the guest submitting first is out of turn.
	resp := doJSON(t, http.MethodPost, matchURL+"/submit", guestTok, map[string]any{"path": path}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var snap game.Snapshot
	resp = doJSON(t, http.MethodPost, matchURL+"/submit", hostToken, map[string]any{"path": path}, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Positive(t, snap.Players[0].Score)
	require.NotNil(t, snap.CurrentPlayerID)
	assert.NotEqual(t, started.Lobby.HostID, *snap.CurrentPlayerID)

	// Too-short selection is rejected with the reason, turn unchanged.
	resp = doJSON(t, http.MethodPost, matchURL+"/submit", guestTok,
		map[string]any{"path": path[:2]}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMatchShuffleOncePerTurn(t *testing.T) {
	srv := newTestServer(t)
	hostToken, _, started := startMatch(t, srv)
	matchURL := fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID)

	resp := doJSON(t, http.MethodPost, matchURL+"/shuffle", hostToken, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, matchURL+"/shuffle", hostToken, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMatchGet(t *testing.T) {
	srv := newTestServer(t)
	hostToken, _, started := startMatch(t, srv)

	var snap game.Snapshot
	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID), hostToken, nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, started.Match.ID, snap.ID)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/match/%s", srv.URL, uuid.New()), hostToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKickDuringMatchEvictsFromRotation(t *testing.T) {
	srv := newTestServer(t)
	hostToken, _, started := startMatch(t, srv)

	// Evict the guest mid-match; their rotation slot must disappear, which
	// with two players completes the match.
	var bobID uuid.UUID
	for _, p := range started.Lobby.Players {
		if p.UserID != started.Lobby.HostID {
			bobID = p.UserID
		}
	}

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/lobby/%s/kick", srv.URL, started.Lobby.ID), hostToken,
		map[string]string{"userId": bobID.String()}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Completion retires the match from the live store and finishes the lobby.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID), hostToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var l lobby.Lobby
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/lobby/%s", srv.URL, started.Lobby.ID), hostToken, nil, &l)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, lobby.StatusFinished, l.Status)
	assert.Len(t, l.Players, 1)
}

func TestLeaveDuringMatchEvictsFromRotation(t *testing.T) {
	srv := newTestServer(t)
	hostToken, guestTok, started := startMatch(t, srv)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/lobby/%s/leave", srv.URL, started.Lobby.ID), guestTok, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID), guestTok, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var l lobby.Lobby
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/lobby/%s", srv.URL, started.Lobby.ID), hostToken, nil, &l)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, lobby.StatusFinished, l.Status)
}

func TestMatchCompletionFinishesLobby(t *testing.T) {
	srv := newTestServer(t)
	hostToken, guestTok, started := startMatch(t, srv)
	matchURL := fmt.Sprintf("%s/match/%s", srv.URL, started.Match.ID)

	path := []grid.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}

	resp := doJSON(t, http.MethodPost, matchURL+"/submit", hostToken, map[string]any{"path": path}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap game.Snapshot
	resp = doJSON(t, http.MethodPost, matchURL+"/submit", guestTok, map[string]any{"path": path}, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, game.StatusCompleted, snap.Status)

	// waiting -> playing -> finished: the lobby reaches its terminal state
	// and the match leaves the live store.
	var l lobby.Lobby
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/lobby/%s", srv.URL, started.Lobby.ID), hostToken, nil, &l)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, lobby.StatusFinished, l.Status)

	resp = doJSON(t, http.MethodGet, matchURL, hostToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSoloGridDealsFourByFour(t *testing.T) {
	srv := newTestServer(t)

	var g grid.Grid
	resp := doJSON(t, http.MethodGet, srv.URL+"/solo/grid", "", nil, &g)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, grid.SoloRows, g.Rows)
	assert.Equal(t, grid.SoloCols, g.Cols)
	require.Len(t, g.Cells, grid.SoloRows)
	assert.Len(t, g.Cells[0], grid.SoloCols)
}
