// internal/handlers/solo.go
package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/devdussey/wordhex/internal/grid"
)

// SoloGridHandler deals a fresh 4x4 board for the single-player client.
// Solo play has no match entity on the server; the client scores locally
// and only the deal is authoritative.
func (api *API) SoloGridHandler(w http.ResponseWriter, r *http.Request) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	writeJSON(w, http.StatusOK, grid.NewSolo(rng))
}
