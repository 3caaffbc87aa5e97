// internal/handlers/session.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/devdussey/wordhex/internal/auth"
)

// GuestHandler issues an identify token for an ephemeral guest identity.
// The sync core treats identity as externally provided; this endpoint
// stands in for the identity provider so clients can play without an
// account.
func (api *API) GuestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	userID := uuid.New()
	if req.Username == "" {
		req.Username = fmt.Sprintf("guest-%s", userID.String()[:8])
	}

	token, err := auth.CreateToken(userID, req.Username)
	if err != nil {
		api.Log.WithError(err).Error("failed to create guest token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"userId":   userID.String(),
		"username": req.Username,
		"token":    token,
	})
}
