package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/models"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB databases.PushTokenDatabase
}

// RegisterPushTokenHandler registers or refreshes an Expo device token
func (p PushToken) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var token models.PushToken
	if err := json.NewDecoder(r.Body).Decode(&token); err != nil {
		config.ErrorStatus("failed to decode push token body", http.StatusBadRequest, w, err)
		return
	}
	if token.Token == "" {
		config.ErrorStatus("invalid push token", http.StatusBadRequest, w, errRequired("token"))
		return
	}
	if token.UserID == "" {
		config.ErrorStatus("invalid push token", http.StatusBadRequest, w, errRequired("userId"))
		return
	}

	if err := p.DB.Upsert(context.TODO(), token); err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "push token registered"}`))
}

type unregisterPushTokenRequest struct {
	Token string `json:"token"`
}

// UnregisterPushTokenHandler removes a device token
func (p PushToken) UnregisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req unregisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode push token body", http.StatusBadRequest, w, err)
		return
	}
	if req.Token == "" {
		config.ErrorStatus("invalid push token", http.StatusBadRequest, w, errRequired("token"))
		return
	}

	if err := p.DB.DeleteByToken(context.TODO(), req.Token); err != nil {
		config.ErrorStatus("failed to unregister push token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "push token removed"}`))
}
