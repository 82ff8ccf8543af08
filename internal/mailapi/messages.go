package mailapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linnemanlabs/herald/internal/mail"
	"github.com/linnemanlabs/herald/internal/profile"
)

func (a *API) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var msg mail.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	sr, err := a.svc.Submit(r.Context(), &msg)
	if err != nil {
		if errors.Is(err, mail.ErrInvalidAddress) {
			a.logger.Info(r.Context(), "rejected message with invalid sender", "from", msg.From)
			http.Error(w, `{"error":"invalid sender address"}`, http.StatusBadRequest)
			return
		}
		a.logger.Error(r.Context(), err, "failed to submit message")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if sr.Skipped {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"skipped": true,
			"reason":  sr.Reason,
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": sr.ID})
}

func (a *API) handleReloadProfile(w http.ResponseWriter, r *http.Request) {
	if err := a.profiles.Reload(r.Context()); err != nil {
		if errors.Is(err, profile.ErrInvalid) {
			a.logger.Error(r.Context(), err, "profile reload rejected")
			http.Error(w, `{"error":"invalid profile"}`, http.StatusUnprocessableEntity)
			return
		}
		a.logger.Error(r.Context(), err, "profile reload failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	a.logger.Info(r.Context(), "profile reloaded")
	w.WriteHeader(http.StatusNoContent)
}
