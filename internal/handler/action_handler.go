package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/metrics"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/response"
	"practice-scheduler/internal/store"
)

// ActionRequest is the public action body. StartsAt is only read for reschedule.
type ActionRequest struct {
	Action   string `json:"action"`
	Token    string `json:"token"`
	StartsAt string `json:"starts_at,omitempty"`
}

// Act runs one token-authenticated action. Any of the appointment's three
// tokens authorizes any action. Get never writes; every other accepted action
// writes the row exactly once.
func (h *Handler) Act(ctx context.Context, req ActionRequest) (*model.Appointment, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, apperr.BadRequest("Missing token")
	}

	appt, err := h.store.AppointmentByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.Store(err)
	}

	now := h.now()
	if ttl := h.opts.TokenTTL; ttl > 0 && now.After(appt.CreatedAt.Add(ttl)) {
		return nil, apperr.Gone("Link expired")
	}

	action := model.Action(req.Action)
	if action == model.ActionGet {
		return appt, nil
	}
	if _, ok := action.Target(); !ok {
		return nil, apperr.BadRequest("Invalid action")
	}

	var startsAt time.Time
	if action == model.ActionReschedule {
		raw := strings.TrimSpace(req.StartsAt)
		if raw == "" {
			return nil, apperr.BadRequest("Missing starts_at")
		}
		startsAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, apperr.BadRequest("Invalid starts_at")
		}
	}

	if !h.opts.Policy.Allows(appt.Status, action) {
		return nil, apperr.Conflict("Appointment is " + strings.ToLower(string(appt.Status)))
	}

	ch, _ := model.ChangeFor(action, now, startsAt)
	updated, err := h.store.ApplyChange(ctx, appt.ID, ch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// deleted between lookup and update
			return nil, apperr.NotFound("Appointment not found")
		}
		return nil, apperr.Store(err)
	}

	// client details come from the lookup
	updated.ClientName, updated.ClientEmail = appt.ClientName, appt.ClientEmail
	return updated, nil
}

// PublicAction serves POST /api/public/appointment-actions.
func (h *Handler) PublicAction(c *gin.Context) {
	var req ActionRequest
	if err := decodeStrict(c, &req); err != nil {
		metrics.Actions.WithLabelValues("invalid", resultLabel(err)).Inc()
		response.Error(c, err)
		return
	}

	appt, err := h.Act(c.Request.Context(), req)
	label := actionLabel(req.Action)
	if err != nil {
		metrics.Actions.WithLabelValues(label, resultLabel(err)).Inc()
		if ae := apperr.From(err); ae.StatusCode >= http.StatusInternalServerError {
			h.log.Error("appointment action failed", zap.String("action", label), zap.Error(err))
		}
		response.Error(c, err)
		return
	}

	metrics.Actions.WithLabelValues(label, "ok").Inc()
	h.log.Info("appointment action",
		zap.String("action", label),
		zap.String("appointment_id", appt.ID),
		zap.String("status", string(appt.Status)))
	response.JSON(c, http.StatusOK, gin.H{"appointment": appt.Project()})
}

// actionLabel keeps metric cardinality bounded.
func actionLabel(a string) string {
	switch model.Action(a) {
	case model.ActionGet, model.ActionConfirm, model.ActionCancel, model.ActionReschedule:
		return a
	}
	return "invalid"
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrGone):
		return "gone"
	}
	return "error"
}
