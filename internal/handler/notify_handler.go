package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practice-scheduler/internal/notify"
	"practice-scheduler/internal/response"
	"practice-scheduler/internal/validate"
)

// MailRequest is the body of POST /api/notifications/appointment-mail.
type MailRequest struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointment_id,omitempty"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	StartsAt      string `json:"starts_at"`
	DurationMin   int    `json:"duration_min"`
	ConfirmURL    string `json:"confirm_url,omitempty"`
	CancelURL     string `json:"cancel_url,omitempty"`
	RescheduleURL string `json:"reschedule_url,omitempty"`
}

// Notification converts the request. A present but unparsable starts_at is
// reported by name; an absent one is left zero for the sender to reject.
func (r MailRequest) Notification() (notify.Notification, string) {
	n := notify.Notification{
		Type:          notify.Kind(r.Type),
		ClientName:    strings.TrimSpace(r.ClientName),
		ClientEmail:   strings.TrimSpace(r.ClientEmail),
		DurationMin:   r.DurationMin,
		ConfirmURL:    r.ConfirmURL,
		CancelURL:     r.CancelURL,
		RescheduleURL: r.RescheduleURL,
	}
	if raw := strings.TrimSpace(r.StartsAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return n, "Invalid starts_at"
		}
		n.StartsAt = t
	}
	if n.ClientEmail != "" && validate.Var(n.ClientEmail, "email") != nil {
		return n, "Invalid client_email"
	}
	return n, ""
}

// SendMail always answers 200; the outcome is carried in {ok, error}.
func (h *Handler) SendMail(c *gin.Context) {
	var req MailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusOK, notify.Result{Error: "Invalid JSON body"})
		return
	}

	n, problem := req.Notification()
	if problem != "" {
		response.JSON(c, http.StatusOK, notify.Result{Error: problem})
		return
	}

	res := h.notifier.Send(c.Request.Context(), n)
	if !res.OK {
		h.log.Warn("appointment mail not sent",
			zap.String("appointment_id", req.AppointmentID),
			zap.String("type", req.Type),
			zap.String("error", res.Error))
	}
	response.JSON(c, http.StatusOK, res)
}
