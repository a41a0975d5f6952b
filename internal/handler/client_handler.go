package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/auth"
	"practice-scheduler/internal/middleware"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/notify"
	"practice-scheduler/internal/response"
	"practice-scheduler/internal/store"
	"practice-scheduler/internal/validate"
)

const defaultDurationMin = 30

var errClientNotFound = apperr.NotFound("Client not found")

type clientRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
	Goals string `json:"goals" validate:"max=2000"`
	Notes string `json:"notes" validate:"max=5000"`
}

type clientView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Goals     string    `json:"goals"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func toClientView(c *model.Client) clientView {
	return clientView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Goals:     c.Goals,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
	}
}

// bindClient decodes and trims a client body. Blank optional fields clear the value.
func bindClient(c *gin.Context) (clientRequest, error) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, errInvalidJSON
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Goals = strings.TrimSpace(req.Goals)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := validate.Struct(req); err != nil {
		return req, apperr.BadRequest(err.Error())
	}
	return req, nil
}

type appointmentRequest struct {
	StartsAt    string `json:"starts_at" validate:"required"`
	DurationMin int    `json:"duration_min" validate:"omitempty,min=1,max=1440"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type linksView struct {
	Confirm    string `json:"confirm"`
	Cancel     string `json:"cancel"`
	Reschedule string `json:"reschedule"`
}

// appointmentView is the practitioner's view of a row, links included.
type appointmentView struct {
	ID             string       `json:"id"`
	ClientID       string       `json:"client_id"`
	StartsAt       time.Time    `json:"starts_at"`
	DurationMin    int          `json:"duration_min"`
	Notes          string       `json:"notes,omitempty"`
	Status         model.Status `json:"status"`
	ConfirmedAt    *time.Time   `json:"confirmed_at"`
	CancelledAt    *time.Time   `json:"cancelled_at"`
	RescheduledAt  *time.Time   `json:"rescheduled_at"`
	ReminderSentAt *time.Time   `json:"reminder_sent_at"`
	CreatedAt      time.Time    `json:"created_at"`
	Links          linksView    `json:"links"`
}

func (h *Handler) toAppointmentView(a *model.Appointment) appointmentView {
	base := h.opts.BaseURL
	return appointmentView{
		ID:             a.ID,
		ClientID:       a.ClientID,
		StartsAt:       a.StartsAt,
		DurationMin:    a.DurationMin,
		Notes:          a.Notes,
		Status:         a.Status,
		ConfirmedAt:    a.ConfirmedAt,
		CancelledAt:    a.CancelledAt,
		RescheduledAt:  a.RescheduledAt,
		ReminderSentAt: a.ReminderSentAt,
		CreatedAt:      a.CreatedAt,
		Links: linksView{
			Confirm:    notify.ActionURL(base, a.ConfirmToken, model.ActionConfirm),
			Cancel:     notify.ActionURL(base, a.CancelToken, model.ActionCancel),
			Reschedule: notify.ActionURL(base, a.RescheduleToken, model.ActionReschedule),
		},
	}
}

// pathID returns the uuid path parameter, or false when it cannot name a row.
func pathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (h *Handler) CreateClient(c *gin.Context) {
	req, err := bindClient(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cl := &model.Client{
		ID:     uuid.New().String(),
		UserID: middleware.UserID(c),
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Goals:  req.Goals,
		Notes:  req.Notes,
	}
	if err := h.store.CreateClient(c.Request.Context(), cl); err != nil {
		h.log.Error("create client", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"client": toClientView(cl)})
}

func (h *Handler) ListClients(c *gin.Context) {
	list, err := h.store.ListClients(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.log.Error("list clients", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	out := make([]clientView, len(list))
	for i := range list {
		out[i] = toClientView(&list[i])
	}
	response.JSON(c, http.StatusOK, gin.H{"clients": out})
}

func (h *Handler) GetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}
	cl, err := h.store.GetClient(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errClientNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"client": toClientView(cl)})
}

// UpdateClient replaces the client's details. Later mails use the new name and email.
func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}
	req, err := bindClient(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cl := &model.Client{
		ID:     id,
		UserID: middleware.UserID(c),
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Goals:  req.Goals,
		Notes:  req.Notes,
	}
	err = h.store.UpdateClient(c.Request.Context(), cl)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errClientNotFound)
		return
	}
	if err != nil {
		h.log.Error("update client", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"client": toClientView(cl)})
}

// DeleteClient removes the client together with its appointments and sessions.
func (h *Handler) DeleteClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}
	err := h.store.DeleteClient(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errClientNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateAppointment schedules a PENDING appointment with fresh action tokens
// and mails the confirmation. A failed mail does not undo the insert.
func (h *Handler) CreateAppointment(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	clientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errInvalidJSON)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, apperr.BadRequest(err.Error()))
		return
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		response.Error(c, apperr.BadRequest("Invalid starts_at"))
		return
	}
	if req.DurationMin == 0 {
		req.DurationMin = defaultDurationMin
	}

	cl, err := h.store.GetClient(ctx, userID, clientID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errClientNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}

	tokens, err := auth.IssueActionTokens(h.opts.TokenBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	appt := &model.Appointment{
		ID:              uuid.New().String(),
		ClientID:        cl.ID,
		StartsAt:        startsAt.UTC(),
		DurationMin:     req.DurationMin,
		Notes:           strings.TrimSpace(req.Notes),
		Status:          model.StatusPending,
		ConfirmToken:    tokens.Confirm,
		CancelToken:     tokens.Cancel,
		RescheduleToken: tokens.Reschedule,
		ClientName:      cl.Name,
		ClientEmail:     cl.Email,
	}
	if err := h.store.CreateAppointment(ctx, appt); err != nil {
		h.log.Error("create appointment", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}

	mail := h.notifier.Send(ctx, notify.ForAppointment(notify.KindConfirmation, appt, h.opts.BaseURL))
	if !mail.OK {
		h.log.Warn("confirmation mail not sent",
			zap.String("appointment_id", appt.ID),
			zap.String("error", mail.Error))
	}

	response.JSON(c, http.StatusCreated, gin.H{
		"appointment": h.toAppointmentView(appt),
		"mail":        mail,
	})
}

func (h *Handler) NextAppointment(c *gin.Context) {
	clientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}

	a, err := h.store.NextAppointment(c.Request.Context(), middleware.UserID(c), clientID, h.now())
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, apperr.NotFound("No upcoming appointment"))
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"appointment": h.toAppointmentView(a)})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, apperr.NotFound("Appointment not found"))
		return
	}

	err := h.store.DeleteAppointment(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		// ownership: 404 not 403 to hide existence
		response.Error(c, apperr.NotFound("Appointment not found"))
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	c.Status(http.StatusNoContent)
}
