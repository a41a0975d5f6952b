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
	"practice-scheduler/internal/middleware"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/response"
	"practice-scheduler/internal/store"
	"practice-scheduler/internal/validate"
)

var errSessionNotFound = apperr.NotFound("Session not found")

type sessionRequest struct {
	Date          string `json:"session_date" validate:"required"`
	Location      string `json:"location" validate:"max=200"`
	Focus         string `json:"focus" validate:"max=500"`
	Notes         string `json:"notes" validate:"max=5000"`
	ProgressScore *int   `json:"progress_score" validate:"omitempty,min=0,max=10"`
	PriceCents    int    `json:"price_cents" validate:"min=0"`
}

type sessionView struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	Date          string    `json:"session_date"`
	Location      string    `json:"location"`
	Focus         string    `json:"focus"`
	Notes         string    `json:"notes"`
	ProgressScore *int      `json:"progress_score"`
	PriceCents    int       `json:"price_cents"`
	PaidCents     int       `json:"paid_cents"`
	OpenCents     int       `json:"open_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSessionView(s *model.Session) sessionView {
	return sessionView{
		ID:            s.ID,
		ClientID:      s.ClientID,
		Date:          s.Date.Format(model.SessionDateLayout),
		Location:      s.Location,
		Focus:         s.Focus,
		Notes:         s.Notes,
		ProgressScore: s.ProgressScore,
		PriceCents:    s.PriceCents,
		PaidCents:     s.PaidCents,
		OpenCents:     s.OpenCents(),
		CreatedAt:     s.CreatedAt,
	}
}

// bindSession decodes a session body into s. Payment is never taken from the body.
func bindSession(c *gin.Context, s *model.Session) error {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return errInvalidJSON
	}
	if err := validate.Struct(req); err != nil {
		return apperr.BadRequest(err.Error())
	}
	date, err := time.Parse(model.SessionDateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return apperr.BadRequest("Invalid session_date")
	}

	s.Date = date
	s.Location = strings.TrimSpace(req.Location)
	s.Focus = strings.TrimSpace(req.Focus)
	s.Notes = strings.TrimSpace(req.Notes)
	s.ProgressScore = req.ProgressScore
	s.PriceCents = req.PriceCents
	return nil
}

// ListSessions returns the client's sessions by date and what is still owed across them.
func (h *Handler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	clientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}
	if _, err := h.store.GetClient(ctx, userID, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(c, errClientNotFound)
			return
		}
		response.Error(c, apperr.Store(err))
		return
	}

	list, err := h.store.ListSessions(ctx, userID, clientID)
	if err != nil {
		h.log.Error("list sessions", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	out := make([]sessionView, len(list))
	for i := range list {
		out[i] = toSessionView(&list[i])
	}
	response.JSON(c, http.StatusOK, gin.H{
		"sessions":           out,
		"open_balance_cents": model.OpenBalance(list),
	})
}

func (h *Handler) CreateSession(c *gin.Context) {
	clientID, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errClientNotFound)
		return
	}
	s := &model.Session{ID: uuid.New().String(), ClientID: clientID}
	if err := bindSession(c, s); err != nil {
		response.Error(c, err)
		return
	}

	err := h.store.CreateSession(c.Request.Context(), middleware.UserID(c), s)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errClientNotFound)
		return
	}
	if err != nil {
		h.log.Error("create session", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"session": toSessionView(s)})
}

// UpdateSession edits a session. The amount already paid is kept.
func (h *Handler) UpdateSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errSessionNotFound)
		return
	}
	s := &model.Session{ID: id}
	if err := bindSession(c, s); err != nil {
		response.Error(c, err)
		return
	}

	err := h.store.UpdateSession(c.Request.Context(), middleware.UserID(c), s)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errSessionNotFound)
		return
	}
	if err != nil {
		h.log.Error("update session", zap.Error(err))
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"session": toSessionView(s)})
}

// MarkSessionPaid records the full price as paid.
func (h *Handler) MarkSessionPaid(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errSessionNotFound)
		return
	}
	s, err := h.store.MarkSessionPaid(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errSessionNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"session": toSessionView(s)})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, errSessionNotFound)
		return
	}
	err := h.store.DeleteSession(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, errSessionNotFound)
		return
	}
	if err != nil {
		response.Error(c, apperr.Store(err))
		return
	}
	c.Status(http.StatusNoContent)
}
