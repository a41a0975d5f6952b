package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/auth"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/response"
	"practice-scheduler/internal/store"
	"practice-scheduler/internal/validate"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errInvalidJSON)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		response.Error(c, apperr.BadRequest(err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	}

	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// dup email, but don't reveal that
			response.Error(c, apperr.Conflict("registration failed"))
			return
		}
		h.log.Error("create user", zap.Error(err))
		response.Error(c, err)
		return
	}

	tok, err := auth.MakeToken(u.ID, h.opts.JWTSecret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"user_id": u.ID, "token": tok})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errInvalidJSON)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, apperr.BadRequest("email and password required"))
		return
	}

	u, err := h.store.UserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("load user", zap.Error(err))
		}
		response.Error(c, apperr.Unauthorized("invalid credentials"))
		return
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		response.Error(c, apperr.Unauthorized("invalid credentials"))
		return
	}

	tok, err := auth.MakeToken(u.ID, h.opts.JWTSecret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": tok, "user_id": u.ID, "name": u.Name})
}
