package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/logger"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/notify"
	"practice-scheduler/internal/reminder"
)

// Store is the persistence the HTTP layer needs. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateClient(ctx context.Context, c *model.Client) error
	ListClients(ctx context.Context, userID string) ([]model.Client, error)
	GetClient(ctx context.Context, userID, id string) (*model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeleteClient(ctx context.Context, userID, id string) error

	CreateSession(ctx context.Context, userID string, s *model.Session) error
	ListSessions(ctx context.Context, userID, clientID string) ([]model.Session, error)
	UpdateSession(ctx context.Context, userID string, s *model.Session) error
	MarkSessionPaid(ctx context.Context, userID, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, userID, id string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentByToken(ctx context.Context, token string) (*model.Appointment, error)
	ApplyChange(ctx context.Context, id string, ch model.Change) (*model.Appointment, error)
	NextAppointment(ctx context.Context, userID, clientID string, now time.Time) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id, userID string) error
}

type Notifier interface {
	Send(ctx context.Context, n notify.Notification) notify.Result
}

type Sweeper interface {
	RunOnce(ctx context.Context) (reminder.Report, error)
}

type Options struct {
	JWTSecret  string
	BaseURL    string
	TokenBytes int
	// TokenTTL limits how long action links work after creation; zero means forever.
	TokenTTL time.Duration
	Policy   model.Policy
	Now      func() time.Time
}

type Handler struct {
	store    Store
	notifier Notifier
	sweeper  Sweeper
	opts     Options
	log      *zap.Logger
}

func New(st Store, n Notifier, sw Sweeper, opts Options) *Handler {
	if opts.Policy == nil {
		opts.Policy = model.LatestWins
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		store:    st,
		notifier: n,
		sweeper:  sw,
		opts:     opts,
		log:      logger.WithModule("handler"),
	}
}

func (h *Handler) now() time.Time {
	return h.opts.Now().UTC()
}

var errInvalidJSON = apperr.BadRequest("Invalid JSON body")

const maxBodyBytes = 1 << 16

// decodeStrict reads one JSON object of at most maxBodyBytes and rejects
// unknown fields and trailing data.
func decodeStrict(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return errInvalidJSON
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidJSON
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidJSON
	}
	return nil
}
